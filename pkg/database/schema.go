package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the guestbook tables, indexes and the top_messages
// view if they do not already exist (idempotent).
// This is a convenience for early development; prefer migrations in production.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL,
  password TEXT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT false,
  activated_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email);

CREATE TABLE IF NOT EXISTS tokens (
  id BIGSERIAL PRIMARY KEY,
  token TEXT NOT NULL,
  user_id BIGINT NOT NULL REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_token ON tokens (token);

CREATE TABLE IF NOT EXISTS guestbook (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  message TEXT NOT NULL,
  private BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_guestbook_user_id ON guestbook (user_id);

CREATE TABLE IF NOT EXISTS upvotes (
  id BIGSERIAL PRIMARY KEY,
  message_id BIGINT NOT NULL REFERENCES guestbook(id),
  user_id BIGINT NOT NULL REFERENCES users(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_upvotes_message_user ON upvotes (message_id, user_id);
`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return err
	}

	// Public messages ranked by upvote count.
	const view = `
CREATE OR REPLACE VIEW top_messages AS
SELECT g.id, g.message, COUNT(u.id) AS n_upvotes
FROM guestbook g
JOIN upvotes u ON u.message_id = g.id
WHERE NOT g.private
GROUP BY g.id, g.message
ORDER BY n_upvotes DESC;
`
	_, err := db.ExecContext(ctx, view)
	return err
}
