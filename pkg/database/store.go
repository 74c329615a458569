package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/domain"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/sqlbuilder"
)

// Row is a single result record keyed by column name. Column order is not
// preserved; callers look values up by name only.
type Row = map[string]any

// Store executes sqlbuilder statements against a relational store and maps
// rows to Row records. It wraps a *sqlx.DB so every call draws a pooled
// connection for the duration of the query and releases it on all exit
// paths, including errors.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *sqlx.DB { return s.db }

// Select returns zero or more rows for the given table/columns and options.
func (s *Store) Select(ctx context.Context, table string, columns []string, opts sqlbuilder.SelectOpts) ([]Row, error) {
	q, args := sqlbuilder.Select(table, columns, opts)
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row := Row{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// GetOne returns the first matching row, or domain.ErrNotFound when nothing
// matches.
func (s *Store) GetOne(ctx context.Context, table string, columns []string, where sqlbuilder.Pairs) (Row, error) {
	rows, err := s.Select(ctx, table, columns, sqlbuilder.SelectOpts{Limit: 1, Where: where})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0], nil
}

// Insert writes one row and returns the generated primary key. A
// uniqueness-constraint violation is translated to domain.ErrConflict so
// callers can map it to a domain-specific conflict instead of leaking a raw
// storage error.
func (s *Store) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	q, args := sqlbuilder.Insert(table, columns, values)
	var id int64
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(q), args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert into %s: %w", table, domain.ErrConflict)
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Update writes the column/value pairs to all rows matching where and
// returns the affected row count.
func (s *Store) Update(ctx context.Context, table string, columns []string, values []any, where sqlbuilder.Pairs) (int64, error) {
	q, args := sqlbuilder.Update(table, columns, values, where)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Delete removes all rows matching where and returns the affected row count.
func (s *Store) Delete(ctx context.Context, table string, where sqlbuilder.Pairs) (int64, error) {
	q, args := sqlbuilder.Delete(table, where)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
// Postgres reports SQLSTATE 23505; the text check covers other drivers'
// phrasing (sqlite in particular).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
