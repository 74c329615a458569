// Package repo provides data access for guestbook messages and upvotes on
// top of the generic store and statement builder.
package repo

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/domain"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/message/entity"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/sqlbuilder"
)

type MessageRepo struct {
	store *database.Store
}

func NewMessageRepo(store *database.Store) *MessageRepo {
	return &MessageRepo{store: store}
}

func rowToMessage(row database.Row) entity.Message {
	m := entity.Message{
		ID:        database.AsInt64(row["id"]),
		Body:      database.AsString(row["message"]),
		CreatedAt: database.AsTime(row["created_at"]),
	}
	if v, ok := row["user_id"]; ok {
		m.UserID = database.AsInt64(v)
	}
	if v, ok := row["private"]; ok {
		m.Private = database.AsBool(v)
	}
	return m
}

// visibleTo is the shared visibility predicate: public rows, or private rows
// owned by the requester.
func visibleTo(requesterID int64) (where, orWhere sqlbuilder.Pairs) {
	where = sqlbuilder.Pairs{{Column: "private", Value: false}}
	orWhere = sqlbuilder.Pairs{
		{Column: "private", Value: true},
		{Column: "user_id", Value: requesterID},
	}
	return where, orWhere
}

// VisibleTo lists messages the requester may read, newest rows up to limit.
func (r *MessageRepo) VisibleTo(ctx context.Context, requesterID int64, limit int) ([]entity.Message, error) {
	where, orWhere := visibleTo(requesterID)
	rows, err := r.store.Select(ctx, "guestbook",
		[]string{"id", "message", "created_at"},
		sqlbuilder.SelectOpts{Limit: limit, Where: where, OrWhere: orWhere})
	if err != nil {
		return nil, err
	}
	out := make([]entity.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToMessage(row))
	}
	return out, nil
}

// SearchVisibleTo lists readable messages whose body contains pattern.
// The predicate grouping follows the historical composition in
// sqlbuilder.Select (contains AND (where OR or_where)).
func (r *MessageRepo) SearchVisibleTo(ctx context.Context, requesterID int64, pattern string, limit int) ([]entity.Message, error) {
	where, orWhere := visibleTo(requesterID)
	rows, err := r.store.Select(ctx, "guestbook",
		[]string{"id", "message", "created_at"},
		sqlbuilder.SelectOpts{
			Limit:    limit,
			Where:    where,
			OrWhere:  orWhere,
			Contains: sqlbuilder.Pairs{{Column: "message", Value: pattern}},
		})
	if err != nil {
		return nil, err
	}
	out := make([]entity.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToMessage(row))
	}
	return out, nil
}

// ByID fetches a full message row, or domain.ErrNotFound.
func (r *MessageRepo) ByID(ctx context.Context, id int64) (*entity.Message, error) {
	row, err := r.store.GetOne(ctx, "guestbook",
		[]string{"id", "user_id", "message", "created_at", "private"},
		sqlbuilder.Pairs{{Column: "id", Value: id}})
	if err != nil {
		return nil, err
	}
	m := rowToMessage(row)
	return &m, nil
}

// Create inserts a message and returns the new id.
func (r *MessageRepo) Create(ctx context.Context, userID int64, body string, private bool) (int64, error) {
	return r.store.Insert(ctx, "guestbook",
		[]string{"message", "user_id", "private"},
		[]any{body, userID, private})
}

// UpdateByID writes body and visibility. Ownership is checked by the caller.
func (r *MessageRepo) UpdateByID(ctx context.Context, id int64, body string, private bool) (int64, error) {
	return r.store.Update(ctx, "guestbook",
		[]string{"message", "private"},
		[]any{body, private},
		sqlbuilder.Pairs{{Column: "id", Value: id}})
}

// DeleteOwned deletes a message scoped to (id AND owner), so a non-owner's
// attempt matches nothing instead of revealing the row exists.
func (r *MessageRepo) DeleteOwned(ctx context.Context, id, ownerID int64) (int64, error) {
	return r.store.Delete(ctx, "guestbook", sqlbuilder.Pairs{
		{Column: "id", Value: id},
		{Column: "user_id", Value: ownerID},
	})
}

// HasUpvote reports whether the user already upvoted the message.
func (r *MessageRepo) HasUpvote(ctx context.Context, messageID, userID int64) (bool, error) {
	_, err := r.store.GetOne(ctx, "upvotes",
		[]string{"id"},
		sqlbuilder.Pairs{
			{Column: "message_id", Value: messageID},
			{Column: "user_id", Value: userID},
		})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateUpvote inserts an upvote row; the unique (message_id, user_id) index
// turns a duplicate into domain.ErrConflict.
func (r *MessageRepo) CreateUpvote(ctx context.Context, messageID, userID int64) (int64, error) {
	return r.store.Insert(ctx, "upvotes",
		[]string{"user_id", "message_id"},
		[]any{userID, messageID})
}

// TopMessages reads the top_messages view.
func (r *MessageRepo) TopMessages(ctx context.Context) ([]entity.TopMessage, error) {
	rows, err := r.store.Select(ctx, "top_messages",
		[]string{"id", "message", "n_upvotes"},
		sqlbuilder.SelectOpts{})
	if err != nil {
		return nil, err
	}
	out := make([]entity.TopMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.TopMessage{
			ID:      database.AsInt64(row["id"]),
			Body:    database.AsString(row["message"]),
			Upvotes: database.AsInt64(row["n_upvotes"]),
		})
	}
	return out, nil
}
