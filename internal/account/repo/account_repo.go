// Package repo provides data access for users and activation tokens on top
// of the generic store and statement builder.
package repo

import (
	"context"
	"time"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/sqlbuilder"
)

type AccountRepo struct {
	store *database.Store
}

func NewAccountRepo(store *database.Store) *AccountRepo {
	return &AccountRepo{store: store}
}

// CreateUser inserts an inactive user and returns the new id. A duplicate
// email surfaces as domain.ErrConflict from the store.
func (r *AccountRepo) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	return r.store.Insert(ctx, "users",
		[]string{"email", "password"},
		[]any{email, passwordHash})
}

// CreateToken inserts an activation token for the given user.
func (r *AccountRepo) CreateToken(ctx context.Context, token string, userID int64) (int64, error) {
	return r.store.Insert(ctx, "tokens",
		[]string{"token", "user_id"},
		[]any{token, userID})
}

// TokenByValue looks up a token row, or domain.ErrNotFound.
func (r *AccountRepo) TokenByValue(ctx context.Context, token string) (*entity.ActivationToken, error) {
	row, err := r.store.GetOne(ctx, "tokens",
		[]string{"token", "user_id"},
		sqlbuilder.Pairs{{Column: "token", Value: token}})
	if err != nil {
		return nil, err
	}
	return &entity.ActivationToken{
		Token:  database.AsString(row["token"]),
		UserID: database.AsInt64(row["user_id"]),
	}, nil
}

// UserActive reports the active flag for a user id.
func (r *AccountRepo) UserActive(ctx context.Context, userID int64) (bool, error) {
	row, err := r.store.GetOne(ctx, "users",
		[]string{"active"},
		sqlbuilder.Pairs{{Column: "id", Value: userID}})
	if err != nil {
		return false, err
	}
	return database.AsBool(row["active"]), nil
}

// Activate flips the active flag and stamps activated_at. Returns the
// affected row count.
func (r *AccountRepo) Activate(ctx context.Context, userID int64, at time.Time) (int64, error) {
	return r.store.Update(ctx, "users",
		[]string{"active", "activated_at"},
		[]any{true, at},
		sqlbuilder.Pairs{{Column: "id", Value: userID}})
}

// CredentialsByEmail returns the fields needed for basic-auth validation.
func (r *AccountRepo) CredentialsByEmail(ctx context.Context, email string) (*entity.User, error) {
	row, err := r.store.GetOne(ctx, "users",
		[]string{"id", "password", "active"},
		sqlbuilder.Pairs{{Column: "email", Value: email}})
	if err != nil {
		return nil, err
	}
	return &entity.User{
		ID:       database.AsInt64(row["id"]),
		Email:    email,
		Password: database.AsString(row["password"]),
		Active:   database.AsBool(row["active"]),
	}, nil
}

// DeleteTokensForUser removes all tokens owned by a user. Activation does
// not call this today; re-activation is blocked by the active-state check.
func (r *AccountRepo) DeleteTokensForUser(ctx context.Context, userID int64) (int64, error) {
	return r.store.Delete(ctx, "tokens",
		sqlbuilder.Pairs{{Column: "user_id", Value: userID}})
}
