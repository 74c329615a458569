package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/domain"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/mailer"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/pkg/utilities"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 16
)

// Repository is the data access needed by the account service.
type Repository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (int64, error)
	CreateToken(ctx context.Context, token string, userID int64) (int64, error)
	TokenByValue(ctx context.Context, token string) (*entity.ActivationToken, error)
	UserActive(ctx context.Context, userID int64) (bool, error)
	Activate(ctx context.Context, userID int64, at time.Time) (int64, error)
	CredentialsByEmail(ctx context.Context, email string) (*entity.User, error)
}

// PasswordHasher is abstract so the implementation can be swapped later.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Service orchestrates registration, activation and credential checks.
type Service struct {
	logger *zap.SugaredLogger
	repo   Repository
	mail   mailer.Sender
	hasher PasswordHasher
}

func NewService(logger *zap.SugaredLogger, repo Repository, mail mailer.Sender, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{logger: logger, repo: repo, mail: mail, hasher: hasher}
}

// Register creates an inactive user plus an activation token and mails the
// activation link. The user and token are committed before the mail goes
// out; a delivery failure returns domain.DeliveryError carrying the URL so
// the caller can surface it as a fallback.
func (s *Service) Register(ctx context.Context, email, password, baseURL string) (string, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("email %q: %w", email, domain.ErrValidation)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return "", fmt.Errorf("password length: %w", domain.ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	userID, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		return "", err
	}

	token := utilities.NewActivationToken()
	if _, err := s.repo.CreateToken(ctx, token, userID); err != nil {
		return "", err
	}

	activationURL := baseURL + "/activate?token=" + token
	if err := s.mail.Send(email, "Guestbook account activation",
		"Please activate your account by going to this link: "+activationURL); err != nil {
		s.logger.Warnw("activation mail failed", "email", email, "err", err)
		return activationURL, &domain.DeliveryError{ActivationURL: activationURL, Err: err}
	}

	s.logger.Infow("user registered", "user_id", userID)
	return activationURL, nil
}

// Activate exchanges a token for the pending→active transition. The token
// row itself stays valid after use; a second attempt is rejected because the
// account is no longer pending.
func (s *Service) Activate(ctx context.Context, token string) (int64, error) {
	tok, err := s.repo.TokenByValue(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("token lookup: %w", err)
	}

	active, err := s.repo.UserActive(ctx, tok.UserID)
	if err != nil {
		return 0, err
	}
	if active {
		return 0, fmt.Errorf("user %d already activated: %w", tok.UserID, domain.ErrConflict)
	}

	n, err := s.repo.Activate(ctx, tok.UserID, time.Now())
	if err != nil {
		return 0, err
	}
	s.logger.Infow("user activated", "user_id", tok.UserID)
	return n, nil
}

// Authenticate validates basic-auth credentials against the stored hash.
// Inactive accounts fail regardless of password correctness, and every
// failure mode collapses into ErrBadCredentials to avoid enumeration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (int64, error) {
	u, err := s.repo.CredentialsByEmail(ctx, email)
	if err != nil {
		return 0, domain.ErrBadCredentials
	}
	if !u.Active {
		return 0, domain.ErrBadCredentials
	}
	if !s.hasher.Verify(u.Password, password) {
		return 0, domain.ErrBadCredentials
	}
	return u.ID, nil
}
