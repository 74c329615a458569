package message

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/domain"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/message/entity"
)

const (
	defaultListNum   = 3
	defaultSearchNum = 10
)

// Repository is the data access needed by the message service.
type Repository interface {
	VisibleTo(ctx context.Context, requesterID int64, limit int) ([]entity.Message, error)
	SearchVisibleTo(ctx context.Context, requesterID int64, pattern string, limit int) ([]entity.Message, error)
	ByID(ctx context.Context, id int64) (*entity.Message, error)
	Create(ctx context.Context, userID int64, body string, private bool) (int64, error)
	UpdateByID(ctx context.Context, id int64, body string, private bool) (int64, error)
	DeleteOwned(ctx context.Context, id, ownerID int64) (int64, error)
	HasUpvote(ctx context.Context, messageID, userID int64) (bool, error)
	CreateUpvote(ctx context.Context, messageID, userID int64) (int64, error)
	TopMessages(ctx context.Context) ([]entity.TopMessage, error)
}

// Service enforces ownership, visibility and upvote rules on top of the
// repository.
type Service struct {
	logger *zap.SugaredLogger
	repo   Repository
}

func NewService(logger *zap.SugaredLogger, repo Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

// List returns messages readable by the requester, capped at num (default 3).
func (s *Service) List(ctx context.Context, requesterID int64, num int) ([]entity.Message, error) {
	if num <= 0 {
		num = defaultListNum
	}
	return s.repo.VisibleTo(ctx, requesterID, num)
}

// Search returns readable messages matching the substring pattern, capped at
// num (default 10).
func (s *Service) Search(ctx context.Context, requesterID int64, pattern string, num int) ([]entity.Message, error) {
	if pattern == "" {
		return nil, fmt.Errorf("search pattern: %w", domain.ErrValidation)
	}
	if num <= 0 {
		num = defaultSearchNum
	}
	return s.repo.SearchVisibleTo(ctx, requesterID, pattern, num)
}

// Get returns one message if the requester may read it: public, or private
// and owned by the requester.
func (s *Service) Get(ctx context.Context, requesterID, id int64) (*entity.Message, error) {
	m, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Private && m.UserID != requesterID {
		return nil, fmt.Errorf("message %d: %w", id, domain.ErrForbidden)
	}
	return m, nil
}

// Create stores a new message owned by the requester.
func (s *Service) Create(ctx context.Context, requesterID int64, body string, private bool) (int64, error) {
	if body == "" {
		return 0, fmt.Errorf("message body: %w", domain.ErrValidation)
	}
	id, err := s.repo.Create(ctx, requesterID, body, private)
	if err != nil {
		return 0, err
	}
	s.logger.Debugw("message created", "message_id", id, "user_id", requesterID)
	return id, nil
}

// Update rewrites body and visibility; only the owner may do so.
func (s *Service) Update(ctx context.Context, requesterID, id int64, body string, private bool) (int64, error) {
	m, err := s.repo.ByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if m.UserID != requesterID {
		return 0, fmt.Errorf("message %d: %w", id, domain.ErrForbidden)
	}
	return s.repo.UpdateByID(ctx, id, body, private)
}

// Delete removes a message. The row match is scoped to (id AND owner), so a
// non-owner gets the same not-found outcome as a missing id.
func (s *Service) Delete(ctx context.Context, requesterID, id int64) (int64, error) {
	n, err := s.repo.DeleteOwned(ctx, id, requesterID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

// Upvote records the requester's vote. Rejected when the message is missing,
// owned by the requester, private, or already upvoted by them.
func (s *Service) Upvote(ctx context.Context, requesterID, id int64) error {
	m, err := s.repo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if m.UserID == requesterID || m.Private {
		return fmt.Errorf("message %d: %w", id, domain.ErrForbidden)
	}

	voted, err := s.repo.HasUpvote(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if voted {
		return fmt.Errorf("message %d already upvoted: %w", id, domain.ErrConflict)
	}

	// the unique (message_id, user_id) index still backs this up with
	// ErrConflict under concurrent votes
	if _, err := s.repo.CreateUpvote(ctx, id, requesterID); err != nil {
		return err
	}
	s.logger.Debugw("message upvoted", "message_id", id, "user_id", requesterID)
	return nil
}

// MostUpvoted returns the public leaderboard.
func (s *Service) MostUpvoted(ctx context.Context) ([]entity.TopMessage, error) {
	return s.repo.TopMessages(ctx)
}
