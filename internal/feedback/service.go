package feedback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/internal/policy"
	"github.com/campushub/backend/internal/realtime"
	"github.com/campushub/backend/pkg/apperr"
	"github.com/campushub/backend/pkg/docstore"
)

// FeedbackStore is the persistence needed for feedback entries.
// Satisfied by docstore.Collection[models.Feedback].
type FeedbackStore interface {
	Create(ctx context.Context, id string, fb *models.Feedback) error
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	List(ctx context.Context) ([]*models.Feedback, error)
	Update(ctx context.Context, id string, mutate func(*models.Feedback) error) (*models.Feedback, error)
}

// UserDirectory resolves user ids to profiles for listing projections.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service handles feedback submission and triage.
type Service struct {
	store  FeedbackStore
	users  UserDirectory
	notify realtime.Publisher
	now    func() time.Time
}

// NewService creates the feedback service.
func NewService(store FeedbackStore, users UserDirectory, notify realtime.Publisher) *Service {
	return &Service{store: store, users: users, notify: notify, now: time.Now}
}

// Submit records feedback from any authenticated user.
func (s *Service) Submit(ctx context.Context, identity models.Identity, subject, message string) (*models.Feedback, error) {
	if subject == "" || message == "" {
		return nil, apperr.Invalid("subject and message are required")
	}

	now := s.now()
	fb := &models.Feedback{
		ID:          uuid.NewString(),
		Subject:     subject,
		Message:     message,
		Status:      models.FeedbackPending,
		SubmittedBy: identity.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, fb.ID, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.notify.Broadcast("notify", models.Notification{
		Title:       "New Feedback",
		Description: fb.Subject,
	})
	return fb, nil
}

// List returns all feedback newest-first with submitter summaries.
// Admin only.
func (s *Service) List(ctx context.Context, identity models.Identity) ([]models.FeedbackView, error) {
	if !policy.CanManageFeedback(identity) {
		return nil, apperr.Forbidden("only admin can view feedback")
	}

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	views := make([]models.FeedbackView, 0, len(all))
	for _, fb := range all {
		view := models.FeedbackView{Feedback: *fb}
		if user, err := s.users.GetByID(ctx, fb.SubmittedBy); err == nil {
			summary := user.Summary()
			view.Submitter = &summary
		}
		views = append(views, view)
	}
	return views, nil
}

// SetStatus moves a feedback entry between pending and resolved. Admin only.
func (s *Service) SetStatus(ctx context.Context, identity models.Identity, feedbackID string, status models.FeedbackStatus) (*models.Feedback, error) {
	if !policy.CanManageFeedback(identity) {
		return nil, apperr.Forbidden("only admin can update feedback")
	}
	if !status.Valid() {
		return nil, apperr.Invalid("status must be pending or resolved")
	}

	updated, err := s.store.Update(ctx, feedbackID, func(fb *models.Feedback) error {
		fb.Status = status
		fb.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFound("feedback not found")
		}
		return nil, fmt.Errorf("update feedback: %w", err)
	}

	s.notify.Broadcast("notify", models.Notification{
		Title:       "Feedback Updated",
		Description: fmt.Sprintf("%s → %s", updated.Subject, updated.Status),
	})
	return updated, nil
}
