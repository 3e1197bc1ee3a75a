package eventrequests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/internal/policy"
	"github.com/campushub/backend/internal/realtime"
	"github.com/campushub/backend/pkg/apperr"
	"github.com/campushub/backend/pkg/docstore"
)

// RequestStore is the persistence needed for event requests.
// Satisfied by docstore.Collection[models.EventRequest].
type RequestStore interface {
	Create(ctx context.Context, id string, req *models.EventRequest) error
	GetByID(ctx context.Context, id string) (*models.EventRequest, error)
	List(ctx context.Context) ([]*models.EventRequest, error)
	Update(ctx context.Context, id string, mutate func(*models.EventRequest) error) (*models.EventRequest, error)
	Delete(ctx context.Context, id string) error
}

// EventStore is the slice of event persistence the approval path needs.
type EventStore interface {
	Create(ctx context.Context, id string, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves user ids to profiles for listing projections.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service owns the request state machine (pending -> approved|rejected,
// both terminal) and the request -> event materialization.
type Service struct {
	requests RequestStore
	events   EventStore
	users    UserDirectory
	notify   realtime.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the event request workflow service.
func NewService(requests RequestStore, events EventStore, users UserDirectory, notify realtime.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		requests: requests,
		events:   events,
		users:    users,
		notify:   notify,
		logger:   logger,
		now:      time.Now,
	}
}

// SubmitInput is the data for a new event request.
type SubmitInput struct {
	EventName     string
	Date          string
	Time          string
	Venue         string
	Description   string
	Category      models.EventCategory
	Capacity      int
	Prerequisites string
	CoverImage    string
}

// Submit creates a pending request. Students only.
func (s *Service) Submit(ctx context.Context, identity models.Identity, in SubmitInput) (*models.EventRequest, error) {
	if !policy.CanSubmitEventRequest(identity) {
		return nil, apperr.Forbidden("only students can submit event requests")
	}
	if in.EventName == "" {
		return nil, apperr.Invalid("event name is required")
	}
	if in.Date == "" {
		return nil, apperr.Invalid("date is required")
	}
	category := in.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		return nil, apperr.Invalid("invalid category")
	}

	now := s.now()
	req := &models.EventRequest{
		ID:            uuid.NewString(),
		EventName:     in.EventName,
		Date:          in.Date,
		Time:          in.Time,
		Venue:         in.Venue,
		Description:   in.Description,
		Category:      category,
		Capacity:      in.Capacity,
		Prerequisites: in.Prerequisites,
		CoverImage:    in.CoverImage,
		RequestedBy:   identity.ID,
		Status:        models.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.requests.Create(ctx, req.ID, req); err != nil {
		return nil, fmt.Errorf("create event request: %w", err)
	}
	return req, nil
}

// Decision is the outcome of a review.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ReviewResult carries the reviewed request and, on approval, the
// materialized event.
type ReviewResult struct {
	Request *models.EventRequest
	Event   *models.Event
}

// Review applies a one-shot approve or reject. The pending guard is
// re-checked inside the store's optimistic update, so of two racing
// reviewers exactly one wins and the other observes Conflict.
func (s *Service) Review(ctx context.Context, identity models.Identity, requestID string, decision Decision, notes string) (*ReviewResult, error) {
	if !policy.CanReviewEventRequest(identity) {
		return nil, apperr.Forbidden("only faculty and admin can review event requests")
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "event request")
	}
	if current.Status != models.RequestPending {
		return nil, apperr.Conflict("event request has already been reviewed")
	}

	switch decision {
	case DecisionApprove:
		return s.approve(ctx, identity, current, notes)
	case DecisionReject:
		return s.reject(ctx, identity, requestID, notes)
	default:
		return nil, apperr.Invalid("decision must be approve or reject")
	}
}

// approve materializes the event first, then flips the request. The store
// has no cross-collection transactions, so a lost race is compensated by
// deleting the just-created event, and a failed request write after a
// successful event write is surfaced as Fatal (orphaned event).
func (s *Service) approve(ctx context.Context, identity models.Identity, req *models.EventRequest, notes string) (*ReviewResult, error) {
	now := s.now()
	event := &models.Event{
		ID:            uuid.NewString(),
		Name:          req.EventName,
		Date:          req.Date,
		Time:          req.Time,
		Venue:         req.Venue,
		Description:   req.Description,
		Category:      req.Category,
		Capacity:      req.Capacity,
		Prerequisites: req.Prerequisites,
		CoverImage:    req.CoverImage,
		CreatedBy:     req.RequestedBy, // ownership stays with the requester
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.events.Create(ctx, event.ID, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	reviewer := identity.ID
	updated, err := s.requests.Update(ctx, req.ID, func(r *models.EventRequest) error {
		if r.Status != models.RequestPending {
			return apperr.Conflict("event request has already been reviewed")
		}
		r.Status = models.RequestApproved
		r.ReviewedBy = &reviewer
		r.ReviewedAt = &now
		r.ReviewNotes = notes
		r.EventID = event.ID
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			// Lost the race: another reviewer committed first. Remove the
			// event we materialized so it does not dangle.
			if delErr := s.events.Delete(ctx, event.ID); delErr != nil {
				s.logger.Error("failed to remove event after lost review race",
					zap.String("event_id", event.ID), zap.Error(delErr))
			}
			return nil, err
		}
		s.logger.Error("event created but request update failed, manual reconciliation required",
			zap.String("request_id", req.ID),
			zap.String("orphaned_event_id", event.ID),
			zap.Error(err))
		return nil, apperr.Fatal(fmt.Sprintf("event %s created but request update failed", event.ID), err)
	}

	s.notify.SendToUser(req.RequestedBy, "event-request-approved", approvedPayload{
		Message:      fmt.Sprintf("Your event %q has been approved!", updated.EventName),
		EventRequest: *updated,
		Event:        *event,
	})
	return &ReviewResult{Request: updated, Event: event}, nil
}

// approvedPayload is the targeted notification sent to the requester.
type approvedPayload struct {
	Message      string              `json:"message"`
	EventRequest models.EventRequest `json:"event_request"`
	Event        models.Event        `json:"event"`
}

// rejectedPayload is the targeted notification sent to the requester.
type rejectedPayload struct {
	Message      string              `json:"message"`
	EventRequest models.EventRequest `json:"event_request"`
}

func (s *Service) reject(ctx context.Context, identity models.Identity, requestID, notes string) (*ReviewResult, error) {
	if notes == "" {
		notes = "Request rejected"
	}
	now := s.now()
	reviewer := identity.ID
	updated, err := s.requests.Update(ctx, requestID, func(r *models.EventRequest) error {
		if r.Status != models.RequestPending {
			return apperr.Conflict("event request has already been reviewed")
		}
		r.Status = models.RequestRejected
		r.ReviewedBy = &reviewer
		r.ReviewedAt = &now
		r.ReviewNotes = notes
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "event request")
	}

	s.notify.SendToUser(updated.RequestedBy, "event-request-rejected", rejectedPayload{
		Message:      fmt.Sprintf("Your event request %q was rejected", updated.EventName),
		EventRequest: *updated,
	})
	return &ReviewResult{Request: updated}, nil
}

// ListForCaller returns requests visible to the caller: Students see only
// their own; Faculty/Admin see all, optionally filtered by status.
// Newest-first, with requester/reviewer summaries attached.
func (s *Service) ListForCaller(ctx context.Context, identity models.Identity, statusFilter models.RequestStatus) ([]models.EventRequestView, error) {
	if statusFilter != "" && !statusFilter.Valid() {
		return nil, apperr.Invalid("invalid status filter")
	}

	all, err := s.requests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list event requests: %w", err)
	}

	filtered := make([]*models.EventRequest, 0, len(all))
	for _, r := range all {
		if identity.Role == models.RoleStudent && r.RequestedBy != identity.ID {
			continue
		}
		if statusFilter != "" && r.Status != statusFilter {
			continue
		}
		filtered = append(filtered, r)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	views := make([]models.EventRequestView, 0, len(filtered))
	for _, r := range filtered {
		view := models.EventRequestView{EventRequest: *r}
		view.Requester = s.lookup(ctx, r.RequestedBy)
		if r.ReviewedBy != nil {
			view.Reviewer = s.lookup(ctx, *r.ReviewedBy)
		}
		views = append(views, view)
	}
	return views, nil
}

// DeleteOwnPending removes a request: requester only, pending only.
func (s *Service) DeleteOwnPending(ctx context.Context, identity models.Identity, requestID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return storeErr(err, "event request")
	}
	if req.RequestedBy != identity.ID {
		return apperr.Forbidden("not authorized to delete this request")
	}
	if req.Status != models.RequestPending {
		return apperr.Conflict("cannot delete a reviewed request")
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		return storeErr(err, "event request")
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) *models.UserSummary {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	summary := user.Summary()
	return &summary
}

func storeErr(err error, what string) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s store: %w", what, err)
}
