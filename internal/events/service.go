package events

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

// EventStore is the persistence needed for events.
// Satisfied by docstore.Collection[models.Event].
type EventStore interface {
	Create(ctx context.Context, id string, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, id string, mutate func(*models.Event) error) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// Service handles the direct event path (Faculty/Admin created events).
// Materialized events arrive through the event request workflow and are
// managed here once they exist.
type Service struct {
	store  EventStore
	notify realtime.Publisher
	now    func() time.Time
}

// NewService creates the events service.
func NewService(store EventStore, notify realtime.Publisher) *Service {
	return &Service{store: store, notify: notify, now: time.Now}
}

// CreateInput is the data for direct event creation.
type CreateInput struct {
	Name          string
	Date          string
	Time          string
	Venue         string
	Description   string
	Category      models.EventCategory
	Capacity      int
	Prerequisites string
	CoverImage    string
}

// Create publishes a new event directly. Faculty/Admin only; students must
// go through the event request workflow.
func (s *Service) Create(ctx context.Context, identity models.Identity, in CreateInput) (*models.Event, error) {
	if !policy.CanCreateEvent(identity) {
		return nil, apperr.Forbidden("only faculty and admin can create events directly")
	}
	if in.Name == "" || in.Date == "" {
		return nil, apperr.Invalid("event name and date are required")
	}
	category := in.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		return nil, apperr.Invalid("invalid category")
	}

	now := s.now()
	event := &models.Event{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Date:          in.Date,
		Time:          in.Time,
		Venue:         in.Venue,
		Description:   in.Description,
		Category:      category,
		Capacity:      in.Capacity,
		Prerequisites: in.Prerequisites,
		CoverImage:    in.CoverImage,
		CreatedBy:     identity.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, event.ID, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.notify.Broadcast("notify", models.Notification{
		Title:       "New Event",
		Description: fmt.Sprintf("%s on %s", event.Name, event.Date),
	})
	return event, nil
}

// List returns all events, upcoming first (date ascending, then newest).
func (s *Service) List(ctx context.Context) ([]*models.Event, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// UpdateInput carries optional field updates; nil leaves a field unchanged.
type UpdateInput struct {
	Name          *string
	Date          *string
	Time          *string
	Venue         *string
	Description   *string
	Category      *models.EventCategory
	Capacity      *int
	Prerequisites *string
	CoverImage    *string
}

// Update changes event fields. Creator, Faculty, or Admin.
func (s *Service) Update(ctx context.Context, identity models.Identity, eventID string, in UpdateInput) (*models.Event, error) {
	current, err := s.store.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !policy.CanMutateEvent(identity, current) {
		return nil, apperr.Forbidden("not allowed to update this event")
	}
	if in.Category != nil && !in.Category.Valid() {
		return nil, apperr.Invalid("invalid category")
	}

	updated, err := s.store.Update(ctx, eventID, func(e *models.Event) error {
		if in.Name != nil {
			e.Name = *in.Name
		}
		if in.Date != nil {
			e.Date = *in.Date
		}
		if in.Time != nil {
			e.Time = *in.Time
		}
		if in.Venue != nil {
			e.Venue = *in.Venue
		}
		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.Category != nil {
			e.Category = *in.Category
		}
		if in.Capacity != nil {
			e.Capacity = *in.Capacity
		}
		if in.Prerequisites != nil {
			e.Prerequisites = *in.Prerequisites
		}
		if in.CoverImage != nil {
			e.CoverImage = *in.CoverImage
		}
		e.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.notify.Broadcast("notify", models.Notification{
		Title:       "Event Updated",
		Description: updated.Name,
	})
	return updated, nil
}

// Delete removes an event. Creator, Faculty, or Admin.
func (s *Service) Delete(ctx context.Context, identity models.Identity, eventID string) error {
	current, err := s.store.GetByID(ctx, eventID)
	if err != nil {
		return storeErr(err)
	}
	if !policy.CanMutateEvent(identity, current) {
		return apperr.Forbidden("not allowed to delete this event")
	}
	if err := s.store.Delete(ctx, eventID); err != nil {
		return storeErr(err)
	}

	s.notify.Broadcast("notify", models.Notification{
		Title:       "Event Cancelled",
		Description: current.Name,
	})
	return nil
}

func storeErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("event not found")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("event store: %w", err)
}
