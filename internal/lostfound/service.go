package lostfound

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

// ItemStore is the persistence needed by the lost & found workflow.
// Satisfied by docstore.Collection[models.Item].
type ItemStore interface {
	Create(ctx context.Context, id string, item *models.Item) error
	GetByID(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context) ([]*models.Item, error)
	Update(ctx context.Context, id string, mutate func(*models.Item) error) (*models.Item, error)
}

// UserDirectory resolves user ids to profiles for listing projections.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service owns the item status state machine and the claim-proof gate.
type Service struct {
	store       ItemStore
	users       UserDirectory
	notify      realtime.Publisher
	transitions Transitions
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates the lost & found workflow service.
func NewService(store ItemStore, users UserDirectory, notify realtime.Publisher, transitions Transitions, logger *zap.Logger) *Service {
	if transitions == nil {
		transitions = DefaultTransitions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		users:       users,
		notify:      notify,
		transitions: transitions,
		logger:      logger,
		now:         time.Now,
	}
}

// ReportInput is the data for reporting a new item.
type ReportInput struct {
	Name        string
	Description string
	Location    string
	Status      models.ItemStatus
	Geo         *models.GeoPoint
	OccurredAt  *time.Time
	ImageData   string
}

// Report creates a new item. Defaults: status lost, location
// "Unknown location", occurredAt now.
func (s *Service) Report(ctx context.Context, identity models.Identity, in ReportInput) (*models.Item, error) {
	if !policy.CanReportItem(identity) {
		return nil, apperr.Forbidden("not allowed to report items")
	}
	if in.Name == "" {
		return nil, apperr.Invalid("item name is required")
	}

	status := in.Status
	if status == "" {
		status = models.ItemLost
	}
	if status != models.ItemLost && status != models.ItemFound {
		return nil, apperr.Invalid("new items must start as lost or found")
	}

	location := in.Location
	if location == "" {
		location = "Unknown location"
	}

	now := s.now()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}

	item := &models.Item{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Location:    location,
		Geo:         in.Geo,
		Status:      status,
		ReportedBy:  identity.ID,
		OccurredAt:  occurredAt,
		ImageData:   in.ImageData,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, item.ID, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.notify.Broadcast("notify", models.Notification{
		Title:       "New Lost/Found Report",
		Description: fmt.Sprintf("%s (%s)", item.Name, item.Status),
	})
	return item, nil
}

// UpdateInput is the data for a status change or field update.
// Status may be empty to update only the optional fields.
type UpdateInput struct {
	Status     models.ItemStatus
	ClaimImage string
	ClaimNotes string
	Location   string
	ImageData  string
	OccurredAt *time.Time
}

// SetStatus transitions an item, enforcing ownership and the claim gate.
// Authorization is checked before state-machine legality.
func (s *Service) SetStatus(ctx context.Context, identity models.Identity, itemID string, in UpdateInput) (*models.Item, error) {
	current, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return nil, storeErr(err, "item")
	}
	if !policy.CanMutateItem(identity, current) {
		return nil, apperr.Forbidden("only the reporter or an admin can update this item")
	}

	updated, err := s.store.Update(ctx, itemID, func(item *models.Item) error {
		if in.Status != "" {
			if !in.Status.Valid() {
				return apperr.Invalid("invalid status")
			}
			if !s.transitions.Allowed(item.Status, in.Status) {
				return apperr.Conflict(fmt.Sprintf("transition %s -> %s not allowed", item.Status, in.Status))
			}
			if in.Status == models.ItemClaimed {
				if in.ClaimImage == "" {
					return apperr.Invalid("claim image required")
				}
				claimedAt := s.now()
				claimer := identity.ID
				item.ClaimedBy = &claimer
				item.ClaimedAt = &claimedAt
				item.ClaimImage = in.ClaimImage
				item.ClaimNotes = in.ClaimNotes
			}
			item.Status = in.Status
		}
		if in.Location != "" {
			item.Location = in.Location
		}
		if in.ImageData != "" {
			item.ImageData = in.ImageData
		}
		if in.OccurredAt != nil {
			item.OccurredAt = *in.OccurredAt
		}
		item.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "item")
	}

	title := "Item Updated"
	if updated.Status == models.ItemClaimed && in.Status == models.ItemClaimed {
		title = "Item Claimed!"
	}
	s.notify.Broadcast("notify", models.Notification{
		Title:       title,
		Description: fmt.Sprintf("%s is now %s", updated.Name, updated.Status),
	})
	return updated, nil
}

// List returns all items newest-first with reporter/claimer summaries
// attached. Read-only; no side effects.
func (s *Service) List(ctx context.Context) ([]models.ItemView, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		view := models.ItemView{Item: *item}
		view.Reporter = s.lookup(ctx, item.ReportedBy)
		if item.ClaimedBy != nil {
			view.Claimer = s.lookup(ctx, *item.ClaimedBy)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) *models.UserSummary {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	summary := user.Summary()
	return &summary
}

// storeErr maps docstore errors onto the workflow taxonomy.
func storeErr(err error, what string) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("update %s: %w", what, err)
}
