package lostfound

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/apperr"
	"github.com/campushub/backend/pkg/docstore"
)

type fakeItemStore struct {
	items map[string]*models.Item
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[string]*models.Item)}
}

func (f *fakeItemStore) Create(_ context.Context, id string, item *models.Item) error {
	copied := *item
	f.items[id] = &copied
	return nil
}

func (f *fakeItemStore) GetByID(_ context.Context, id string) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemStore) List(_ context.Context) ([]*models.Item, error) {
	out := make([]*models.Item, 0, len(f.items))
	for _, item := range f.items {
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

// Update mirrors the real store: mutate a copy, persist only on success.
func (f *fakeItemStore) Update(_ context.Context, id string, mutate func(*models.Item) error) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	copied := *item
	if err := mutate(&copied); err != nil {
		return nil, err
	}
	f.items[id] = &copied
	result := copied
	return &result, nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, docstore.ErrNotFound
}

type capturedEvent struct {
	event   string
	payload interface{}
	userID  uuid.UUID
}

type capturePublisher struct {
	broadcasts []capturedEvent
	targeted   []capturedEvent
}

func (p *capturePublisher) Broadcast(event string, payload interface{}) {
	p.broadcasts = append(p.broadcasts, capturedEvent{event: event, payload: payload})
}

func (p *capturePublisher) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	p.targeted = append(p.targeted, capturedEvent{event: event, payload: payload, userID: userID})
}

func (p *capturePublisher) lastBroadcast(t *testing.T) models.Notification {
	t.Helper()
	if len(p.broadcasts) == 0 {
		t.Fatal("expected a broadcast")
	}
	n, ok := p.broadcasts[len(p.broadcasts)-1].payload.(models.Notification)
	if !ok {
		t.Fatalf("broadcast payload is %T, not Notification", p.broadcasts[len(p.broadcasts)-1].payload)
	}
	return n
}

func newTestService() (*Service, *fakeItemStore, *capturePublisher) {
	store := newFakeItemStore()
	pub := &capturePublisher{}
	users := &fakeUsers{users: make(map[uuid.UUID]*models.User)}
	svc := NewService(store, users, pub, DefaultTransitions(), nil)
	return svc, store, pub
}

func TestReportDefaults(t *testing.T) {
	svc, _, pub := newTestService()
	reporter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}

	item, err := svc.Report(context.Background(), reporter, ReportInput{Name: "Blue Wallet"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if item.Status != models.ItemLost {
		t.Errorf("expected default status lost, got %s", item.Status)
	}
	if item.Location != "Unknown location" {
		t.Errorf("expected default location, got %q", item.Location)
	}
	if item.OccurredAt.IsZero() {
		t.Error("expected occurredAt to default to now")
	}
	if item.ReportedBy != reporter.ID {
		t.Error("reporter not recorded")
	}

	n := pub.lastBroadcast(t)
	if n.Title != "New Lost/Found Report" {
		t.Errorf("unexpected notification title %q", n.Title)
	}
	if n.Description != "Blue Wallet (lost)" {
		t.Errorf("unexpected notification description %q", n.Description)
	}
}

func TestReportValidation(t *testing.T) {
	svc, _, _ := newTestService()
	id := models.Identity{ID: uuid.New(), Role: models.RoleStudent}

	if _, err := svc.Report(context.Background(), id, ReportInput{}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing name: expected Invalid, got %v", err)
	}
	_, err := svc.Report(context.Background(), id, ReportInput{Name: "Keys", Status: models.ItemClaimed})
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("claimed at creation: expected Invalid, got %v", err)
	}
}

func TestClaimRequiresImage(t *testing.T) {
	svc, _, pub := newTestService()
	reporter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	item, err := svc.Report(context.Background(), reporter, ReportInput{Name: "Umbrella", Status: models.ItemFound})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	_, err = svc.SetStatus(context.Background(), reporter, item.ID, UpdateInput{Status: models.ItemClaimed})
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("claim without image: expected Invalid, got %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), reporter, item.ID, UpdateInput{
		Status:     models.ItemClaimed,
		ClaimImage: "iVBORw0KGgo=",
		ClaimNotes: "picked up at front desk",
	})
	if err != nil {
		t.Fatalf("claim with image: %v", err)
	}
	if updated.Status != models.ItemClaimed {
		t.Errorf("expected claimed, got %s", updated.Status)
	}
	if updated.ClaimedBy == nil || *updated.ClaimedBy != reporter.ID {
		t.Error("claimer not recorded")
	}
	if updated.ClaimedAt == nil {
		t.Error("claim timestamp not recorded")
	}
	if updated.ClaimImage == "" {
		t.Error("claim image not stored")
	}

	n := pub.lastBroadcast(t)
	if n.Title != "Item Claimed!" {
		t.Errorf("unexpected notification title %q", n.Title)
	}
	if n.Description != "Umbrella is now claimed" {
		t.Errorf("unexpected notification description %q", n.Description)
	}
}

func TestUpdateAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	reporter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	item, err := svc.Report(context.Background(), reporter, ReportInput{Name: "Laptop"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	other := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	if _, err := svc.SetStatus(context.Background(), other, item.ID, UpdateInput{Status: models.ItemFound}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("non-owner: expected Forbidden, got %v", err)
	}

	faculty := models.Identity{ID: uuid.New(), Role: models.RoleFaculty}
	if _, err := svc.SetStatus(context.Background(), faculty, item.ID, UpdateInput{Status: models.ItemFound}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("faculty non-owner: expected Forbidden, got %v", err)
	}

	admin := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	updated, err := svc.SetStatus(context.Background(), admin, item.ID, UpdateInput{Status: models.ItemFound})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Status != models.ItemFound {
		t.Errorf("expected found, got %s", updated.Status)
	}
}

func TestClaimedItemCanBeReopened(t *testing.T) {
	svc, _, _ := newTestService()
	reporter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	item, err := svc.Report(context.Background(), reporter, ReportInput{Name: "Badge"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), reporter, item.ID, UpdateInput{Status: models.ItemClaimed, ClaimImage: "img"}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// The default table allows reopening a claimed item.
	updated, err := svc.SetStatus(context.Background(), reporter, item.ID, UpdateInput{Status: models.ItemLost})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if updated.Status != models.ItemLost {
		t.Errorf("expected lost, got %s", updated.Status)
	}
}

func TestStrictTransitionsRejected(t *testing.T) {
	store := newFakeItemStore()
	pub := &capturePublisher{}
	users := &fakeUsers{users: make(map[uuid.UUID]*models.User)}
	strict := Transitions{
		models.ItemLost:  {models.ItemFound},
		models.ItemFound: {models.ItemClaimed},
	}
	svc := NewService(store, users, pub, strict, nil)

	reporter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	item, err := svc.Report(context.Background(), reporter, ReportInput{Name: "Charger"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	_, err = svc.SetStatus(context.Background(), reporter, item.ID, UpdateInput{Status: models.ItemClaimed, ClaimImage: "img"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("lost->claimed under strict table: expected Conflict, got %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	id := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	_, err := svc.SetStatus(context.Background(), id, "missing", UpdateInput{Status: models.ItemFound})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, store, _ := newTestService()
	reporter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}

	base := time.Now()
	for i, name := range []string{"first", "second", "third"} {
		svc.now = func(offset int) func() time.Time {
			return func() time.Time { return base.Add(time.Duration(offset) * time.Minute) }
		}(i)
		if _, err := svc.Report(context.Background(), reporter, ReportInput{Name: name}); err != nil {
			t.Fatalf("report %s: %v", name, err)
		}
	}
	if len(store.items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(store.items))
	}

	views, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}
	if views[0].Name != "third" || views[2].Name != "first" {
		t.Errorf("expected newest-first ordering, got %s, %s, %s", views[0].Name, views[1].Name, views[2].Name)
	}
}
