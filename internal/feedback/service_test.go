package feedback

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/apperr"
	"github.com/campushub/backend/pkg/docstore"
)

type fakeFeedbackStore struct {
	entries map[string]*models.Feedback
}

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{entries: make(map[string]*models.Feedback)}
}

func (f *fakeFeedbackStore) Create(_ context.Context, id string, fb *models.Feedback) error {
	copied := *fb
	f.entries[id] = &copied
	return nil
}

func (f *fakeFeedbackStore) GetByID(_ context.Context, id string) (*models.Feedback, error) {
	fb, ok := f.entries[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	copied := *fb
	return &copied, nil
}

func (f *fakeFeedbackStore) List(_ context.Context) ([]*models.Feedback, error) {
	out := make([]*models.Feedback, 0, len(f.entries))
	for _, fb := range f.entries {
		copied := *fb
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeFeedbackStore) Update(_ context.Context, id string, mutate func(*models.Feedback) error) (*models.Feedback, error) {
	fb, ok := f.entries[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	copied := *fb
	if err := mutate(&copied); err != nil {
		return nil, err
	}
	f.entries[id] = &copied
	result := copied
	return &result, nil
}

type fakeUsers struct{}

func (fakeUsers) GetByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return nil, docstore.ErrNotFound
}

type capturePublisher struct {
	broadcasts []models.Notification
}

func (p *capturePublisher) Broadcast(_ string, payload interface{}) {
	if n, ok := payload.(models.Notification); ok {
		p.broadcasts = append(p.broadcasts, n)
	}
}

func (p *capturePublisher) SendToUser(uuid.UUID, string, interface{}) {}

func newTestService() (*Service, *fakeFeedbackStore, *capturePublisher) {
	store := newFakeFeedbackStore()
	pub := &capturePublisher{}
	svc := NewService(store, fakeUsers{}, pub)
	return svc, store, pub
}

func TestSubmit(t *testing.T) {
	svc, store, pub := newTestService()
	submitter := models.Identity{ID: uuid.New(), Role: models.RoleStudent}

	fb, err := svc.Submit(context.Background(), submitter, "Wifi in library", "The third floor has no coverage")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fb.Status != models.FeedbackPending {
		t.Errorf("expected pending, got %s", fb.Status)
	}
	if fb.SubmittedBy != submitter.ID {
		t.Error("submitter not recorded")
	}
	if _, ok := store.entries[fb.ID]; !ok {
		t.Error("feedback not persisted")
	}
	if len(pub.broadcasts) != 1 || pub.broadcasts[0].Title != "New Feedback" {
		t.Error("expected a New Feedback broadcast")
	}

	if _, err := svc.Submit(context.Background(), submitter, "", "msg"); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing subject: expected Invalid, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), submitter, "subj", ""); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing message: expected Invalid, got %v", err)
	}
}

func TestListAdminOnly(t *testing.T) {
	svc, _, _ := newTestService()
	student := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	admin := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}

	if _, err := svc.Submit(context.Background(), student, "a", "b"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.List(context.Background(), student); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("student list: expected Forbidden, got %v", err)
	}
	views, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(views) != 1 {
		t.Errorf("expected 1 entry, got %d", len(views))
	}
}

func TestSetStatus(t *testing.T) {
	svc, _, pub := newTestService()
	student := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	admin := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}

	fb, err := svc.Submit(context.Background(), student, "Broken projector", "Room 204")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), student, fb.ID, models.FeedbackResolved); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("student set status: expected Forbidden, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), admin, fb.ID, "done"); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("bad status: expected Invalid, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), admin, "missing", models.FeedbackResolved); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing id: expected NotFound, got %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), admin, fb.ID, models.FeedbackResolved)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != models.FeedbackResolved {
		t.Errorf("expected resolved, got %s", updated.Status)
	}
	last := pub.broadcasts[len(pub.broadcasts)-1]
	if last.Title != "Feedback Updated" {
		t.Errorf("unexpected title %q", last.Title)
	}
	if last.Description != "Broken projector → resolved" {
		t.Errorf("unexpected description %q", last.Description)
	}
}
