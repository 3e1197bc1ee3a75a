package eventrequests

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/apperr"
	"github.com/campushub/backend/pkg/docstore"
)

type fakeRequestStore struct {
	requests map[string]*models.EventRequest
	// beforeUpdate runs against the stored document before mutate, to
	// simulate a concurrent writer winning the race.
	beforeUpdate func(*models.EventRequest)
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[string]*models.EventRequest)}
}

func (f *fakeRequestStore) Create(_ context.Context, id string, req *models.EventRequest) error {
	copied := *req
	f.requests[id] = &copied
	return nil
}

func (f *fakeRequestStore) GetByID(_ context.Context, id string) (*models.EventRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (f *fakeRequestStore) List(_ context.Context) ([]*models.EventRequest, error) {
	out := make([]*models.EventRequest, 0, len(f.requests))
	for _, req := range f.requests {
		copied := *req
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRequestStore) Update(_ context.Context, id string, mutate func(*models.EventRequest) error) (*models.EventRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(req)
	}
	copied := *req
	if err := mutate(&copied); err != nil {
		return nil, err
	}
	f.requests[id] = &copied
	result := copied
	return &result, nil
}

func (f *fakeRequestStore) Delete(_ context.Context, id string) error {
	if _, ok := f.requests[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(f.requests, id)
	return nil
}

type fakeEventStore struct {
	created map[string]*models.Event
	deleted []string
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{created: make(map[string]*models.Event)}
}

func (f *fakeEventStore) Create(_ context.Context, id string, event *models.Event) error {
	copied := *event
	f.created[id] = &copied
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, id string) error {
	delete(f.created, id)
	f.deleted = append(f.deleted, id)
	return nil
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

func newTestService() (*Service, *fakeRequestStore, *fakeEventStore, *capturePublisher) {
	requests := newFakeRequestStore()
	events := newFakeEventStore()
	pub := &capturePublisher{}
	users := &fakeUsers{users: make(map[uuid.UUID]*models.User)}
	svc := NewService(requests, events, users, pub, nil)
	return svc, requests, events, pub
}

func submitPending(t *testing.T, svc *Service, requester models.Identity) *models.EventRequest {
	t.Helper()
	req, err := svc.Submit(context.Background(), requester, SubmitInput{
		EventName: "Tech Symposium",
		Date:      "2026-10-12",
		Venue:     "Main Auditorium",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return req
}

func TestSubmitRoleGate(t *testing.T) {
	svc, _, _, _ := newTestService()

	for _, role := range []models.Role{models.RoleFaculty, models.RoleAdmin} {
		_, err := svc.Submit(context.Background(), models.Identity{ID: uuid.New(), Role: role}, SubmitInput{EventName: "x", Date: "2026-01-01"})
		if apperr.KindOf(err) != apperr.KindForbidden {
			t.Errorf("%s submit: expected Forbidden, got %v", role, err)
		}
	}
}

func TestSubmitDefaults(t *testing.T) {
	svc, _, _, _ := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}

	req := submitPending(t, svc, requester)
	if req.Status != models.RequestPending {
		t.Errorf("expected pending, got %s", req.Status)
	}
	if req.Category != models.CategoryOther {
		t.Errorf("expected default category, got %s", req.Category)
	}
	if req.RequestedBy != requester.ID {
		t.Error("requester not recorded")
	}

	if _, err := svc.Submit(context.Background(), requester, SubmitInput{Date: "2026-01-01"}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing name: expected Invalid, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), requester, SubmitInput{EventName: "x"}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing date: expected Invalid, got %v", err)
	}
}

func TestApproveMaterializesEvent(t *testing.T) {
	svc, requests, events, pub := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	reviewer := models.Identity{ID: uuid.New(), Role: models.RoleFaculty}

	req := submitPending(t, svc, requester)
	result, err := svc.Review(context.Background(), reviewer, req.ID, DecisionApprove, "looks good")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Event == nil {
		t.Fatal("expected materialized event")
	}
	if result.Event.CreatedBy != requester.ID {
		t.Error("event ownership should stay with the requester, not the reviewer")
	}
	if result.Event.Name != req.EventName || result.Event.Date != req.Date {
		t.Error("event fields not carried over from request")
	}
	if _, ok := events.created[result.Event.ID]; !ok {
		t.Error("event not persisted")
	}

	stored := requests.requests[req.ID]
	if stored.Status != models.RequestApproved {
		t.Errorf("expected approved, got %s", stored.Status)
	}
	if stored.ReviewedBy == nil || *stored.ReviewedBy != reviewer.ID {
		t.Error("reviewer not recorded")
	}
	if stored.EventID != result.Event.ID {
		t.Error("request not linked to materialized event")
	}

	if len(pub.targeted) != 1 {
		t.Fatalf("expected 1 targeted notification, got %d", len(pub.targeted))
	}
	if pub.targeted[0].userID != requester.ID {
		t.Error("approval notification must target the requester")
	}
	if pub.targeted[0].event != "event-request-approved" {
		t.Errorf("unexpected event %q", pub.targeted[0].event)
	}
}

func TestRejectDefaultsNotes(t *testing.T) {
	svc, requests, events, pub := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	reviewer := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}

	req := submitPending(t, svc, requester)
	result, err := svc.Review(context.Background(), reviewer, req.ID, DecisionReject, "")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Event != nil {
		t.Error("reject must not materialize an event")
	}
	if len(events.created) != 0 {
		t.Error("no event should be persisted on reject")
	}
	if result.Request.ReviewNotes != "Request rejected" {
		t.Errorf("expected default notes, got %q", result.Request.ReviewNotes)
	}
	if requests.requests[req.ID].Status != models.RequestRejected {
		t.Error("request not marked rejected")
	}
	if len(pub.targeted) != 1 || pub.targeted[0].event != "event-request-rejected" {
		t.Error("expected a targeted rejection notification")
	}
}

func TestReviewIsSingleShot(t *testing.T) {
	svc, _, _, _ := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	reviewer := models.Identity{ID: uuid.New(), Role: models.RoleFaculty}

	req := submitPending(t, svc, requester)
	if _, err := svc.Review(context.Background(), reviewer, req.ID, DecisionApprove, ""); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := svc.Review(context.Background(), reviewer, req.ID, DecisionReject, "")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("second review: expected Conflict, got %v", err)
	}
}

func TestApproveLostRaceCompensates(t *testing.T) {
	svc, requests, events, pub := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	reviewer := models.Identity{ID: uuid.New(), Role: models.RoleFaculty}
	rival := uuid.New()

	req := submitPending(t, svc, requester)

	// A rival reviewer commits between our pending check and our update.
	requests.beforeUpdate = func(r *models.EventRequest) {
		if r.Status == models.RequestPending {
			r.Status = models.RequestRejected
			r.ReviewedBy = &rival
		}
	}

	_, err := svc.Review(context.Background(), reviewer, req.ID, DecisionApprove, "")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected Conflict after lost race, got %v", err)
	}
	if len(events.created) != 0 {
		t.Error("losing reviewer's event must be compensated away")
	}
	if len(events.deleted) != 1 {
		t.Errorf("expected 1 compensating delete, got %d", len(events.deleted))
	}
	if len(pub.targeted) != 0 {
		t.Error("no notification should be sent by the losing reviewer")
	}
	if requests.requests[req.ID].ReviewedBy == nil || *requests.requests[req.ID].ReviewedBy != rival {
		t.Error("rival's decision must stand")
	}
}

func TestReviewRoleGate(t *testing.T) {
	svc, _, _, _ := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	req := submitPending(t, svc, requester)

	_, err := svc.Review(context.Background(), requester, req.ID, DecisionApprove, "")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("student review: expected Forbidden, got %v", err)
	}
}

func TestListVisibilityScoping(t *testing.T) {
	svc, _, _, _ := newTestService()
	alice := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	bob := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	faculty := models.Identity{ID: uuid.New(), Role: models.RoleFaculty}

	submitPending(t, svc, alice)
	submitPending(t, svc, alice)
	submitPending(t, svc, bob)

	own, err := svc.ListForCaller(context.Background(), alice, "")
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("student should see only own requests, got %d", len(own))
	}
	for _, v := range own {
		if v.RequestedBy != alice.ID {
			t.Error("student list leaked another user's request")
		}
	}

	all, err := svc.ListForCaller(context.Background(), faculty, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("faculty should see all requests, got %d", len(all))
	}

	pending, err := svc.ListForCaller(context.Background(), faculty, models.RequestPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("expected 3 pending, got %d", len(pending))
	}

	if _, err := svc.ListForCaller(context.Background(), faculty, "bogus"); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("bogus filter: expected Invalid, got %v", err)
	}
}

func TestDeleteOwnPending(t *testing.T) {
	svc, requests, _, _ := newTestService()
	requester := models.Identity{ID: uuid.New(), Role: models.RoleStudent}
	admin := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	reviewer := models.Identity{ID: uuid.New(), Role: models.RoleFaculty}

	req := submitPending(t, svc, requester)

	if err := svc.DeleteOwnPending(context.Background(), admin, req.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("admin deleting another's request: expected Forbidden, got %v", err)
	}

	if err := svc.DeleteOwnPending(context.Background(), requester, req.ID); err != nil {
		t.Fatalf("delete own pending: %v", err)
	}
	if _, ok := requests.requests[req.ID]; ok {
		t.Error("request not deleted")
	}

	reviewed := submitPending(t, svc, requester)
	if _, err := svc.Review(context.Background(), reviewer, reviewed.ID, DecisionReject, ""); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := svc.DeleteOwnPending(context.Background(), requester, reviewed.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("deleting reviewed request: expected Conflict, got %v", err)
	}
}
