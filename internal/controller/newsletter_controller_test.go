package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shulgold/newsletter-engine/internal/controller"
	appErrors "github.com/shulgold/newsletter-engine/internal/errors"
	"github.com/shulgold/newsletter-engine/internal/model"
	"github.com/shulgold/newsletter-engine/internal/service"
)

// --- Mock Repositories ---

type MockNewsletterRepo struct {
	newsletters map[int]*model.Newsletter
	statuses    map[int]string
}

func (m *MockNewsletterRepo) Create(n *model.Newsletter) error { n.ID = 1; return nil }

func (m *MockNewsletterRepo) GetByID(id int) (*model.Newsletter, error) {
	n, ok := m.newsletters[id]
	if !ok {
		return nil, appErrors.NewNewsletterNotFound(id)
	}
	return n, nil
}

func (m *MockNewsletterRepo) ListNewsletters(offset, limit int, status string) ([]*model.Newsletter, int, error) {
	return []*model.Newsletter{}, 0, nil
}

func (m *MockNewsletterRepo) UpdateStatus(id int, status string) error {
	if m.statuses == nil {
		m.statuses = map[int]string{}
	}
	m.statuses[id] = status
	return nil
}

func (m *MockNewsletterRepo) MarkSent(id int, sentAt time.Time) error { return nil }

type MockSubscriberRepo struct {
	subs []model.Subscriber
}

func (m *MockSubscriberRepo) GetByID(id int) (*model.Subscriber, error) {
	return nil, appErrors.NewSubscriberNotFound(id)
}
func (m *MockSubscriberRepo) ListEligible() ([]model.Subscriber, error) { return m.subs, nil }

type MockSegmentRepo struct{}

func (m *MockSegmentRepo) Create(s *model.Segment) error { s.ID = 1; return nil }
func (m *MockSegmentRepo) GetByID(id int) (*model.Segment, error) {
	return nil, appErrors.NewSegmentNotFound(id)
}
func (m *MockSegmentRepo) ListAll() ([]model.Segment, error) { return []model.Segment{}, nil }

type MockSendRepo struct {
	created *model.Send
}

func (m *MockSendRepo) CreateWithRecipients(send *model.Send, recipients []model.Subscriber) error {
	send.ID = 42
	send.TotalRecipients = len(recipients)
	m.created = send
	return nil
}

func (m *MockSendRepo) NextDue(now time.Time) (*model.Send, error)    { return nil, nil }
func (m *MockSendRepo) Claim(id int, now time.Time) (bool, error)     { return false, nil }
func (m *MockSendRepo) AddCounts(id, sent, failed int) error          { return nil }
func (m *MockSendRepo) Complete(id int, at time.Time) error           { return nil }
func (m *MockSendRepo) GetByID(id int) (*model.Send, error)           { return nil, nil }
func (m *MockSendRepo) ListByNewsletter(id int) ([]model.Send, error) { return []model.Send{}, nil }

// --- Helpers ---

func newTestRouter(newsRepo *MockNewsletterRepo, sendRepo *MockSendRepo, subs []model.Subscriber) *chi.Mux {
	initiator := &service.SendInitiator{
		NewsletterRepo: newsRepo,
		SegmentRepo:    &MockSegmentRepo{},
		SendRepo:       sendRepo,
		Resolver:       &service.SegmentResolver{SubscriberRepo: &MockSubscriberRepo{subs: subs}},
	}

	ctrl := &controller.NewsletterController{
		NewsletterRepo: newsRepo,
		SegmentRepo:    &MockSegmentRepo{},
		SendRepo:       sendRepo,
		Initiator:      initiator,
	}

	r := chi.NewRouter()
	r.Post("/newsletters/{id}/send", ctrl.InitiateSend)
	return r
}

func optedIn(n int) []model.Subscriber {
	subs := make([]model.Subscriber, n)
	for i := range subs {
		subs[i] = model.Subscriber{ID: i + 1, Interests: model.InterestFlags{"newsletter": true}}
	}
	return subs
}

// --- Tests ---

func TestInitiateSendEndpoint(t *testing.T) {
	newsRepo := &MockNewsletterRepo{newsletters: map[int]*model.Newsletter{
		1: {ID: 1, Subject: "Weekly", Status: "draft"},
	}}
	sendRepo := &MockSendRepo{}
	router := newTestRouter(newsRepo, sendRepo, optedIn(3))

	req := httptest.NewRequest("POST", "/newsletters/1/send", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		SendID          int    `json:"send_id"`
		TotalRecipients int    `json:"total_recipients"`
		Status          string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.SendID != 42 || res.TotalRecipients != 3 || res.Status != "sending" {
		t.Errorf("unexpected result: %+v", res)
	}
	if newsRepo.statuses[1] != "sending" {
		t.Errorf("newsletter status not updated, got %q", newsRepo.statuses[1])
	}
}

func TestInitiateSendEndpointNotFound(t *testing.T) {
	router := newTestRouter(&MockNewsletterRepo{newsletters: map[int]*model.Newsletter{}}, &MockSendRepo{}, optedIn(1))

	req := httptest.NewRequest("POST", "/newsletters/99/send", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestInitiateSendEndpointAlreadyDispatched(t *testing.T) {
	newsRepo := &MockNewsletterRepo{newsletters: map[int]*model.Newsletter{
		1: {ID: 1, Subject: "Weekly", Status: "sending"},
	}}
	sendRepo := &MockSendRepo{}
	router := newTestRouter(newsRepo, sendRepo, optedIn(1))

	req := httptest.NewRequest("POST", "/newsletters/1/send", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if sendRepo.created != nil {
		t.Error("send row created despite conflict")
	}
}

func TestInitiateSendEndpointEmptyAudience(t *testing.T) {
	newsRepo := &MockNewsletterRepo{newsletters: map[int]*model.Newsletter{
		1: {ID: 1, Subject: "Weekly", Status: "draft"},
	}}
	router := newTestRouter(newsRepo, &MockSendRepo{}, nil)

	req := httptest.NewRequest("POST", "/newsletters/1/send", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestInitiateSendEndpointBadSchedule(t *testing.T) {
	newsRepo := &MockNewsletterRepo{newsletters: map[int]*model.Newsletter{
		1: {ID: 1, Subject: "Weekly", Status: "draft"},
	}}
	router := newTestRouter(newsRepo, &MockSendRepo{}, optedIn(1))

	body := []byte(`{"schedule_at": "tomorrow"}`)
	req := httptest.NewRequest("POST", "/newsletters/1/send", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
