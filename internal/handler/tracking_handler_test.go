package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shulgold/newsletter-engine/internal/handler"
)

type recordedEvent struct {
	sendID       int
	subscriberID int
	kind         string
	url          string
}

type MockTrackingRepo struct {
	events []recordedEvent
}

func (m *MockTrackingRepo) RecordOpen(sendID, subscriberID int) error {
	m.events = append(m.events, recordedEvent{sendID, subscriberID, "open", ""})
	return nil
}

func (m *MockTrackingRepo) RecordClick(sendID, subscriberID int, url string) error {
	m.events = append(m.events, recordedEvent{sendID, subscriberID, "click", url})
	return nil
}

func (m *MockTrackingRepo) Counts(sendID int) (int, int, error) { return 0, 0, nil }

func TestOpenReturnsPixelAndRecords(t *testing.T) {
	repo := &MockTrackingRepo{}
	h := &handler.TrackingHandler{TrackingRepo: repo}

	req := httptest.NewRequest("GET", "/track/open?sid=7&sub=42", nil)
	w := httptest.NewRecorder()
	h.Open(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/gif" {
		t.Errorf("expected image/gif, got %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("empty pixel body")
	}
	if len(repo.events) != 1 || repo.events[0].kind != "open" || repo.events[0].sendID != 7 || repo.events[0].subscriberID != 42 {
		t.Errorf("open not recorded: %+v", repo.events)
	}
}

func TestOpenWithGarbageStillReturnsPixel(t *testing.T) {
	repo := &MockTrackingRepo{}
	h := &handler.TrackingHandler{TrackingRepo: repo}

	req := httptest.NewRequest("GET", "/track/open?sid=abc", nil)
	w := httptest.NewRecorder()
	h.Open(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 even for garbage params, got %d", w.Code)
	}
	if len(repo.events) != 0 {
		t.Errorf("garbage params should not record events: %+v", repo.events)
	}
}

func TestOpenIsRepeatSafe(t *testing.T) {
	repo := &MockTrackingRepo{}
	h := &handler.TrackingHandler{TrackingRepo: repo}

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/track/open?sid=7&sub=42", nil)
		w := httptest.NewRecorder()
		h.Open(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("repeat %d: expected 200, got %d", i, w.Code)
		}
	}
	if len(repo.events) != 3 {
		t.Errorf("expected 3 appended events, got %d", len(repo.events))
	}
}

func TestClickRecordsAndRedirects(t *testing.T) {
	repo := &MockTrackingRepo{}
	h := &handler.TrackingHandler{TrackingRepo: repo}

	req := httptest.NewRequest("GET", "/track/click?sid=7&sub=42&url=https%3A%2F%2Fexample.com%2Fpage", nil)
	w := httptest.NewRecorder()
	h.Click(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/page" {
		t.Errorf("unexpected redirect target: %s", loc)
	}
	if len(repo.events) != 1 || repo.events[0].url != "https://example.com/page" {
		t.Errorf("click not recorded: %+v", repo.events)
	}
}

func TestClickRejectsMissingOrBadURL(t *testing.T) {
	h := &handler.TrackingHandler{TrackingRepo: &MockTrackingRepo{}}

	req := httptest.NewRequest("GET", "/track/click?sid=7&sub=42", nil)
	w := httptest.NewRecorder()
	h.Click(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing url: expected 400, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/track/click?sid=7&sub=42&url=javascript%3Aalert(1)", nil)
	w = httptest.NewRecorder()
	h.Click(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-http url: expected 400, got %d", w.Code)
	}
}
