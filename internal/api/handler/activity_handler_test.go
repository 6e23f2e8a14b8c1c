package handler

import (
	"context"
	"net/http"
	"testing"
	"time"
)

type stubTracker struct {
	recorded   []string
	visibility []bool
	network    []bool
	last       time.Time
}

func (s *stubTracker) RecordActivity(kind string) bool {
	s.recorded = append(s.recorded, kind)
	return true
}

func (s *stubTracker) LastActivity() time.Time { return s.last }

func (s *stubTracker) VisibilityChanged(_ context.Context, visible bool) {
	s.visibility = append(s.visibility, visible)
}

func (s *stubTracker) NetworkChanged(_ context.Context, online bool) {
	s.network = append(s.network, online)
}

func TestActivityHandler_Record(t *testing.T) {
	tracker := &stubTracker{last: time.Now()}
	handler := NewActivityHandler(tracker)

	c, rec := newJSONContext(http.MethodPost, "/activity", `{"kind":"keydown"}`)
	if err := handler.Record(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || len(tracker.recorded) != 1 || tracker.recorded[0] != "keydown" {
		t.Fatalf("unexpected result: code=%d recorded=%v", rec.Code, tracker.recorded)
	}
}

func TestActivityHandler_Record_RejectsUnknownKind(t *testing.T) {
	tracker := &stubTracker{}
	handler := NewActivityHandler(tracker)

	c, _ := newJSONContext(http.MethodPost, "/activity", `{"kind":"mousemove"}`)
	if code := httpCode(t, handler.Record(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if len(tracker.recorded) != 0 {
		t.Fatalf("tracker must not be called")
	}
}

func TestActivityHandler_Visibility(t *testing.T) {
	tracker := &stubTracker{}
	handler := NewActivityHandler(tracker)

	c, rec := newJSONContext(http.MethodPost, "/activity/visibility", `{"visible":false}`)
	if err := handler.Visibility(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || len(tracker.visibility) != 1 || tracker.visibility[0] {
		t.Fatalf("unexpected result: code=%d visibility=%v", rec.Code, tracker.visibility)
	}
}

func TestActivityHandler_Visibility_RequiresField(t *testing.T) {
	handler := NewActivityHandler(&stubTracker{})

	c, _ := newJSONContext(http.MethodPost, "/activity/visibility", `{}`)
	if code := httpCode(t, handler.Visibility(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestActivityHandler_Network(t *testing.T) {
	tracker := &stubTracker{}
	handler := NewActivityHandler(tracker)

	c, _ := newJSONContext(http.MethodPost, "/activity/network", `{"online":true}`)
	if err := handler.Network(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(tracker.network) != 1 || !tracker.network[0] {
		t.Fatalf("unexpected network calls: %v", tracker.network)
	}
}
