package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func denialEvent() Event {
	return Event{
		Timestamp:  "2026-08-29T10:00:00.000Z",
		Type:       "denied_omega7",
		SessionID:  "sess-1",
		EmployeeID: "e-100",
		Clearance:  2,
		Location:   "Umbrella Europe",
		Reason:     "OMEGA-7 classified term",
		Keyword:    "salary",
	}
}

func TestDispatchMatchesEvents(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"denied_omega7"}},
	})

	d.Dispatch(denialEvent())
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"denied_facility"}},
	})

	d.Dispatch(denialEvent())
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	srv1 := httptest.NewServer(handler)
	defer srv1.Close()
	srv2 := httptest.NewServer(handler)
	defer srv2.Close()

	d := NewDispatcher([]Config{
		{URL: srv1.URL, Format: "generic", Events: []string{"denied_omega7"}},
		{URL: srv2.URL, Format: "generic", Events: []string{"denied_omega7", "audit_sink_error"}},
	})

	d.Dispatch(denialEvent())
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", called.Load())
	}
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(denialEvent()) // must not panic

	if NewDispatcher(nil) != nil {
		t.Error("empty config must yield a nil dispatcher")
	}
}

func TestSendRetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(Config{URL: srv.URL, Format: "generic"}, denialEvent())
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestSendFailsFastOn4xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := Send(Config{URL: srv.URL, Format: "generic"}, denialEvent())
	if err == nil {
		t.Fatal("expected error on 4xx")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected single attempt on 4xx, got %d", attempts.Load())
	}
}

func TestSendCustomHeaders(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := Config{URL: srv.URL, Format: "generic", Headers: map[string]string{"Authorization": "Bearer token"}}
	if err := Send(cfg, denialEvent()); err != nil {
		t.Fatal(err)
	}
	if auth.Load() != "Bearer token" {
		t.Errorf("expected custom header forwarded, got %v", auth.Load())
	}
}

func TestFormatPagerDutySeverity(t *testing.T) {
	cases := []struct {
		eventType string
		severity  string
	}{
		{"audit_sink_error", "critical"},
		{"denied_omega7", "error"},
		{"denied_facility", "warning"},
	}

	for _, tc := range cases {
		e := denialEvent()
		e.Type = tc.eventType

		body, err := FormatPayload("pagerduty", e)
		if err != nil {
			t.Fatal(err)
		}

		var payload struct {
			Payload struct {
				Severity string `json:"severity"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatal(err)
		}
		if payload.Payload.Severity != tc.severity {
			t.Errorf("%s: expected severity %s, got %s", tc.eventType, tc.severity, payload.Payload.Severity)
		}
	}
}

func TestFormatGenericRoundTrips(t *testing.T) {
	body, err := FormatPayload("generic", denialEvent())
	if err != nil {
		t.Fatal(err)
	}

	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != "denied_omega7" || e.Keyword != "salary" {
		t.Errorf("unexpected payload: %+v", e)
	}
}
