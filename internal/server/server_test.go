package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flowcal/internal/models"
	"flowcal/internal/nodes"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/calendar/v3"
)

type stubClient struct {
	err    error
	events []*calendar.Event
}

func (s *stubClient) Insert(_ context.Context, _ string, event *calendar.Event) (*calendar.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	created := *event
	created.Id = "evt-42"
	return &created, nil
}

func (s *stubClient) Get(context.Context, string, string) (*calendar.Event, error) {
	return nil, errors.New("not implemented")
}

func (s *stubClient) Update(_ context.Context, _, eventID string, event *calendar.Event, _ models.NotifyPolicy) (*calendar.Event, error) {
	updated := *event
	updated.Id = eventID
	return &updated, s.err
}

func (s *stubClient) Delete(context.Context, string, string, models.NotifyPolicy) error {
	return s.err
}

func (s *stubClient) List(context.Context, string, models.ListFilter) ([]*calendar.Event, error) {
	return s.events, s.err
}

func newTestServer(t *testing.T, client nodes.CalendarClient) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner, err := nodes.NewRunner(logger, client, "primary", time.UTC)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	srv, err := New(logger, runner, Config{Port: 8080, Mode: gin.TestMode})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv.Handler()
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, nodeResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp nodeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &stubClient{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, Config{}); err == nil {
		t.Error("expected error without logger")
	}
	if _, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Config{}); err == nil {
		t.Error("expected error without runner")
	}
}

func TestCreateRoute(t *testing.T) {
	h := newTestServer(t, &stubClient{})
	w, resp := post(t, h, "/v1/nodes/create", `{
		"config": {
			"summary": "${title}",
			"startTime": "2025-01-15T10:00:00",
			"endTime": "2025-01-15T11:00:00",
			"resultVariable": "eventId"
		},
		"variables": {"title": "Standup", "unset": null, "budget": 1000000}
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if resp.Result != "evt-42" {
		t.Errorf("result = %q", resp.Result)
	}
	if v := resp.Variables["eventId"]; v == nil || *v != "evt-42" {
		t.Errorf("eventId = %v", v)
	}
	if v, ok := resp.Variables["unset"]; !ok || v != nil {
		t.Errorf("null variable should round-trip as null, got %v", v)
	}
	if v := resp.Variables["budget"]; v == nil || *v != "1000000" {
		t.Errorf("budget = %v, want plain digits", v)
	}
}

func TestRouteErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
		path   string
		body   string
		want   int
	}{
		{
			name:   "malformed body",
			client: &stubClient{},
			path:   "/v1/nodes/create",
			body:   `{"config":`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "missing start time",
			client: &stubClient{},
			path:   "/v1/nodes/create",
			body:   `{"config":{"summary":"x","endTime":"2025-01-15T11:00","resultVariable":"id"}}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "provider failure",
			client: &stubClient{err: errors.New("googleapi: Error 500: backendError")},
			path:   "/v1/nodes/delete",
			body:   `{"config":{"eventId":"evt-1","resultVariable":"msg"}}`,
			want:   http.StatusBadGateway,
		},
		{
			name:   "unknown list mode",
			client: &stubClient{},
			path:   "/v1/nodes/list",
			body:   `{"config":{"mode":"WEEKLY","resultVariable":"events"}}`,
			want:   http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.client)
			w, resp := post(t, h, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if resp.Error == "" {
				t.Error("error message should be set")
			}
			if resp.Result != "" {
				t.Errorf("result = %q, want empty", resp.Result)
			}
		})
	}
}

func TestListRoute(t *testing.T) {
	h := newTestServer(t, &stubClient{events: []*calendar.Event{{
		Id:      "a",
		Summary: "Standup",
		Start:   &calendar.EventDateTime{DateTime: "2025-01-15T10:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2025-01-15T10:15:00Z"},
	}}})
	w, resp := post(t, h, "/v1/nodes/list", `{"config":{"mode":"ALL","maxResults":"${n}","resultVariable":"events"},"variables":{"n":5}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var result nodes.ListResult
	if err := json.Unmarshal([]byte(resp.Result), &result); err != nil {
		t.Fatalf("result is not a list payload: %v", err)
	}
	if result.Metadata.TotalCount != 1 || result.Events[0].DurationMinutes != 15 {
		t.Errorf("unexpected payload: %+v", result)
	}
	if v := resp.Variables["n"]; v == nil || *v != "5" {
		t.Errorf("n = %v", v)
	}
}
