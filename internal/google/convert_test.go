package google

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"flowcal/internal/models"

	"google.golang.org/api/calendar/v3"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func mustRequest(t *testing.T, summary string, start, end time.Time, opts ...models.EventOption) *models.EventRequest {
	t.Helper()
	r, err := models.NewEventRequest(summary, start, end, opts...)
	if err != nil {
		t.Fatalf("NewEventRequest: %v", err)
	}
	return r
}

func TestToRecord(t *testing.T) {
	loc := mustLoad(t, "Europe/Berlin")
	conv := NewConverter(loc)
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, loc)
	req := mustRequest(t, "Standup", start, start.Add(time.Hour))

	ev := conv.ToRecord(req)
	if ev.Summary != "Standup" {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.Start.DateTime != "2025-01-15T10:00:00+01:00" {
		t.Errorf("Start.DateTime = %q", ev.Start.DateTime)
	}
	if ev.End.DateTime != "2025-01-15T11:00:00+01:00" {
		t.Errorf("End.DateTime = %q", ev.End.DateTime)
	}
	if ev.Start.TimeZone != "Europe/Berlin" {
		t.Errorf("Start.TimeZone = %q", ev.Start.TimeZone)
	}
	if ev.Reminders != nil {
		t.Errorf("Reminders should be unset without overrides, got %+v", ev.Reminders)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"description"`, `"location"`, `"reminders"`} {
		if strings.Contains(string(data), field) {
			t.Errorf("wire form contains %s: %s", field, data)
		}
	}
}

func TestToRecordReminders(t *testing.T) {
	conv := NewConverter(time.UTC)
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	req := mustRequest(t, "Standup", start, start.Add(time.Hour),
		models.WithDescription("daily"),
		models.WithLocation("Room 1"),
		models.WithReminders(models.Reminder{Method: models.ReminderEmail, Minutes: 15}, models.Reminder{Method: models.ReminderPopup, Minutes: 0}),
	)

	ev := conv.ToRecord(req)
	if ev.Description != "daily" || ev.Location != "Room 1" {
		t.Errorf("optional fields = %q, %q", ev.Description, ev.Location)
	}
	if ev.Reminders == nil || ev.Reminders.UseDefault {
		t.Fatalf("Reminders = %+v, want overrides with UseDefault=false", ev.Reminders)
	}
	if len(ev.Reminders.Overrides) != 2 || ev.Reminders.Overrides[0].Method != "email" || ev.Reminders.Overrides[0].Minutes != 15 {
		t.Errorf("Overrides = %+v", ev.Reminders.Overrides)
	}

	data, err := json.Marshal(ev.Reminders)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"useDefault":false`) {
		t.Errorf("useDefault=false not sent: %s", data)
	}
	if !strings.Contains(string(data), `"minutes":0`) {
		t.Errorf("zero minutes not sent: %s", data)
	}
}

func TestRoundTrip(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	conv := NewConverter(loc)
	start := time.Date(2025, 7, 4, 18, 30, 15, 0, loc)
	end := start.Add(90 * time.Minute)
	reminders := []models.Reminder{{Method: models.ReminderSMS, Minutes: 5}, {Method: models.ReminderEmail, Minutes: 60}}

	tests := []struct {
		name string
		req  *models.EventRequest
	}{
		{"required only", mustRequest(t, "BBQ", start, end)},
		{"all fields", mustRequest(t, "BBQ", start, end,
			models.WithDescription("bring ice"),
			models.WithLocation("Backyard"),
			models.WithReminders(reminders...))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.FromRecord(conv.ToRecord(tt.req))
			if err != nil {
				t.Fatalf("FromRecord: %v", err)
			}
			if got.Summary() != tt.req.Summary() || got.Description() != tt.req.Description() || got.Location() != tt.req.Location() {
				t.Errorf("text fields = %s, want %s", got, tt.req)
			}
			if !got.StartTime().Equal(tt.req.StartTime()) || !got.EndTime().Equal(tt.req.EndTime()) {
				t.Errorf("times = %v..%v, want %v..%v", got.StartTime(), got.EndTime(), tt.req.StartTime(), tt.req.EndTime())
			}
			if got.StartTime().Location() != loc {
				t.Errorf("start location = %v, want %v", got.StartTime().Location(), loc)
			}
			gr, wr := got.Reminders(), tt.req.Reminders()
			if len(gr) != len(wr) {
				t.Fatalf("reminders = %v, want %v", gr, wr)
			}
			for i := range wr {
				if gr[i] != wr[i] {
					t.Errorf("reminder[%d] = %v, want %v", i, gr[i], wr[i])
				}
			}
		})
	}
}

func TestFromRecordDateOnly(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	conv := NewConverter(loc)
	got, err := conv.FromRecord(&calendar.Event{
		Summary: "Holiday",
		Start:   &calendar.EventDateTime{Date: "2024-05-01"},
		End:     &calendar.EventDateTime{Date: "2024-05-02"},
	})
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if want := time.Date(2024, 5, 1, 0, 0, 0, 0, loc); !got.StartTime().Equal(want) {
		t.Errorf("start = %v, want %v", got.StartTime(), want)
	}
}

func TestFromRecordOffsetConverted(t *testing.T) {
	conv := NewConverter(time.UTC)
	got, err := conv.FromRecord(&calendar.Event{
		Summary: "Call",
		Start:   &calendar.EventDateTime{DateTime: "2026-01-15T10:00:00.000+01:00", TimeZone: "UTC"},
		End:     &calendar.EventDateTime{DateTime: "2026-01-15T11:00:00+01:00"},
	})
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if want := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC); !got.StartTime().Equal(want) || got.StartTime().Hour() != 9 {
		t.Errorf("start = %v, want %v", got.StartTime(), want)
	}
}

func TestFromRecordMissingFields(t *testing.T) {
	conv := NewConverter(time.UTC)
	ok := &calendar.EventDateTime{DateTime: "2026-01-15T10:00:00Z"}

	tests := []struct {
		name string
		ev   *calendar.Event
		want error
	}{
		{"nil event", nil, models.ErrMissingField},
		{"no summary", &calendar.Event{Start: ok, End: ok}, models.ErrMissingField},
		{"no start", &calendar.Event{Summary: "x", End: ok}, models.ErrMissingField},
		{"empty end", &calendar.Event{Summary: "x", Start: ok, End: &calendar.EventDateTime{}}, models.ErrMissingField},
		{"bad start", &calendar.Event{Summary: "x", Start: &calendar.EventDateTime{DateTime: "soon"}, End: ok}, models.ErrInvalidDateTime},
		{"bad reminder", &calendar.Event{Summary: "x", Start: ok, End: ok, Reminders: &calendar.EventReminders{
			Overrides: []*calendar.EventReminder{{Method: "pager", Minutes: 1}},
		}}, models.ErrInvalidReminder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.FromRecord(tt.ev)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got != nil {
				t.Errorf("expected no request, got %s", got)
			}
		})
	}
}

func TestEncodeDateTimeLocal(t *testing.T) {
	var conv *Converter
	edt := conv.EncodeDateTime(time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local))
	if edt.TimeZone != "" {
		t.Errorf("TimeZone = %q, want empty for the Local zone", edt.TimeZone)
	}
	if _, err := time.Parse(time.RFC3339, edt.DateTime); err != nil {
		t.Errorf("DateTime %q is not RFC 3339: %v", edt.DateTime, err)
	}
}
