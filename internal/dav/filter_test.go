package dav

import (
	"testing"
	"time"

	"flowcal/internal/models"

	"google.golang.org/api/calendar/v3"
)

func at(hour int) *calendar.EventDateTime {
	return &calendar.EventDateTime{DateTime: time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC).Format(time.RFC3339)}
}

func sampleEvents() []*calendar.Event {
	return []*calendar.Event{
		{Id: "late", Summary: "Dinner", Location: "Bistro", Start: at(19), End: at(21)},
		{Id: "early", Summary: "Gym", Start: at(7), End: at(8)},
		{Id: "mid", Summary: "Lunch", Description: "with the dentist", Start: at(12), End: at(13)},
		{Id: "allday", Summary: "Holiday", Start: &calendar.EventDateTime{Date: "2025-06-02"}, End: &calendar.EventDateTime{Date: "2025-06-03"}},
	}
}

func ids(events []*calendar.Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Id)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyFilter(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter models.ListFilter
		want   []string
	}{
		{"no constraints", models.ListFilter{}, []string{"late", "early", "mid", "allday"}},
		{"ordered", models.ListFilter{OrderByStartTime: true}, []string{"early", "mid", "late", "allday"}},
		{"ordered and capped", models.ListFilter{OrderByStartTime: true, MaxResults: 2}, []string{"early", "mid"}},
		{"time min", models.ListFilter{TimeMin: day.Add(12 * time.Hour), OrderByStartTime: true}, []string{"mid", "late", "allday"}},
		{"time range", models.ListFilter{TimeMin: day, TimeMax: day.Add(10 * time.Hour)}, []string{"early"}},
		{"query in description", models.ListFilter{Query: "DENTIST"}, []string{"mid"}},
		{"query in location", models.ListFilter{Query: "bistro"}, []string{"late"}},
		{"query without match", models.ListFilter{Query: "zoo"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(applyFilter(sampleEvents(), tt.filter, time.UTC))
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &calendar.Event{Id: "x", Summary: "Old", Description: "keep", Location: "Room", Start: at(9), End: at(10)}
	patch := &calendar.Event{Summary: "New", End: at(11)}

	got := merge(base, patch)
	if got.Summary != "New" || got.Description != "keep" || got.Location != "Room" {
		t.Errorf("text fields = %+v", got)
	}
	if got.Start != base.Start || got.End != patch.End {
		t.Errorf("times not merged")
	}
	if base.Summary != "Old" {
		t.Errorf("base was modified")
	}
}

func TestObjectPaths(t *testing.T) {
	p := objectPath("/calendars/u/home/", "abc")
	if p != "/calendars/u/home/abc.ics" {
		t.Errorf("objectPath = %q", p)
	}
	if id := eventIDFromPath(p); id != "abc" {
		t.Errorf("eventIDFromPath = %q", id)
	}
}
