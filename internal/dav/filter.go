package dav

import (
	"sort"
	"strings"
	"time"

	"flowcal/internal/models"

	"google.golang.org/api/calendar/v3"
)

// merge overlays the non-empty fields of patch on a copy of base.
func merge(base, patch *calendar.Event) *calendar.Event {
	out := *base
	if patch.Summary != "" {
		out.Summary = patch.Summary
	}
	if patch.Description != "" {
		out.Description = patch.Description
	}
	if patch.Location != "" {
		out.Location = patch.Location
	}
	if patch.Start != nil {
		out.Start = patch.Start
	}
	if patch.End != nil {
		out.End = patch.End
	}
	if patch.Reminders != nil {
		out.Reminders = patch.Reminders
	}
	return &out
}

func applyFilter(events []*calendar.Event, filter models.ListFilter, loc *time.Location) []*calendar.Event {
	query := strings.ToLower(filter.Query)

	var out []*calendar.Event
	for _, event := range events {
		start := eventTime(event.Start, loc)
		end := eventTime(event.End, loc)
		if end.IsZero() {
			end = start
		}
		if !filter.TimeMin.IsZero() && !end.After(filter.TimeMin) {
			continue
		}
		if !filter.TimeMax.IsZero() && !start.Before(filter.TimeMax) {
			continue
		}
		if query != "" && !matches(event, query) {
			continue
		}
		out = append(out, event)
	}

	if filter.OrderByStartTime {
		sort.SliceStable(out, func(i, j int) bool {
			return eventTime(out[i].Start, loc).Before(eventTime(out[j].Start, loc))
		})
	}
	if filter.MaxResults > 0 && int64(len(out)) > filter.MaxResults {
		out = out[:filter.MaxResults]
	}
	return out
}

func matches(event *calendar.Event, query string) bool {
	for _, field := range []string{event.Summary, event.Description, event.Location} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func eventTime(edt *calendar.EventDateTime, loc *time.Location) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, edt.DateTime)
		return t
	}
	t, _ := time.ParseInLocation("2006-01-02", edt.Date, loc)
	return t
}
