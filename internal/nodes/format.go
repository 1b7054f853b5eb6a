package nodes

import (
	"bytes"
	"encoding/json"
	"fmt"

	"flowcal/internal/google"
	"flowcal/internal/ics"
	"flowcal/internal/models"

	"google.golang.org/api/calendar/v3"
)

const untitled = "(No title)"

// ListResult is the JSON payload written by the list node.
type ListResult struct {
	Metadata ListMetadata  `json:"metadata"`
	Events   []ListedEvent `json:"events"`
}

// ListMetadata counts the returned events against the total.
type ListMetadata struct {
	TotalCount     int  `json:"total_count"`
	DisplayedCount int  `json:"displayed_count"`
	StartIndex     int  `json:"start_index"`
	HasMore        bool `json:"has_more"`
}

// ListedEvent is one event of a ListResult. Index starts at 1.
type ListedEvent struct {
	Index           int     `json:"index"`
	ID              string  `json:"id"`
	Summary         string  `json:"summary"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	DurationMinutes int64   `json:"duration_minutes"`
	Location        *string `json:"location"`
	Description     *string `json:"description"`
}

// BuildListResult shapes at most limit events for output.
func BuildListResult(conv *google.Converter, events []*calendar.Event, limit int) ListResult {
	displayed := min(limit, len(events))
	result := ListResult{
		Metadata: ListMetadata{
			TotalCount:     len(events),
			DisplayedCount: displayed,
			StartIndex:     0,
			HasMore:        limit < len(events),
		},
		Events: make([]ListedEvent, 0, displayed),
	}
	for i, ev := range events[:displayed] {
		result.Events = append(result.Events, listedEvent(conv, i+1, ev))
	}
	return result
}

func listedEvent(conv *google.Converter, index int, ev *calendar.Event) ListedEvent {
	out := ListedEvent{
		Index:       index,
		ID:          ev.Id,
		Summary:     ev.Summary,
		Location:    optional(ev.Location),
		Description: optional(ev.Description),
	}
	if out.Summary == "" {
		out.Summary = untitled
	}
	start, startErr := conv.DecodeDateTime(ev.Start)
	if startErr == nil {
		out.Start = start.Format(models.LocalDateTimeLayout)
	}
	end, endErr := conv.DecodeDateTime(ev.End)
	if endErr == nil {
		out.End = end.Format(models.LocalDateTimeLayout)
	}
	if startErr == nil && endErr == nil {
		out.DurationMinutes = int64(end.Sub(start).Minutes())
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FormatEvents renders events in the given output format.
func FormatEvents(conv *google.Converter, events []*calendar.Event, limit int, format string) (string, error) {
	switch format {
	case "", FormatJSON:
		b, err := json.Marshal(BuildListResult(conv, events, limit))
		if err != nil {
			return "", fmt.Errorf("failed to marshal events: %w", err)
		}
		return string(b), nil
	case FormatICS:
		if len(events) > limit {
			events = events[:limit]
		}
		var buf bytes.Buffer
		if err := ics.Encode(&buf, events); err != nil {
			return "", fmt.Errorf("failed to encode events: %w", err)
		}
		return buf.String(), nil
	}
	return "", fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, format)
}
