package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingField is returned when a required input is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrInvalidDateTime is returned when a date-time input cannot be parsed.
	ErrInvalidDateTime = errors.New("invalid date-time")
	// ErrInvalidReminder is returned for malformed reminder specs.
	ErrInvalidReminder = errors.New("invalid reminder")
)

// EventRequest is the provider-neutral description of an event to create or update.
// It is immutable once built; use NewEventRequest to construct one.
type EventRequest struct {
	summary     string
	description string
	location    string
	startTime   time.Time
	endTime     time.Time
	reminders   []Reminder
}

// EventOption sets an optional field on an EventRequest under construction.
type EventOption func(*EventRequest)

// WithDescription sets the event description. An empty value leaves it unset.
func WithDescription(description string) EventOption {
	return func(r *EventRequest) { r.description = description }
}

// WithLocation sets the event location. An empty value leaves it unset.
func WithLocation(location string) EventOption {
	return func(r *EventRequest) { r.location = location }
}

// WithReminders sets the reminder overrides, in order.
func WithReminders(reminders ...Reminder) EventOption {
	return func(r *EventRequest) {
		r.reminders = append([]Reminder(nil), reminders...)
	}
}

// NewEventRequest builds an EventRequest. Summary, start and end are required.
func NewEventRequest(summary string, start, end time.Time, opts ...EventOption) (*EventRequest, error) {
	if summary == "" {
		return nil, fmt.Errorf("%w: summary", ErrMissingField)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start time", ErrMissingField)
	}
	if end.IsZero() {
		return nil, fmt.Errorf("%w: end time", ErrMissingField)
	}

	r := &EventRequest{
		summary:   summary,
		startTime: start,
		endTime:   end,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, rem := range r.reminders {
		if err := rem.Validate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Summary returns the event title.
func (r *EventRequest) Summary() string { return r.summary }

// Description returns the event description, possibly empty.
func (r *EventRequest) Description() string { return r.description }

// Location returns the event location, possibly empty.
func (r *EventRequest) Location() string { return r.location }

// StartTime returns the start in the zone it was parsed in.
func (r *EventRequest) StartTime() time.Time { return r.startTime }

// EndTime returns the end in the zone it was parsed in.
func (r *EventRequest) EndTime() time.Time { return r.endTime }

// Reminders returns a copy of the reminder overrides.
func (r *EventRequest) Reminders() []Reminder {
	if len(r.reminders) == 0 {
		return nil
	}
	return append([]Reminder(nil), r.reminders...)
}

// String formats the request for logs.
func (r *EventRequest) String() string {
	return fmt.Sprintf("Event{title=%q, start=%s, end=%s, location=%q}",
		r.summary, r.startTime.Format(LocalDateTimeLayout), r.endTime.Format(LocalDateTimeLayout), r.location)
}
