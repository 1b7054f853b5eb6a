// Package ics maps Calendar API events to and from iCalendar components.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"google.golang.org/api/calendar/v3"
)

const (
	productID = "-//flowcal//EN"
	// propMethod keeps the reminder method, since VALARM actions have no sms.
	propMethod = "X-FLOWCAL-METHOD"
	dateLayout = "2006-01-02"
)

// NewCalendar returns an empty VCALENDAR with version and product id set.
func NewCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

// ToComponent converts an API event to a VEVENT with the given UID.
func ToComponent(uid string, event *calendar.Event) (*ical.Component, error) {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if event.Summary != "" {
		ve.Props.SetText(ical.PropSummary, event.Summary)
	}
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}

	if err := setDateTime(ve.Props, ical.PropDateTimeStart, event.Start); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if err := setDateTime(ve.Props, ical.PropDateTimeEnd, event.End); err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	if event.Reminders != nil {
		for _, o := range event.Reminders.Overrides {
			ve.Children = append(ve.Children, alarm(o))
		}
	}
	return ve, nil
}

func setDateTime(props ical.Props, name string, edt *calendar.EventDateTime) error {
	switch {
	case edt == nil:
	case edt.DateTime != "":
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return fmt.Errorf("invalid date-time %q: %w", edt.DateTime, err)
		}
		props.SetDateTime(name, t.UTC())
	case edt.Date != "":
		t, err := time.Parse(dateLayout, edt.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", edt.Date, err)
		}
		props.SetDate(name, t)
	}
	return nil
}

func alarm(r *calendar.EventReminder) *ical.Component {
	va := ical.NewComponent(ical.CompAlarm)
	action := "DISPLAY"
	if r.Method == "email" {
		action = "EMAIL"
	}
	va.Props.SetText(ical.PropAction, action)
	va.Props.SetText(ical.PropDescription, "Reminder")
	va.Props.SetText(propMethod, r.Method)

	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", r.Minutes)
	va.Props.Set(trigger)
	return va
}

// FromComponent converts a VEVENT back to an API event. The event id is the UID.
// Times are returned as RFC 3339 date-times, or dates for DATE values; floating
// times are read in loc.
func FromComponent(ve *ical.Component, loc *time.Location) (*calendar.Event, error) {
	if ve.Name != ical.CompEvent {
		return nil, fmt.Errorf("unexpected component %s", ve.Name)
	}
	uid, err := ve.Props.Text(ical.PropUID)
	if err != nil {
		return nil, fmt.Errorf("uid: %w", err)
	}

	event := &calendar.Event{Id: uid, ICalUID: uid}
	event.Summary, _ = ve.Props.Text(ical.PropSummary)
	event.Description, _ = ve.Props.Text(ical.PropDescription)
	event.Location, _ = ve.Props.Text(ical.PropLocation)

	if event.Start, err = eventDateTime(ve.Props, ical.PropDateTimeStart, loc); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if event.End, err = eventDateTime(ve.Props, ical.PropDateTimeEnd, loc); err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	var overrides []*calendar.EventReminder
	for _, child := range ve.Children {
		if child.Name != ical.CompAlarm {
			continue
		}
		r, err := reminder(child)
		if err != nil {
			return nil, err
		}
		if r != nil {
			overrides = append(overrides, r)
		}
	}
	if len(overrides) > 0 {
		event.Reminders = &calendar.EventReminders{Overrides: overrides, ForceSendFields: []string{"UseDefault"}}
	}
	return event, nil
}

func eventDateTime(props ical.Props, name string, loc *time.Location) (*calendar.EventDateTime, error) {
	prop := props.Get(name)
	if prop == nil {
		return nil, nil
	}
	t, err := prop.DateTime(loc)
	if err != nil {
		return nil, err
	}
	if prop.ValueType() == ical.ValueDate {
		return &calendar.EventDateTime{Date: t.Format(dateLayout)}, nil
	}
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}, nil
}

func reminder(va *ical.Component) (*calendar.EventReminder, error) {
	method, _ := va.Props.Text(propMethod)
	if method == "" {
		action, _ := va.Props.Text(ical.PropAction)
		method = "popup"
		if strings.EqualFold(action, "EMAIL") {
			method = "email"
		}
	}

	trigger := va.Props.Get(ical.PropTrigger)
	if trigger == nil {
		return nil, fmt.Errorf("alarm without trigger")
	}
	// absolute triggers have no lead time
	if trigger.ValueType() == ical.ValueDateTime {
		return nil, nil
	}
	d, err := trigger.Duration()
	if err != nil {
		return nil, fmt.Errorf("alarm trigger %q: %w", trigger.Value, err)
	}
	// triggers after the start fire at the start at the earliest
	minutes := max(int64(-d/time.Minute), 0)
	return &calendar.EventReminder{
		Method:          method,
		Minutes:         minutes,
		ForceSendFields: []string{"Minutes"},
	}, nil
}

// Encode writes events as one VCALENDAR document. Events without an id get a
// positional UID. No events writes nothing, since a VCALENDAR needs at least
// one component.
func Encode(w io.Writer, events []*calendar.Event) error {
	if len(events) == 0 {
		return nil
	}
	cal := NewCalendar()
	for i, event := range events {
		uid := event.ICalUID
		if uid == "" {
			uid = event.Id
		}
		if uid == "" {
			uid = fmt.Sprintf("event-%d@flowcal", i+1)
		}
		ve, err := ToComponent(uid, event)
		if err != nil {
			return fmt.Errorf("event %s: %w", uid, err)
		}
		cal.Children = append(cal.Children, ve)
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}
