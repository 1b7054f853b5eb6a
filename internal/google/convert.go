package google

import (
	"fmt"
	"time"

	"flowcal/internal/models"

	"google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// Converter maps between EventRequest and the Calendar API event representation.
// Local date-times are interpreted in its location; a nil location means the
// system's local zone at conversion time.
type Converter struct {
	loc *time.Location
}

// NewConverter returns a Converter for loc (nil for the local zone).
func NewConverter(loc *time.Location) *Converter {
	return &Converter{loc: loc}
}

func (c *Converter) location() *time.Location {
	if c == nil || c.loc == nil {
		return time.Local
	}
	return c.loc
}

// ToRecord converts req to an event ready for insert or patch.
// Empty description and location are omitted so they do not overwrite existing values.
func (c *Converter) ToRecord(req *models.EventRequest) *calendar.Event {
	event := &calendar.Event{
		Summary:     req.Summary(),
		Description: req.Description(),
		Location:    req.Location(),
		Start:       c.EncodeDateTime(req.StartTime()),
		End:         c.EncodeDateTime(req.EndTime()),
	}

	if reminders := req.Reminders(); len(reminders) > 0 {
		overrides := make([]*calendar.EventReminder, 0, len(reminders))
		for _, r := range reminders {
			overrides = append(overrides, &calendar.EventReminder{
				Method:  string(r.Method),
				Minutes: int64(r.Minutes),
				// zero minutes is a valid lead time
				ForceSendFields: []string{"Minutes"},
			})
		}
		event.Reminders = &calendar.EventReminders{
			UseDefault: false,
			Overrides:  overrides,
			// UseDefault=false would otherwise be dropped as a zero value
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return event
}

// FromRecord converts an API event back to an EventRequest.
// It fails when summary, start or end is missing.
func (c *Converter) FromRecord(event *calendar.Event) (*models.EventRequest, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: event", models.ErrMissingField)
	}

	start, err := c.DecodeDateTime(event.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := c.DecodeDateTime(event.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	opts := []models.EventOption{
		models.WithDescription(event.Description),
		models.WithLocation(event.Location),
	}
	if event.Reminders != nil && len(event.Reminders.Overrides) > 0 {
		reminders := make([]models.Reminder, 0, len(event.Reminders.Overrides))
		for _, o := range event.Reminders.Overrides {
			reminders = append(reminders, models.Reminder{
				Method:  models.ReminderMethod(o.Method),
				Minutes: int(o.Minutes),
			})
		}
		opts = append(opts, models.WithReminders(reminders...))
	}

	return models.NewEventRequest(event.Summary, start, end, opts...)
}

// EncodeDateTime encodes t as an RFC 3339 date-time with the converter's offset.
func (c *Converter) EncodeDateTime(t time.Time) *calendar.EventDateTime {
	loc := c.location()
	edt := &calendar.EventDateTime{
		DateTime: t.In(loc).Format(time.RFC3339),
	}
	if name := loc.String(); name != "Local" {
		if _, err := time.LoadLocation(name); err == nil {
			edt.TimeZone = name
		}
	}
	return edt
}

// DecodeDateTime reads a date-time or date-only value. Date-only values are midnight local time.
func (c *Converter) DecodeDateTime(edt *calendar.EventDateTime) (time.Time, error) {
	loc := c.location()
	switch {
	case edt == nil:
	case edt.DateTime != "":
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDateTime, edt.DateTime)
		}
		return t.In(loc), nil
	case edt.Date != "":
		t, err := time.ParseInLocation(dateLayout, edt.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDateTime, edt.Date)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: date-time", models.ErrMissingField)
}
