package nodes

import (
	"context"
	"fmt"
	"time"

	"flowcal/internal/models"
	"flowcal/internal/vars"
)

// Update changes an existing event and stores its id in the result variable.
// Summary, start or end left empty are checked against the current event but
// left out of the patch, so the stored values (all-day dates included) stay.
func (r *Runner) Update(ctx context.Context, cfg UpdateConfig, store vars.Store) (string, error) {
	const node = "update"
	if err := cfg.Validate(); err != nil {
		return "", r.fail(node, err)
	}
	notify, _ := models.ParseNotifyPolicy(cfg.SendUpdates)

	eventID := stripQuotes(vars.Resolve(cfg.EventID, store))
	if eventID == "" {
		return "", r.fail(node, fmt.Errorf("%w: event id", models.ErrMissingField))
	}

	summary := vars.Resolve(cfg.Summary, store)
	description := vars.Resolve(cfg.Description, store)
	location := vars.Resolve(cfg.Location, store)

	var start, end time.Time
	var err error
	if in := vars.Resolve(cfg.StartTime, store); in != "" {
		if start, err = models.ParseLocalDateTime(in, "Start Time", r.loc); err != nil {
			return "", r.fail(node, err)
		}
	}
	if in := vars.Resolve(cfg.EndTime, store); in != "" {
		if end, err = models.ParseLocalDateTime(in, "End Time", r.loc); err != nil {
			return "", r.fail(node, err)
		}
	}
	reminders, err := models.ParseReminders(vars.Resolve(cfg.Reminders, store))
	if err != nil {
		return "", r.fail(node, err)
	}

	summaryGiven, startGiven, endGiven := summary != "", !start.IsZero(), !end.IsZero()
	if !summaryGiven || !startGiven || !endGiven {
		current, err := r.current(ctx, eventID)
		if err != nil {
			return "", r.fail(node, err)
		}
		if summary == "" {
			summary = current.Summary()
		}
		if start.IsZero() {
			start = current.StartTime()
		}
		if end.IsZero() {
			end = current.EndTime()
		}
	}

	req, err := models.NewEventRequest(summary, start, end,
		models.WithDescription(description),
		models.WithLocation(location),
		models.WithReminders(reminders...),
	)
	if err != nil {
		return "", r.fail(node, err)
	}

	record := r.converter.ToRecord(req)
	if !summaryGiven {
		record.Summary = ""
	}
	if !startGiven {
		record.Start = nil
	}
	if !endGiven {
		record.End = nil
	}

	r.logger.Info("Updating event", "id", eventID, "event", req.String(), "sendUpdates", notify)
	updated, err := r.client.Update(ctx, r.calendarID, eventID, record, notify)
	if err != nil {
		return "", r.fail(node, fmt.Errorf("error updating event: %w", err))
	}

	if err := r.setResult(store, cfg.ResultVariable, updated.Id); err != nil {
		return "", r.fail(node, err)
	}
	r.logger.Info("Event updated", "id", updated.Id)
	return updated.Id, nil
}

func (r *Runner) current(ctx context.Context, eventID string) (*models.EventRequest, error) {
	existing, err := r.client.Get(ctx, r.calendarID, eventID)
	if err != nil {
		return nil, fmt.Errorf("error reading event: %w", err)
	}
	req, err := r.converter.FromRecord(existing)
	if err != nil {
		return nil, fmt.Errorf("event %s cannot be completed from the calendar: %w", eventID, err)
	}
	return req, nil
}
