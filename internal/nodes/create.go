package nodes

import (
	"context"
	"fmt"

	"flowcal/internal/models"
	"flowcal/internal/vars"
)

// Create inserts a new event and stores its id in the result variable.
func (r *Runner) Create(ctx context.Context, cfg CreateConfig, store vars.Store) (string, error) {
	const node = "create"
	if err := cfg.Validate(); err != nil {
		return "", r.fail(node, err)
	}

	summary := vars.Resolve(cfg.Summary, store)
	if summary == "" {
		return "", r.fail(node, fmt.Errorf("%w: event title (summary)", models.ErrMissingField))
	}
	start, err := models.ParseLocalDateTime(vars.Resolve(cfg.StartTime, store), "Start Time", r.loc)
	if err != nil {
		return "", r.fail(node, err)
	}
	end, err := models.ParseLocalDateTime(vars.Resolve(cfg.EndTime, store), "End Time", r.loc)
	if err != nil {
		return "", r.fail(node, err)
	}
	reminders, err := models.ParseReminders(vars.Resolve(cfg.Reminders, store))
	if err != nil {
		return "", r.fail(node, err)
	}

	req, err := models.NewEventRequest(summary, start, end,
		models.WithDescription(vars.Resolve(cfg.Description, store)),
		models.WithLocation(vars.Resolve(cfg.Location, store)),
		models.WithReminders(reminders...),
	)
	if err != nil {
		return "", r.fail(node, err)
	}

	r.logger.Info("Creating event", "event", req.String())
	created, err := r.client.Insert(ctx, r.calendarID, r.converter.ToRecord(req))
	if err != nil {
		return "", r.fail(node, fmt.Errorf("error creating event: %w", err))
	}

	if err := r.setResult(store, cfg.ResultVariable, created.Id); err != nil {
		return "", r.fail(node, err)
	}
	r.logger.Info("Event created", "id", created.Id, "summary", req.Summary())
	return created.Id, nil
}
