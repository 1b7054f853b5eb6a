package nodes

import (
	"context"
	"fmt"

	"flowcal/internal/models"
	"flowcal/internal/vars"
)

// Delete removes an event and stores a confirmation message in the result variable.
func (r *Runner) Delete(ctx context.Context, cfg DeleteConfig, store vars.Store) (string, error) {
	const node = "delete"
	if err := cfg.Validate(); err != nil {
		return "", r.fail(node, err)
	}
	notify, _ := models.ParseNotifyPolicy(cfg.SendUpdates)

	eventID := stripQuotes(vars.Resolve(cfg.EventID, store))
	if eventID == "" {
		return "", r.fail(node, fmt.Errorf("%w: event id", models.ErrMissingField))
	}

	r.logger.Info("Deleting event", "id", eventID, "sendUpdates", notify)
	if err := r.client.Delete(ctx, r.calendarID, eventID, notify); err != nil {
		return "", r.fail(node, fmt.Errorf("error deleting event: %w", err))
	}

	msg := deletedMessage(eventID, notify)
	if err := r.setResult(store, cfg.ResultVariable, msg); err != nil {
		return "", r.fail(node, err)
	}
	r.logger.Info(msg)
	return msg, nil
}

func deletedMessage(eventID string, notify models.NotifyPolicy) string {
	msg := "Event deleted successfully: " + eventID
	switch notify {
	case models.NotifyAll:
		msg += " (participants notified)"
	case models.NotifyNone:
		msg += " (no notifications sent)"
	case models.NotifyExternalOnly:
		msg += " (external participants notified)"
	}
	return msg
}
