package nodes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"flowcal/internal/models"
	"flowcal/internal/vars"
)

const defaultMaxResults = 10

// List fetches events in the configured mode and stores the formatted result.
func (r *Runner) List(ctx context.Context, cfg ListConfig, store vars.Store) (string, error) {
	const node = "list"
	if err := cfg.Validate(); err != nil {
		return "", r.fail(node, err)
	}
	mode, _ := ParseListMode(cfg.Mode)
	limit := r.maxResults(vars.Resolve(cfg.MaxResults, store))

	filter := models.ListFilter{MaxResults: int64(limit)}
	switch mode {
	case ModeUpcoming:
		filter.TimeMin = r.now()
		filter.OrderByStartTime = true
	case ModeTimeRange:
		start, err := models.ParseLocalDateTime(vars.Resolve(cfg.StartTime, store), "Start Time", r.loc)
		if err != nil {
			return "", r.fail(node, err)
		}
		end, err := models.ParseLocalDateTime(vars.Resolve(cfg.EndTime, store), "End Time", r.loc)
		if err != nil {
			return "", r.fail(node, err)
		}
		filter.TimeMin, filter.TimeMax = start, end
		filter.OrderByStartTime = true
	case ModeSearch:
		query := strings.TrimSpace(vars.Resolve(cfg.SearchQuery, store))
		if query == "" {
			return "", r.fail(node, fmt.Errorf("%w: search query", models.ErrMissingField))
		}
		filter.Query = query
	case ModeAll:
		filter.OrderByStartTime = true
	}

	r.logger.Info("Listing events", "mode", mode, "maxResults", limit)
	events, err := r.client.List(ctx, r.calendarID, filter)
	if err != nil {
		return "", r.fail(node, fmt.Errorf("error listing events: %w", err))
	}

	out, err := FormatEvents(r.converter, events, limit, cfg.Format)
	if err != nil {
		return "", r.fail(node, err)
	}
	if err := r.setResult(store, cfg.ResultVariable, out); err != nil {
		return "", r.fail(node, err)
	}
	r.logger.Info("Events listed", "count", len(events))
	return out, nil
}

func (r *Runner) maxResults(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultMaxResults
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		r.logger.Warn("Invalid max results, using default", "value", raw, "default", defaultMaxResults)
		return defaultMaxResults
	}
	return n
}
