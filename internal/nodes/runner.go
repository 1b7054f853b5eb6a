// Package nodes implements the create, update, list and delete calendar nodes.
// Each node resolves its configured inputs against the flow's variables, makes
// one call to the calendar and writes its result variable only on success.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flowcal/internal/google"
	"flowcal/internal/models"
	"flowcal/internal/vars"

	"google.golang.org/api/calendar/v3"
)

// ErrInvalidConfig is returned when a node configuration is structurally invalid.
var ErrInvalidConfig = errors.New("invalid node configuration")

// CalendarClient is the calendar capability the nodes need.
type CalendarClient interface {
	Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
	Update(ctx context.Context, calendarID, eventID string, event *calendar.Event, notify models.NotifyPolicy) (*calendar.Event, error)
	Delete(ctx context.Context, calendarID, eventID string, notify models.NotifyPolicy) error
	List(ctx context.Context, calendarID string, filter models.ListFilter) ([]*calendar.Event, error)
}

// ExecutionError is the single failure reported by a node run.
type ExecutionError struct {
	Node string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s node: %v", e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsInputError reports whether err was caused by the node's inputs rather than the provider.
func IsInputError(err error) bool {
	return errors.Is(err, models.ErrMissingField) ||
		errors.Is(err, models.ErrInvalidDateTime) ||
		errors.Is(err, models.ErrInvalidReminder) ||
		errors.Is(err, ErrInvalidConfig)
}

// Runner executes nodes against one calendar.
type Runner struct {
	logger     *slog.Logger
	client     CalendarClient
	calendarID string
	loc        *time.Location
	converter  *google.Converter
	now        func() time.Time
}

// NewRunner creates a Runner. A nil location means the local zone.
func NewRunner(logger *slog.Logger, client CalendarClient, calendarID string, loc *time.Location) (*Runner, error) {
	if client == nil {
		return nil, errors.New("calendar client is required")
	}
	if calendarID == "" {
		return nil, errors.New("calendar id is required")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Runner{
		logger:     logger,
		client:     client,
		calendarID: calendarID,
		loc:        loc,
		converter:  google.NewConverter(loc),
		now:        time.Now,
	}, nil
}

func (r *Runner) fail(node string, err error) error {
	r.logger.Error("Node failed", "node", node, "error", err)
	return &ExecutionError{Node: node, Err: err}
}

// setResult writes the node's output variable.
func (r *Runner) setResult(store vars.Store, rawName, value string) error {
	name := vars.Resolve(rawName, store)
	if name == "" {
		return fmt.Errorf("%w: result variable resolved to an empty name", ErrInvalidConfig)
	}
	if err := store.Set(name, value); err != nil {
		return fmt.Errorf("failed to set %q: %w", name, err)
	}
	r.logger.Debug("Stored result", "variable", name)
	return nil
}

func stripQuotes(s string) string {
	return strings.Trim(s, `"'`)
}
