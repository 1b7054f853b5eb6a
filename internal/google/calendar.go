package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"flowcal/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Credentials locates the Google credentials used by NewClient.
type Credentials struct {
	// File is a service account key or an OAuth client secret file.
	File string
	// TokenFile holds the OAuth token written by the auth command. Unused for service accounts.
	TokenFile       string
	ApplicationName string
}

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates a new Google Calendar client.
// A service account key is tried first; an OAuth client secret file falls back
// to the token saved by the auth command.
func NewClient(ctx context.Context, logger *slog.Logger, creds Credentials) (*CalendarClient, error) {
	data, err := os.ReadFile(creds.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	ts, err := tokenSource(ctx, data, creds.TokenFile)
	if err != nil {
		return nil, err
	}

	service, err := calendar.NewService(ctx,
		option.WithTokenSource(ts),
		option.WithUserAgent(creds.ApplicationName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// NewClientFromHTTP creates a client on top of a pre-configured HTTP client.
func NewClientFromHTTP(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, logger: logger}, nil
}

func tokenSource(ctx context.Context, credentialsJSON []byte, tokenFile string) (oauth2.TokenSource, error) {
	if jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarScope); err == nil {
		return jwtConfig.TokenSource(ctx), nil
	}

	config, err := google.ConfigFromJSON(credentialsJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unsupported credentials format: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Please run the 'auth' command first", tokenFile, err)
	}
	return config.TokenSource(ctx, token), nil
}

// Insert creates an event.
func (c *CalendarClient) Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	c.logger.Debug("Inserting event", "calendarID", calendarID, "summary", event.Summary)
	created, err := c.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	return created, nil
}

// Get fetches a single event.
func (c *CalendarClient) Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	event, err := c.service.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar event %s: %w", eventID, err)
	}
	return event, nil
}

// Update patches an event. Fields left empty in event keep their current value.
func (c *CalendarClient) Update(ctx context.Context, calendarID, eventID string, event *calendar.Event, notify models.NotifyPolicy) (*calendar.Event, error) {
	c.logger.Debug("Updating event", "calendarID", calendarID, "eventID", eventID, "sendUpdates", notify)
	updated, err := c.service.Events.Patch(calendarID, eventID, event).
		SendUpdates(string(notify)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update calendar event %s: %w", eventID, err)
	}
	return updated, nil
}

// Delete removes an event.
func (c *CalendarClient) Delete(ctx context.Context, calendarID, eventID string, notify models.NotifyPolicy) error {
	c.logger.Debug("Deleting event", "calendarID", calendarID, "eventID", eventID, "sendUpdates", notify)
	err := c.service.Events.Delete(calendarID, eventID).
		SendUpdates(string(notify)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to delete calendar event %s: %w", eventID, err)
	}
	return nil
}

// List fetches one page of events matching filter.
func (c *CalendarClient) List(ctx context.Context, calendarID string, filter models.ListFilter) ([]*calendar.Event, error) {
	call := c.service.Events.List(calendarID).ShowDeleted(false).Context(ctx)
	if !filter.TimeMin.IsZero() {
		call = call.TimeMin(filter.TimeMin.Format(time.RFC3339))
	}
	if !filter.TimeMax.IsZero() {
		call = call.TimeMax(filter.TimeMax.Format(time.RFC3339))
	}
	if filter.Query != "" {
		call = call.Q(filter.Query)
	}
	if filter.MaxResults > 0 {
		call = call.MaxResults(filter.MaxResults)
	}
	if filter.OrderByStartTime {
		// ordering by start time requires recurring events to be expanded
		call = call.SingleEvents(true).OrderBy("startTime")
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return events.Items, nil
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
