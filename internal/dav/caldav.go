// Package dav implements the calendar client capability on top of a CalDAV server.
package dav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"flowcal/internal/ics"
	"flowcal/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

const (
	iCloudCalDAVEndpoint = "https://caldav.icloud.com/"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	UserAgent string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", t.UserAgent)
	return t.Transport.RoundTrip(req)
}

// Options configures NewClient.
type Options struct {
	// Endpoint defaults to iCloud.
	Endpoint        string
	Username        string
	Password        string
	CalendarName    string
	ApplicationName string
	// Location is used for floating times. Nil means the local zone.
	Location *time.Location
}

// CalDAVClient is a client for a single calendar on a CalDAV server.
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
	loc          *time.Location
}

// NewClient connects to the server and finds the calendar named opts.CalendarName.
func NewClient(ctx context.Context, logger *slog.Logger, opts Options) (*CalDAVClient, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = iCloudCalDAVEndpoint
	}
	userAgent := opts.ApplicationName
	if userAgent == "" {
		userAgent = "flowcal/1.0"
	}

	httpClient := &http.Client{Transport: &customTransport{
		Username:  opts.Username,
		Password:  opts.Password,
		UserAgent: userAgent,
		Transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		loc:          opts.Location,
	}
	if c.loc == nil {
		c.loc = time.Local
	}

	logger.Info("Finding CalDAV calendar", "calendarName", opts.CalendarName)
	calendarPath, err := c.findCalendar(ctx, opts.CalendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", opts.CalendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Found CalDAV calendar", "path", calendarPath)

	return c, nil
}

// CalendarPath is the collection path of the calendar, used as its calendar id.
func (c *CalDAVClient) CalendarPath() string {
	return c.calendarPath
}

// Insert stores a new event under a fresh UUID.
func (c *CalDAVClient) Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	uid := uuid.New().String()
	created, err := c.put(ctx, calendarID, uid, uid, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	c.logger.Info("Created CalDAV event", "summary", event.Summary, "id", uid)
	return created, nil
}

// Get fetches a single event by id.
func (c *CalDAVClient) Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	obj, err := c.caldavClient.GetCalendarObject(ctx, objectPath(calendarID, eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	event, err := c.fromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	return event, nil
}

// Update merges the non-empty fields of event into the stored event.
// CalDAV has no notification policy; notify is only logged.
func (c *CalDAVClient) Update(ctx context.Context, calendarID, eventID string, event *calendar.Event, notify models.NotifyPolicy) (*calendar.Event, error) {
	existing, err := c.Get(ctx, calendarID, eventID)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Updating CalDAV event", "id", eventID, "sendUpdates", notify)

	merged := merge(existing, event)
	uid := existing.ICalUID
	if uid == "" {
		uid = eventID
	}
	updated, err := c.put(ctx, calendarID, eventID, uid, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	return updated, nil
}

// Delete removes an event.
func (c *CalDAVClient) Delete(ctx context.Context, calendarID, eventID string, notify models.NotifyPolicy) error {
	c.logger.Debug("Deleting CalDAV event", "id", eventID, "sendUpdates", notify)
	if err := c.caldavClient.RemoveAll(ctx, objectPath(calendarID, eventID)); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

// List queries the calendar's events. The time range is sent to the server when
// both bounds are set; query, ordering and the result cap apply locally.
func (c *CalDAVClient) List(ctx context.Context, calendarID string, filter models.ListFilter) ([]*calendar.Event, error) {
	eventFilter := caldav.CompFilter{Name: ical.CompEvent}
	if !filter.TimeMin.IsZero() && !filter.TimeMax.IsZero() {
		eventFilter.Start = filter.TimeMin
		eventFilter.End = filter.TimeMax
	}
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{eventFilter},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, calendarID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	events := make([]*calendar.Event, 0, len(objects))
	for i := range objects {
		event, err := c.fromObject(&objects[i])
		if err != nil {
			c.logger.Warn("Skipping unreadable calendar object", "path", objects[i].Path, "error", err)
			continue
		}
		events = append(events, event)
	}

	events = applyFilter(events, filter, c.loc)
	c.logger.Info("Fetched events from CalDAV", "count", len(events), "calendar", calendarID)
	return events, nil
}

func (c *CalDAVClient) put(ctx context.Context, calendarID, eventID, uid string, event *calendar.Event) (*calendar.Event, error) {
	ve, err := ics.ToComponent(uid, event)
	if err != nil {
		return nil, err
	}
	cal := ics.NewCalendar()
	cal.Children = append(cal.Children, ve)

	if _, err := c.caldavClient.PutCalendarObject(ctx, objectPath(calendarID, eventID), cal); err != nil {
		return nil, err
	}

	stored, err := ics.FromComponent(ve, c.loc)
	if err != nil {
		return nil, err
	}
	stored.Id = eventID
	return stored, nil
}

func (c *CalDAVClient) fromObject(obj *caldav.CalendarObject) (*calendar.Event, error) {
	if obj.Data == nil {
		return nil, fmt.Errorf("empty calendar object")
	}
	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		event, err := ics.FromComponent(child, c.loc)
		if err != nil {
			return nil, err
		}
		event.Id = eventIDFromPath(obj.Path)
		return event, nil
	}
	return nil, fmt.Errorf("no VEVENT in %s", obj.Path)
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

func objectPath(calendarPath, eventID string) string {
	return path.Join(calendarPath, eventID+".ics")
}

func eventIDFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), ".ics")
}
