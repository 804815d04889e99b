package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"meetslot/internal/icalendar"
	"meetslot/internal/models"
)

const (
	// DefaultEndpoint is the iCloud CalDAV server.
	DefaultEndpoint = "https://caldav.icloud.com/"
)

// customTransport adds custom headers to requests.
type customTransport struct {
	Transport http.RoundTripper
}

// RoundTrip sets the User-Agent on each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "meetslot/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient reads events from one calendar on a CalDAV server.
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
	username     string
}

// NewClient connects to endpoint and locates the calendar named calendarName.
// An empty endpoint means iCloud.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string) (*CalDAVClient, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{
		Transport: &customTransport{Transport: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}, username, password)

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		username:     username,
	}

	logger.Info("Finding CalDAV calendar", "endpoint", endpoint, "calendarName", calendarName)
	calendarPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

// GetDayEvents returns the events overlapping [start, end). The username is
// treated as the calendar owner and blocked by every event.
func (c *CalDAVClient) GetDayEvents(ctx context.Context, start, end time.Time) ([]*models.Event, error) {
	c.logger.Debug("Querying CalDAV calendar", "path", c.calendarPath, "start", start, "end", end)

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, dayQuery(start, end))
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	var events []*models.Event
	for _, obj := range objects {
		converted, err := icalendar.Events(obj.Data, icalendar.Options{
			Source:      "caldav-" + c.calendarPath,
			Owner:       c.owner(),
			Location:    start.Location(),
			WindowStart: start,
			WindowEnd:   end,
			Logger:      c.logger,
		})
		if err != nil {
			c.logger.Error("Failed to convert calendar object", "path", obj.Path, "error", err)
			continue
		}
		for _, e := range converted {
			if e.UID == "" {
				e.UID = GenerateUID()
				e.ID = e.UID
			}
		}
		events = append(events, converted...)
	}

	c.logger.Info("Successfully fetched events from CalDAV", "count", len(events), "objects", len(objects))
	return events, nil
}

// owner returns the username when it looks like a mail address.
func (c *CalDAVClient) owner() string {
	if strings.Contains(c.username, "@") {
		return c.username
	}
	return ""
}

// dayQuery asks for complete VEVENTs overlapping [start, end).
func dayQuery(start, end time.Time) *caldav.CalendarQuery {
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}
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

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
