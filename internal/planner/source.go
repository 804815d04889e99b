package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetslot/internal/config"
	"meetslot/internal/google"
	"meetslot/internal/icalendar"
	"meetslot/internal/icloud"
	"meetslot/internal/models"
)

// Source is a calendar the planner reads busy time from.
type Source interface {
	Name() string
	// DayEvents returns the events overlapping [start, end).
	DayEvents(ctx context.Context, start, end time.Time) ([]*models.Event, error)
}

// ICSSource reads a local .ics file on every call.
type ICSSource struct {
	logger *slog.Logger
	path   string
	owner  string
}

func NewICSSource(logger *slog.Logger, path, owner string) *ICSSource {
	return &ICSSource{logger: logger, path: path, owner: owner}
}

func (s *ICSSource) Name() string { return "ics:" + s.path }

func (s *ICSSource) DayEvents(ctx context.Context, start, end time.Time) ([]*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, err := icalendar.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return icalendar.Events(cal, icalendar.Options{
		Source:      "ics-" + s.path,
		Owner:       s.owner,
		Location:    start.Location(),
		WindowStart: start,
		WindowEnd:   end,
		Logger:      s.logger,
	})
}

// GoogleSource reads one calendar of an authenticated Google account.
type GoogleSource struct {
	client     *google.CalendarClient
	calendarID string
}

func NewGoogleSource(client *google.CalendarClient, calendarID string) *GoogleSource {
	return &GoogleSource{client: client, calendarID: calendarID}
}

func (s *GoogleSource) Name() string {
	return fmt.Sprintf("google:%s/%s", s.client.Account(), s.calendarID)
}

func (s *GoogleSource) DayEvents(ctx context.Context, start, end time.Time) ([]*models.Event, error) {
	return s.client.GetDayEvents(ctx, s.calendarID, start, end)
}

// CalDAVSource reads one calendar on a CalDAV server.
type CalDAVSource struct {
	client   *icloud.CalDAVClient
	calendar string
}

func NewCalDAVSource(client *icloud.CalDAVClient, calendar string) *CalDAVSource {
	return &CalDAVSource{client: client, calendar: calendar}
}

func (s *CalDAVSource) Name() string { return "caldav:" + s.calendar }

func (s *CalDAVSource) DayEvents(ctx context.Context, start, end time.Time) ([]*models.Event, error) {
	return s.client.GetDayEvents(ctx, start, end)
}

// Credentials holds the secrets that never live in a meeting file.
type Credentials struct {
	GoogleClientID     string
	GoogleClientSecret string
	CalDAVUsername     string
	CalDAVPassword     string
}

// BuildSources connects every source of the config. Google sources without
// an account expand to one source per saved token.
func BuildSources(ctx context.Context, logger *slog.Logger, sources []config.Source, creds Credentials) ([]Source, error) {
	var out []Source
	for i, sc := range sources {
		switch sc.Kind {
		case config.KindICS:
			out = append(out, NewICSSource(logger, sc.Path, sc.Owner))

		case config.KindGoogle:
			accounts := []string{sc.Account}
			if sc.Account == "" {
				found, err := google.GetTokenAccounts(".")
				if err != nil {
					return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
				}
				if len(found) == 0 {
					return nil, errors.New("no google accounts found. Run the 'auth' command first")
				}
				accounts = found
			}
			for _, acc := range accounts {
				client, err := google.NewClient(ctx, logger, creds.GoogleClientID, creds.GoogleClientSecret, acc)
				if err != nil {
					return nil, fmt.Errorf("failed to create google client for account %s: %w", acc, err)
				}
				ids := sc.CalendarIDs
				if len(ids) == 0 {
					ids, err = client.DiscoverGoogleCalendars(ctx)
					if err != nil {
						return nil, fmt.Errorf("failed to discover calendars for account %s: %w", acc, err)
					}
					logger.Info("Discovered Google calendars.", "account", acc, "count", len(ids))
				}
				for _, id := range ids {
					out = append(out, NewGoogleSource(client, id))
				}
			}
			logger.Info("Initialized Google sources.", "accounts", len(accounts))

		case config.KindCalDAV:
			client, err := icloud.NewClient(ctx, logger, sc.Endpoint, creds.CalDAVUsername, creds.CalDAVPassword, sc.Calendar)
			if err != nil {
				return nil, fmt.Errorf("failed to create caldav client: %w", err)
			}
			out = append(out, NewCalDAVSource(client, sc.Calendar))

		default:
			return nil, fmt.Errorf("sources[%d]: %w: %q", i, config.ErrUnknownSourceKind, sc.Kind)
		}
	}
	return out, nil
}
