package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"meetslot/internal/models"
)

const (
	credentialsFile = "credentials.json"
)

// CalendarClient reads events from the calendars of one Google account.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	account string
}

// NewClient builds a read-only client for accountName from its saved
// token-<accountName>.json in the working directory.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger, account: accountName}, nil
}

// NewClientWithService wraps an existing calendar service, e.g. one pointed at a test server.
func NewClientWithService(logger *slog.Logger, service *calendar.Service, accountName string) *CalendarClient {
	return &CalendarClient{service: service, logger: logger, account: accountName}
}

func (c *CalendarClient) Account() string { return c.account }

// GetDayEvents fetches the events of calendarID that overlap [start, end).
// Transient API failures are retried with backoff.
func (c *CalendarClient) GetDayEvents(ctx context.Context, calendarID string, start, end time.Time) ([]*models.Event, error) {
	c.logger.Debug("Fetching events", "calendarID", calendarID, "start", start, "end", end)

	var items []*calendar.Event
	err := retry.Do(
		func() error {
			items = items[:0]
			return c.service.Events.List(calendarID).
				ShowDeleted(false).
				SingleEvents(true).
				TimeMin(start.Format(time.RFC3339)).
				TimeMax(end.Format(time.RFC3339)).
				OrderBy("startTime").
				Context(ctx).
				Pages(ctx, func(page *calendar.Events) error {
					items = append(items, page.Items...)
					return nil
				})
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("Retrying Google Calendar fetch", "attempt", n+1, "calendarID", calendarID, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(items), "calendarID", calendarID)
	return toInternalEvents(items, calendarID, start.Location()), nil
}

// isRetryable reports whether err is a rate limit or server error.
func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// toInternalEvents converts Google Calendar events to the internal Event model.
// The calendar id is treated as the owner: every event blocks it unless the
// owner declined.
func toInternalEvents(googleEvents []*calendar.Event, calendarID string, loc *time.Location) []*models.Event {
	var internalEvents []*models.Event
	for _, item := range googleEvents {
		if item.Start == nil || item.End == nil || item.Status == "cancelled" {
			continue
		}

		startTime, endTime, allDay, err := eventTimes(item, loc)
		if err != nil {
			continue
		}

		event := &models.Event{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			StartTime:   startTime,
			EndTime:     endTime,
			Location:    item.Location,
			UID:         item.ICalUID,
			Source:      fmt.Sprintf("google-%s", calendarID),
			AllDay:      allDay,
			Transparent: item.Transparency == "transparent",
		}
		if item.Organizer != nil {
			event.Organizer = models.NormalizeAttendee(item.Organizer.Email)
		}

		ownerDeclined := false
		for _, a := range item.Attendees {
			if a.ResponseStatus == "declined" {
				if a.Self || strings.EqualFold(a.Email, calendarID) {
					ownerDeclined = true
				}
				continue
			}
			event.AddAttendee(a.Email)
		}
		if ownerDeclined {
			continue
		}
		if strings.Contains(calendarID, "@") {
			event.AddAttendee(calendarID)
		}
		internalEvents = append(internalEvents, event)
	}
	return internalEvents
}

// eventTimes reads timed events from DateTime and all-day events from Date,
// the latter interpreted in loc.
func eventTimes(item *calendar.Event, loc *time.Location) (time.Time, time.Time, bool, error) {
	if item.Start.DateTime != "" {
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		return start, end, false, nil
	}

	start, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	end, err := time.ParseInLocation("2006-01-02", item.End.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return start, end, true, nil
}

// GetOAuthConfigForAuthFlow returns the OAuth config used by the auth command.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig prefers the client id and secret from the environment and
// falls back to credentials.json.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb exchanges the code pasted by the user for a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken writes token to path, readable by the owner only.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

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

// DiscoverGoogleCalendars lists the ids of every calendar the account can see.
func (c *CalendarClient) DiscoverGoogleCalendars(ctx context.Context) ([]string, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	ids := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Deleted || item.Hidden {
			continue
		}
		ids = append(ids, item.Id)
	}
	return ids, nil
}

// GetTokenAccounts lists the accounts that have a token-<account>.json file in dir.
func GetTokenAccounts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, entry := range entries {
		name, ok := strings.CutPrefix(entry.Name(), "token-")
		if !ok || entry.IsDir() {
			continue
		}
		if account, ok := strings.CutSuffix(name, ".json"); ok && account != "" {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}
