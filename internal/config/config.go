package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"meetslot/internal/models"
)

// Source kinds.
const (
	KindICS    = "ics"
	KindGoogle = "google"
	KindCalDAV = "caldav"
)

const dateLayout = "2006-01-02"

var (
	ErrMissingDate         = errors.New("date is required")
	ErrInvalidDate         = errors.New("date must look like 2006-01-02")
	ErrInvalidDuration     = errors.New("duration must be a positive whole number of minutes")
	ErrInvalidTimezone     = errors.New("unknown timezone")
	ErrUnknownSourceKind   = errors.New("unknown source kind")
	ErrMissingSourceField  = errors.New("source is missing a required field")
	ErrNoAttendees         = errors.New("at least one attendee or optional attendee is required")
	ErrAttendeeBothKinds   = errors.New("attendee is both mandatory and optional")
	errUnsupportedDuration = errors.New("duration must be minutes or a Go duration such as 45m")
)

// Minutes is a meeting length. In YAML it is either a number of minutes
// (45) or a Go duration string ("1h30m").
type Minutes int

func (m *Minutes) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errUnsupportedDuration
	}
	n, err := ParseMinutes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = Minutes(n)
	return nil
}

func (m Minutes) MarshalYAML() (any, error) {
	return (time.Duration(m) * time.Minute).String(), nil
}

// ParseMinutes accepts "45" or "45m"/"1h30m" and returns whole minutes.
func ParseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errUnsupportedDuration
	}
	if d%time.Minute != 0 {
		return 0, ErrInvalidDuration
	}
	return int(d / time.Minute), nil
}

// Source describes one calendar to read.
type Source struct {
	Kind string `yaml:"kind"`

	// ics
	Path  string `yaml:"path,omitempty"`
	Owner string `yaml:"owner,omitempty"`

	// google; no calendar ids means every calendar of the account
	CalendarIDs []string `yaml:"calendar_ids,omitempty"`
	Account     string   `yaml:"account,omitempty"` // token-<account>.json; empty means every token

	// caldav
	Endpoint string `yaml:"endpoint,omitempty"`
	Calendar string `yaml:"calendar,omitempty"`
}

// Config is a meeting file: who should meet, for how long, on which day,
// and where their calendars live.
type Config struct {
	Date              string   `yaml:"date"`
	Timezone          string   `yaml:"timezone"`
	Duration          Minutes  `yaml:"duration"`
	Attendees         []string `yaml:"attendees"`
	OptionalAttendees []string `yaml:"optional_attendees"`
	Sources           []Source `yaml:"sources"`
}

// Load reads a YAML meeting file. An empty path yields an empty config that
// flags are expected to fill in.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, rejecting unknown keys.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Normalize fills defaults and canonicalizes attendee ids.
func (c *Config) Normalize(defaultTimezone string) {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	c.Date = strings.TrimSpace(c.Date)
	c.Attendees = normalizeAll(c.Attendees)
	c.OptionalAttendees = normalizeAll(c.OptionalAttendees)
	for i := range c.Sources {
		c.Sources[i].Kind = strings.ToLower(strings.TrimSpace(c.Sources[i].Kind))
		c.Sources[i].Owner = models.NormalizeAttendee(c.Sources[i].Owner)
	}
}

func normalizeAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = models.NormalizeAttendee(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Date == "":
		errs = append(errs, ErrMissingDate)
	default:
		if _, err := time.Parse(dateLayout, c.Date); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidDate, c.Date))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone))
	}
	if c.Duration <= 0 {
		errs = append(errs, ErrInvalidDuration)
	}
	if len(c.Attendees) == 0 && len(c.OptionalAttendees) == 0 {
		errs = append(errs, ErrNoAttendees)
	}
	mandatory := make(map[string]bool, len(c.Attendees))
	for _, a := range c.Attendees {
		mandatory[a] = true
	}
	for _, a := range c.OptionalAttendees {
		if mandatory[a] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrAttendeeBothKinds, a))
		}
	}

	for i, s := range c.Sources {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("sources[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (s Source) validate() error {
	switch s.Kind {
	case KindICS:
		if s.Path == "" {
			return fmt.Errorf("%w: path", ErrMissingSourceField)
		}
	case KindGoogle:
		// empty calendar_ids means every calendar of the account
	case KindCalDAV:
		if s.Calendar == "" {
			return fmt.Errorf("%w: calendar", ErrMissingSourceField)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceKind, s.Kind)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}
	return loc, nil
}

// Day returns local midnight of the configured date.
func (c *Config) Day() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	day, err := time.ParseInLocation(dateLayout, c.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, c.Date)
	}
	return day, nil
}
