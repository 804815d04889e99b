package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"meetslot/internal/config"
	"meetslot/internal/google"
	"meetslot/internal/planner"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "meetslot",
		Usage: "Find the times of a day when a meeting fits everyone's calendar.",
		Commands: []*cli.Command{
			authCommand(),
			findCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Find meeting slots for a day.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML meeting file."},
			&cli.StringFlag{Name: "date", Usage: "Day to search, as 2006-01-02."},
			&cli.StringFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Meeting length, e.g. 30 or 1h30m."},
			&cli.StringSliceFlag{Name: "attendee", Aliases: []string{"a"}, Usage: "Mandatory attendee. Repeatable."},
			&cli.StringSliceFlag{Name: "optional", Aliases: []string{"o"}, Usage: "Optional attendee. Repeatable."},
			&cli.StringSliceFlag{Name: "ics", Usage: "Local .ics calendar to read. Repeatable."},
			&cli.StringFlag{Name: "timezone", EnvVars: []string{"PRIMARY_TIMEZONE"}, Usage: "Timezone of the day."},
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error."},
			&cli.BoolFlag{Name: "no-color", Usage: "Disable coloured output."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			if c.Bool("no-color") {
				color.NoColor = true
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			day, err := cfg.Day()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			sources, err := planner.BuildSources(c.Context, logger, cfg.Sources, planner.Credentials{
				GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
				GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
				CalDAVUsername:     os.Getenv("ICLOUD_USERNAME"),
				CalDAVPassword:     os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"),
			})
			if err != nil {
				return fmt.Errorf("failed to build sources: %w", err)
			}

			plan, err := planner.New(logger, sources, loc).Plan(c.Context, planner.Request{
				Day:               day,
				Attendees:         cfg.Attendees,
				OptionalAttendees: cfg.OptionalAttendees,
				Duration:          int(cfg.Duration),
			})
			if err != nil {
				return fmt.Errorf("planning failed: %w", err)
			}

			return planner.Render(os.Stdout, plan)
		},
	}
}

// loadConfig reads the meeting file and lets flags override it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("date") {
		cfg.Date = c.String("date")
	}
	if c.IsSet("timezone") {
		cfg.Timezone = c.String("timezone")
	}
	if c.IsSet("duration") {
		m, err := config.ParseMinutes(c.String("duration"))
		if err != nil {
			return nil, fmt.Errorf("invalid --duration: %w", err)
		}
		cfg.Duration = config.Minutes(m)
	}
	if c.IsSet("attendee") {
		cfg.Attendees = c.StringSlice("attendee")
	}
	if c.IsSet("optional") {
		cfg.OptionalAttendees = c.StringSlice("optional")
	}
	for _, path := range c.StringSlice("ics") {
		cfg.Sources = append(cfg.Sources, config.Source{Kind: config.KindICS, Path: path})
	}

	cfg.Normalize(os.Getenv("PRIMARY_TIMEZONE"))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid meeting: %w", err)
	}
	return cfg, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
