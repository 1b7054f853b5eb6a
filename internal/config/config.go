// Package config collects the runtime settings shared by all commands.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// Supported calendar providers.
const (
	ProviderGoogle = "google"
	ProviderCalDAV = "caldav"
)

// Flag names. The matching environment variables are listed in Flags.
const (
	FlagProvider        = "provider"
	FlagCredentialsFile = "google-credentials-file"
	FlagTokenFile       = "google-token-file"
	FlagClientID        = "google-client-id"
	FlagClientSecret    = "google-client-secret"
	FlagCalendarID      = "calendar-id"
	FlagApplicationName = "application-name"
	FlagCalDAVURL       = "caldav-url"
	FlagCalDAVUsername  = "caldav-username"
	FlagCalDAVPassword  = "caldav-password"
	FlagCalDAVCalendar  = "caldav-calendar-name"
	FlagTimezone        = "timezone"
	FlagLogLevel        = "log-level"
	FlagVarsFile        = "vars"
	FlagPort            = "port"
)

// Flags returns the global flags of the app.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagProvider, Value: ProviderGoogle, EnvVars: []string{"CALENDAR_PROVIDER"}, Usage: "Calendar backend: google or caldav."},
		&cli.StringFlag{Name: FlagCredentialsFile, Value: "service_account.json", EnvVars: []string{"GOOGLE_CREDENTIALS_FILE"}, Usage: "Service account or OAuth client JSON."},
		&cli.StringFlag{Name: FlagTokenFile, Value: "token.json", EnvVars: []string{"GOOGLE_TOKEN_FILE"}, Usage: "OAuth token written by the auth command."},
		&cli.StringFlag{Name: FlagClientID, EnvVars: []string{"GOOGLE_CLIENT_ID"}},
		&cli.StringFlag{Name: FlagClientSecret, EnvVars: []string{"GOOGLE_CLIENT_SECRET"}},
		&cli.StringFlag{Name: FlagCalendarID, EnvVars: []string{"CALENDAR_ID"}, Usage: "Google calendar id, e.g. primary."},
		&cli.StringFlag{Name: FlagApplicationName, Value: "flowcal", EnvVars: []string{"APPLICATION_NAME"}},
		&cli.StringFlag{Name: FlagCalDAVURL, EnvVars: []string{"CALDAV_URL"}, Usage: "CalDAV endpoint. Defaults to iCloud."},
		&cli.StringFlag{Name: FlagCalDAVUsername, EnvVars: []string{"CALDAV_USERNAME"}},
		&cli.StringFlag{Name: FlagCalDAVPassword, EnvVars: []string{"CALDAV_PASSWORD"}},
		&cli.StringFlag{Name: FlagCalDAVCalendar, EnvVars: []string{"CALDAV_CALENDAR_NAME"}},
		&cli.StringFlag{Name: FlagTimezone, EnvVars: []string{"TIMEZONE"}, Usage: "IANA zone for local date-times. Defaults to the system zone."},
		&cli.StringFlag{Name: FlagLogLevel, Value: "info", EnvVars: []string{"LOG_LEVEL"}},
		&cli.StringFlag{Name: FlagVarsFile, Value: "vars.yaml", EnvVars: []string{"FLOWCAL_VARS"}, Usage: "Variable file: YAML, or SQLite for .db, .sqlite and .sqlite3."},
		&cli.IntFlag{Name: FlagPort, Value: 8080, EnvVars: []string{"PORT"}},
	}
}

// Config holds the resolved settings.
type Config struct {
	Provider        string
	CredentialsFile string
	TokenFile       string
	ClientID        string
	ClientSecret    string
	CalendarID      string
	ApplicationName string
	CalDAVURL       string
	CalDAVUsername  string
	CalDAVPassword  string
	CalDAVCalendar  string
	Timezone        string
	LogLevel        string
	VarsFile        string
	Port            int
}

// FromContext reads the global flags.
func FromContext(c *cli.Context) Config {
	return Config{
		Provider:        strings.ToLower(c.String(FlagProvider)),
		CredentialsFile: c.String(FlagCredentialsFile),
		TokenFile:       c.String(FlagTokenFile),
		ClientID:        c.String(FlagClientID),
		ClientSecret:    c.String(FlagClientSecret),
		CalendarID:      c.String(FlagCalendarID),
		ApplicationName: c.String(FlagApplicationName),
		CalDAVURL:       c.String(FlagCalDAVURL),
		CalDAVUsername:  c.String(FlagCalDAVUsername),
		CalDAVPassword:  c.String(FlagCalDAVPassword),
		CalDAVCalendar:  c.String(FlagCalDAVCalendar),
		Timezone:        c.String(FlagTimezone),
		LogLevel:        c.String(FlagLogLevel),
		VarsFile:        c.String(FlagVarsFile),
		Port:            c.Int(FlagPort),
	}
}

// Validate checks the settings needed by the selected provider.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGoogle:
		if c.CalendarID == "" {
			errs = append(errs, errors.New("CALENDAR_ID is required for the google provider"))
		}
		if c.ApplicationName == "" {
			errs = append(errs, errors.New("APPLICATION_NAME is required for the google provider"))
		}
		if c.CredentialsFile == "" {
			errs = append(errs, errors.New("GOOGLE_CREDENTIALS_FILE is required for the google provider"))
		}
	case ProviderCalDAV:
		if c.CalDAVUsername == "" || c.CalDAVPassword == "" {
			errs = append(errs, errors.New("CALDAV_USERNAME and CALDAV_PASSWORD are required for the caldav provider"))
		}
		if c.CalDAVCalendar == "" {
			errs = append(errs, errors.New("CALDAV_CALENDAR_NAME is required for the caldav provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown calendar provider %q (use google or caldav)", c.Provider))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location returns the configured zone, or time.Local when none is set.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}
