package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"flowcal/internal/config"
	"flowcal/internal/dav"
	"flowcal/internal/google"
	"flowcal/internal/nodes"
	"flowcal/internal/server"
	"flowcal/internal/vars"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "flowcal",
		Usage: "Run calendar nodes (create, update, list, delete) against Google Calendar or CalDAV.",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			authCommand(),
			createCommand(),
			updateCommand(),
			listCommand(),
			deleteCommand(),
			serveCommand(),
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
			cfg := config.FromContext(c)
			logger := setupLogger(cfg.LogLevel)
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.OAuthConfig(cfg.ClientID, cfg.ClientSecret, cfg.CredentialsFile)
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

			if err := google.SaveToken(cfg.TokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", cfg.TokenFile)
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an event and store its id in the result variable.",
		Flags: append(eventFlags(), resultFlag()),
		Action: func(c *cli.Context) error {
			cfg := nodes.CreateConfig{
				Summary:        c.String("summary"),
				Description:    c.String("description"),
				Location:       c.String("location"),
				StartTime:      c.String("start"),
				EndTime:        c.String("end"),
				Reminders:      c.String("reminders"),
				ResultVariable: c.String("result"),
			}
			return runNode(c, func(ctx context.Context, r *nodes.Runner, store vars.Store) (string, error) {
				return r.Create(ctx, cfg, store)
			})
		},
	}
}

func updateCommand() *cli.Command {
	flags := append(eventFlags(),
		&cli.StringFlag{Name: "event-id", Required: true, Usage: "Id of the event to update."},
		sendUpdatesFlag(),
		resultFlag(),
	)
	return &cli.Command{
		Name:  "update",
		Usage: "Update an event. Omitted summary, start or end keep their current value.",
		Flags: flags,
		Action: func(c *cli.Context) error {
			cfg := nodes.UpdateConfig{
				EventID:        c.String("event-id"),
				Summary:        c.String("summary"),
				Description:    c.String("description"),
				Location:       c.String("location"),
				StartTime:      c.String("start"),
				EndTime:        c.String("end"),
				Reminders:      c.String("reminders"),
				SendUpdates:    c.String("send-updates"),
				ResultVariable: c.String("result"),
			}
			return runNode(c, func(ctx context.Context, r *nodes.Runner, store vars.Store) (string, error) {
				return r.Update(ctx, cfg, store)
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events and store them in the result variable.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: string(nodes.ModeUpcoming), Usage: "UPCOMING, TIME_RANGE, SEARCH or ALL."},
			&cli.StringFlag{Name: "query", Usage: "Free-text query for SEARCH."},
			&cli.StringFlag{Name: "start", Usage: "Range start for TIME_RANGE (YYYY-MM-DDTHH:MM:SS)."},
			&cli.StringFlag{Name: "end", Usage: "Range end for TIME_RANGE (YYYY-MM-DDTHH:MM:SS)."},
			&cli.StringFlag{Name: "max-results", Value: "10"},
			&cli.StringFlag{Name: "format", Value: nodes.FormatJSON, Usage: "json or ics."},
			resultFlag(),
		},
		Action: func(c *cli.Context) error {
			cfg := nodes.ListConfig{
				Mode:           c.String("mode"),
				SearchQuery:    c.String("query"),
				StartTime:      c.String("start"),
				EndTime:        c.String("end"),
				MaxResults:     c.String("max-results"),
				Format:         c.String("format"),
				ResultVariable: c.String("result"),
			}
			return runNode(c, func(ctx context.Context, r *nodes.Runner, store vars.Store) (string, error) {
				return r.List(ctx, cfg, store)
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete an event and store a confirmation in the result variable.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event-id", Required: true, Usage: "Id of the event to delete."},
			sendUpdatesFlag(),
			resultFlag(),
		},
		Action: func(c *cli.Context) error {
			cfg := nodes.DeleteConfig{
				EventID:        c.String("event-id"),
				SendUpdates:    c.String("send-updates"),
				ResultVariable: c.String("result"),
			}
			return runNode(c, func(ctx context.Context, r *nodes.Runner, store vars.Store) (string, error) {
				return r.Delete(ctx, cfg, store)
			})
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the nodes over HTTP.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "gin-mode", Value: "release", Usage: "debug, release or test."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := load(c)
			if err != nil {
				return err
			}
			runner, err := newRunner(c.Context, cfg, logger)
			if err != nil {
				return err
			}

			srv, err := server.New(logger, runner, server.Config{Port: cfg.Port, Mode: c.String("gin-mode")})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}

func eventFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "summary", Usage: "Event title. May reference variables as ${name}."},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "location"},
		&cli.StringFlag{Name: "start", Usage: "Start time (YYYY-MM-DDTHH:MM:SS)."},
		&cli.StringFlag{Name: "end", Usage: "End time (YYYY-MM-DDTHH:MM:SS)."},
		&cli.StringFlag{Name: "reminders", Usage: "Reminder overrides, e.g. 'email:15,popup:30'."},
	}
}

func sendUpdatesFlag() cli.Flag {
	return &cli.StringFlag{Name: "send-updates", Value: "all", Usage: "all, externalOnly or none."}
}

func resultFlag() cli.Flag {
	return &cli.StringFlag{Name: "result", Required: true, Usage: "Variable that receives the node output."}
}

// runNode runs one node against the variable file and saves the file only if the node succeeds.
func runNode(c *cli.Context, run func(context.Context, *nodes.Runner, vars.Store) (string, error)) error {
	cfg, logger, err := load(c)
	if err != nil {
		return err
	}

	store, err := vars.Open(cfg.VarsFile)
	if err != nil {
		return err
	}
	defer store.Close()
	runner, err := newRunner(c.Context, cfg, logger)
	if err != nil {
		return err
	}

	out, err := run(c.Context, runner, store)
	if err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	logger.Debug("Saved variables", "file", store.Path())
	fmt.Println(out)
	return nil
}

func load(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg := config.FromContext(c)
	logger := setupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}

func newRunner(ctx context.Context, cfg config.Config, logger *slog.Logger) (*nodes.Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var client nodes.CalendarClient
	calendarID := cfg.CalendarID
	switch cfg.Provider {
	case config.ProviderCalDAV:
		dClient, err := dav.NewClient(ctx, logger, dav.Options{
			Endpoint:        cfg.CalDAVURL,
			Username:        cfg.CalDAVUsername,
			Password:        cfg.CalDAVPassword,
			CalendarName:    cfg.CalDAVCalendar,
			ApplicationName: cfg.ApplicationName,
			Location:        loc,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		client, calendarID = dClient, dClient.CalendarPath()
	default:
		gClient, err := google.NewClient(ctx, logger, google.Credentials{
			File:            cfg.CredentialsFile,
			TokenFile:       cfg.TokenFile,
			ApplicationName: cfg.ApplicationName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create google client: %w", err)
		}
		client = gClient
	}

	runner, err := nodes.NewRunner(logger, client, calendarID, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return runner, nil
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
