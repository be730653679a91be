// Package cli wires the schedule organizer and calendar sync commands into
// a single binary.
package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"github.com/TheSilent01/Calendar/internal/auth"
	"github.com/TheSilent01/Calendar/internal/config"
	"github.com/TheSilent01/Calendar/internal/gcal"
	"github.com/TheSilent01/Calendar/internal/palette"
	"github.com/TheSilent01/Calendar/internal/schedule"
	syncpkg "github.com/TheSilent01/Calendar/internal/sync"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

// Execute builds and runs the CLI application.
func Execute(args []string, version string) error {
	app := cli.NewApp()
	app.Name = "gcal"
	app.HelpName = "gcal"
	app.Usage = "organize an academic schedule CSV and sync it to Google Calendar"
	app.UsageText = "gcal <command> [arguments...]"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config",
			Usage:       "path to the JSON config file",
			EnvVar:      "GCAL_CONFIG",
			Value:       "gcal.json",
			Destination: &configPath,
		},
		cli.BoolFlag{
			Name:        "verbose, v",
			Usage:       "enable verbose output",
			Destination: &verbose,
		},
	}
	app.Before = func(c *cli.Context) error {
		// .env is optional; missing files are not an error.
		_ = godotenv.Load()

		log.SetFlags(log.LstdFlags)
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	}
	app.Commands = []cli.Command{
		organizeCommand,
		auditCommand,
		listCommand,
		uploadCommand,
		syncCommand,
		deleteCommand,
		dedupeCommand,
		pruneCommand,
		extractCommand,
		exportCommand,
	}
	return app.Run(args)
}

// newResolver builds the color resolver, merging the configured palette
// overrides when present.
func newResolver() (*palette.Resolver, error) {
	var overrides map[string]string
	if cfg.PalettePath != "" {
		loaded, err := palette.LoadOverrides(cfg.PalettePath)
		if err != nil {
			return nil, err
		}
		overrides = loaded
	}
	return palette.NewResolver(overrides)
}

// expectedWeeks returns the configured week-label set, defaulting to the
// term's S14-S26 range.
func expectedWeeks() []string {
	if len(cfg.ExpectedWeeks) > 0 {
		return cfg.ExpectedWeeks
	}
	return schedule.DefaultWeeks()
}

// newReconciler authenticates against Google and builds the reconciler.
func newReconciler(ctx context.Context, pauseOverride time.Duration) (*syncpkg.Reconciler, *time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	clientID, clientSecret, err := config.LoadGoogleCredentials(cfg.CredentialsPath)
	if err != nil {
		return nil, nil, err
	}

	store := auth.NewFileTokenStore(cfg.TokenPath)
	httpClient, err := auth.GetAuthenticatedClient(ctx, auth.NewOAuthConfig(clientID, clientSecret), store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	pause := cfg.CalendarPause()
	if pauseOverride > 0 {
		pause = pauseOverride
	}
	client, err := gcal.NewClient(ctx, httpClient, gcal.Options{
		CalendarPause: pause,
		EventPause:    cfg.EventPause(),
		Retry: gcal.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second,
			Multiplier:  cfg.Retry.Multiplier,
		},
		Timezone: cfg.Timezone,
	})
	if err != nil {
		return nil, nil, err
	}

	return syncpkg.New(client, loc), loc, nil
}

// loadSchedule loads and organizes a CSV for remote commands: colors
// attached, invalid rows dropped, input order preserved.
func loadSchedule(path string) ([]schedule.Row, *schedule.Report, error) {
	rows, err := schedule.Load(path)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := newResolver()
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	organized, report := schedule.Organize(rows, schedule.OrganizeOptions{
		Resolver: resolver,
		Weeks:    expectedWeeks(),
		Location: loc,
		Sort:     false,
	})
	return organized, report, nil
}

func csvPath(c *cli.Context) string {
	if path := c.String("csv"); path != "" {
		return path
	}
	return cfg.CSVPath
}

func ok(format string, args ...any)   { fmt.Printf("✓ "+format+"\n", args...) }
func warn(format string, args ...any) { fmt.Printf("⚠ "+format+"\n", args...) }
func info(format string, args ...any) { fmt.Printf("ℹ "+format+"\n", args...) }

// printValidation prints the report the way the user fixes problems: errors
// first, warnings after, capped so a broken file doesn't flood the terminal.
func printValidation(report *schedule.Report) {
	if len(report.Errors) == 0 && len(report.Warnings) == 0 {
		ok("all %d rows passed validation", report.Total)
		return
	}
	warn("found %d validation errors, %d warnings (%d of %d rows valid)",
		len(report.Errors), len(report.Warnings), report.Valid(), report.Total)
	printIssues(report.Errors, "  ✗")
	printIssues(report.Warnings, "  ⚠")
}

func printIssues(issues []schedule.Issue, prefix string) {
	const maxShown = 10
	for i, issue := range issues {
		if i == maxShown {
			fmt.Printf("  ... and %d more\n", len(issues)-maxShown)
			return
		}
		fmt.Printf("%s %s\n", prefix, issue)
	}
}

func printSyncReport(report *syncpkg.Report, dryRun bool) {
	if dryRun {
		info("dry run: %d would create (%d calendars), %d skip (exists), %d would delete",
			report.WouldCreate, report.WouldCreateCalendars, report.Skipped, report.WouldDelete)
	} else {
		ok("created %d events (%d calendars), skipped %d existing, deleted %d",
			report.Created, report.CalendarsCreated, report.Skipped, report.Deleted)
	}
	for _, course := range report.SkippedCourses {
		warn("course skipped: %s", course)
	}
	for _, failure := range report.Failures {
		warn("row %d (%s): %v", failure.Row, failure.Course, failure.Err)
	}
}
