package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli"

	syncpkg "github.com/TheSilent01/Calendar/internal/sync"
)

var listCommand = cli.Command{
	Name:  "list",
	Usage: "list all calendars on the account",
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		rec, _, err := newReconciler(ctx, 0)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		calendars, err := rec.MatchCalendars(ctx, ".*")
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		sort.Slice(calendars, func(i, j int) bool { return calendars[i].Title < calendars[j].Title })
		fmt.Printf("%-40s %s\n", "Name", "ID")
		for _, cal := range calendars {
			title := cal.Title
			if len(title) > 38 {
				title = title[:38]
			}
			fmt.Printf("%-40s %s\n", title, cal.ID)
		}
		info("total: %d", len(calendars))
		return nil
	},
}

var (
	uploadFilter string
	uploadDryRun bool
)

var uploadCommand = cli.Command{
	Name:  "upload",
	Usage: "upload schedule events, creating course calendars as needed",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "csv", Usage: "input schedule file"},
		cli.StringFlag{Name: "filter", Usage: "only process courses containing this text", Destination: &uploadFilter},
		cli.BoolFlag{Name: "dry-run", Usage: "report without issuing mutating calls", Destination: &uploadDryRun},
	},
	Action: func(c *cli.Context) error {
		return runSync(csvPath(c), syncpkg.Options{
			DryRun: uploadDryRun,
			Filter: uploadFilter,
		}, 0)
	},
}

var (
	syncPause          int
	syncDryRun         bool
	syncDeleteExisting bool
	syncFilter         string
)

var syncCommand = cli.Command{
	Name:  "sync",
	Usage: "reconcile the schedule against remote state, creating only what is missing",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "csv", Usage: "input schedule file"},
		cli.IntFlag{Name: "pause", Usage: "seconds to wait between calendar creations", Destination: &syncPause},
		cli.BoolFlag{Name: "dry-run", Usage: "report without issuing mutating calls", Destination: &syncDryRun},
		cli.BoolFlag{Name: "delete-existing", Usage: "delete a course's remote events before uploading", Destination: &syncDeleteExisting},
		cli.StringFlag{Name: "filter", Usage: "only process courses containing this text", Destination: &syncFilter},
	},
	Action: func(c *cli.Context) error {
		return runSync(csvPath(c), syncpkg.Options{
			DryRun:         syncDryRun,
			DeleteExisting: syncDeleteExisting,
			Filter:         syncFilter,
		}, time.Duration(syncPause)*time.Second)
	},
}

func runSync(path string, opts syncpkg.Options, pauseOverride time.Duration) error {
	rows, report, err := loadSchedule(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if len(report.Errors) > 0 {
		warn("%d invalid rows excluded from sync", len(report.Errors))
	}

	ctx := context.Background()
	rec, _, err := newReconciler(ctx, pauseOverride)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	syncReport, err := rec.Sync(ctx, rows, opts)
	if syncReport != nil {
		printSyncReport(syncReport, opts.DryRun)
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

var deleteYes bool

var deleteCommand = cli.Command{
	Name:      "delete",
	Usage:     "delete calendars whose name matches a pattern",
	ArgsUsage: "<pattern>",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "yes", Usage: "actually delete; without it matches are only listed", Destination: &deleteYes},
	},
	Action: func(c *cli.Context) error {
		pattern := c.Args().First()
		if pattern == "" {
			return cli.NewExitError("delete: missing pattern argument", 1)
		}

		ctx := context.Background()
		rec, _, err := newReconciler(ctx, 0)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		matches, err := rec.MatchCalendars(ctx, pattern)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if len(matches) == 0 {
			warn("no calendars match %q", pattern)
			return nil
		}
		for _, cal := range matches {
			fmt.Printf("  • %s (%s)\n", cal.Title, cal.ID)
		}
		if !deleteYes {
			warn("run with --yes to confirm deletion of %d calendars", len(matches))
			return nil
		}

		report, err := rec.DeleteCalendars(ctx, matches)
		for _, title := range report.Deleted {
			ok("deleted %s", title)
		}
		for _, failure := range report.Failures {
			warn("failed to delete %s: %v", failure.Course, failure.Err)
		}
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	},
}

var (
	dedupeFilter string
	dedupeYes    bool
)

var dedupeCommand = cli.Command{
	Name:  "dedupe",
	Usage: "remove duplicate events from calendars",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "filter", Usage: "only scan calendars containing this text", Destination: &dedupeFilter},
		cli.BoolFlag{Name: "yes", Usage: "actually delete; without it duplicates are only counted", Destination: &dedupeYes},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		rec, _, err := newReconciler(ctx, 0)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		report, err := rec.Dedupe(ctx, dedupeFilter, syncpkg.Options{DryRun: !dedupeYes})
		if report != nil {
			if dedupeYes {
				ok("deleted %d duplicate events", report.Deleted)
			} else {
				info("%d duplicate events found; run with --yes to delete", report.WouldDelete)
			}
			for _, failure := range report.Failures {
				warn("%s: %v", failure.Course, failure.Err)
			}
		}
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	},
}

var pruneYes bool

var pruneCommand = cli.Command{
	Name:  "prune",
	Usage: "delete every calendar not covered by a protected keyword",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "yes", Usage: "actually delete; without it targets are only listed", Destination: &pruneYes},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()
		rec, _, err := newReconciler(ctx, 0)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		report, err := rec.Prune(ctx, cfg.ProtectedKeywords, syncpkg.Options{DryRun: !pruneYes})
		if report != nil {
			for _, title := range report.Protected {
				info("protected: %s", title)
			}
			for _, title := range report.WouldDelete {
				warn("would delete: %s", title)
			}
			for _, title := range report.Deleted {
				ok("deleted: %s", title)
			}
			for _, failure := range report.Failures {
				warn("failed to delete %s: %v", failure.Course, failure.Err)
			}
			if !pruneYes && len(report.WouldDelete) > 0 {
				warn("run with --yes to delete %d calendars", len(report.WouldDelete))
			}
		}
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	},
}
