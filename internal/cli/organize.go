package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli"

	"github.com/TheSilent01/Calendar/internal/palette"
	"github.com/TheSilent01/Calendar/internal/schedule"
)

var (
	organizeOutput   string
	organizeNoBackup bool
	organizeNoSort   bool
	organizeValidate bool
	organizeSplitDir string
	organizeStats    bool
)

var organizeCommand = cli.Command{
	Name:      "organize",
	Usage:     "add colors, validate, sort, and rewrite a schedule CSV",
	ArgsUsage: "<input.csv>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "output, o",
			Usage:       "output file (default: <input>_colored.csv)",
			Destination: &organizeOutput,
		},
		cli.BoolFlag{
			Name:        "no-backup",
			Usage:       "don't back up an existing output file",
			Destination: &organizeNoBackup,
		},
		cli.BoolFlag{
			Name:        "no-sort",
			Usage:       "keep input order instead of sorting by color and start",
			Destination: &organizeNoSort,
		},
		cli.BoolFlag{
			Name:        "validate-only",
			Usage:       "only validate, don't modify anything",
			Destination: &organizeValidate,
		},
		cli.StringFlag{
			Name:        "split-by-color",
			Usage:       "also split the output into one file per color under `DIR`",
			Destination: &organizeSplitDir,
		},
		cli.BoolFlag{
			Name:        "stats",
			Usage:       "print schedule statistics",
			Destination: &organizeStats,
		},
	},
	Action: organize,
}

func organize(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return cli.NewExitError("organize: missing input file argument", 1)
	}

	rows, err := schedule.Load(input)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	info("loaded %d rows from %s", len(rows), input)

	resolver, err := newResolver()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	loc, err := cfg.Location()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	organized, report := schedule.Organize(rows, schedule.OrganizeOptions{
		Resolver: resolver,
		Weeks:    expectedWeeks(),
		Location: loc,
		Sort:     !organizeNoSort,
	})
	printValidation(report)

	if organizeValidate {
		info("validation complete (no files modified)")
		return nil
	}

	output := organizeOutput
	if output == "" {
		output = defaultOutputPath(input)
	}
	if err := schedule.Write(organized, output, !organizeNoBackup); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	ok("saved %d rows to %s", len(organized), output)

	if organizeSplitDir != "" {
		written, err := schedule.SplitByColor(organized, organizeSplitDir, baseName(output))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		ok("split into %d files in %s", len(written), organizeSplitDir)
	}

	if organizeStats {
		printStats(schedule.Collect(organized, loc))
	}
	return nil
}

var auditCommand = cli.Command{
	Name:    "audit",
	Aliases: []string{"check"},
	Usage:   "validate a schedule CSV and print per-course statistics",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "csv", Usage: "input schedule file"},
	},
	Action: func(c *cli.Context) error {
		path := csvPath(c)
		rows, err := schedule.Load(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		info("auditing %d rows from %s", len(rows), path)

		resolver, err := newResolver()
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		loc, err := cfg.Location()
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		organized, report := schedule.Organize(rows, schedule.OrganizeOptions{
			Resolver: resolver,
			Weeks:    expectedWeeks(),
			Location: loc,
		})
		printValidation(report)
		printStats(schedule.Collect(organized, loc))
		return nil
	},
}

func printStats(stats *schedule.Stats) {
	fmt.Printf("\nTotal events: %d\n", stats.Total)
	if !stats.First.IsZero() {
		fmt.Printf("Date range:   %s → %s\n",
			stats.First.Format("2006-01-02"), stats.Last.Format("2006-01-02"))
	}

	fmt.Println("\nEvents by color:")
	for _, color := range palette.Order {
		if n := stats.ByColor[color]; n > 0 {
			fmt.Printf("  %-12s %3d %s\n", color, n, strings.Repeat("█", n/2))
		}
	}

	fmt.Println("\nEvents by week:")
	weeks := make([]string, 0, len(stats.ByWeek))
	for week := range stats.ByWeek {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)
	for _, week := range weeks {
		fmt.Printf("  %s: %3d\n", week, stats.ByWeek[week])
	}

	fmt.Println("\nEvents by course:")
	courses := make([]string, 0, len(stats.ByCourse))
	for course := range stats.ByCourse {
		courses = append(courses, course)
	}
	sort.Strings(courses)
	for _, course := range courses {
		fmt.Printf("  %-40s %3d\n", course, stats.ByCourse[course])
	}
}

func defaultOutputPath(input string) string {
	if i := strings.LastIndex(input, "."); i > 0 {
		return input[:i] + "_colored" + input[i:]
	}
	return input + "_colored.csv"
}

func baseName(path string) string {
	name := path
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
