package cli

import (
	"os"
	"os/exec"

	"github.com/urfave/cli"

	"github.com/TheSilent01/Calendar/internal/ics"
)

var (
	extractPDF    string
	extractOutput string
)

// extractCommand delegates PDF extraction to an external tool that emits
// the same CSV schema this program consumes.
var extractCommand = cli.Command{
	Name:  "extract",
	Usage: "extract a schedule CSV from a timetable PDF via the configured extractor",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "pdf", Usage: "input timetable PDF", Destination: &extractPDF},
		cli.StringFlag{Name: "output, o", Usage: "output CSV path", Destination: &extractOutput},
	},
	Action: func(c *cli.Context) error {
		args := []string{}
		if extractPDF != "" {
			args = append(args, "--pdf", extractPDF)
		}
		output := extractOutput
		if output == "" {
			output = cfg.CSVPath
		}
		args = append(args, "--output", output)

		cmd := exec.Command(cfg.ExtractorCommand, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		info("running %s", cmd.String())
		if err := cmd.Run(); err != nil {
			return cli.NewExitError("extractor failed: "+err.Error(), 1)
		}
		ok("extraction complete: %s", output)
		return nil
	},
}

var exportOutput string

var exportCommand = cli.Command{
	Name:      "export",
	Usage:     "export a schedule CSV as an iCalendar file",
	ArgsUsage: "<input.csv>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "output, o", Usage: "output .ics path", Destination: &exportOutput},
	},
	Action: func(c *cli.Context) error {
		input := c.Args().First()
		if input == "" {
			input = cfg.CSVPath
		}

		rows, report, err := loadSchedule(input)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if len(report.Errors) > 0 {
			warn("%d invalid rows excluded from export", len(report.Errors))
		}

		output := exportOutput
		if output == "" {
			output = baseName(input) + ".ics"
		}
		f, err := os.Create(output)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer f.Close()

		loc, err := cfg.Location()
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		written, skipped, err := ics.Export(f, rows, loc)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if skipped > 0 {
			warn("skipped %d rows with unparseable dates", skipped)
		}
		ok("wrote %d events to %s", written, output)
		return nil
	},
}
