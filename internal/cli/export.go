package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pump-alerts/internal/app"
)

var (
	exportFrom      string
	exportTo        string
	exportSince     time.Duration
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write recorded signals to CSV and/or a PNG scatter chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportPNGPath == "" && exportCSVPath == "" {
			return fmt.Errorf("nothing to export: pass --csv and/or --png")
		}
		if exportSince > 0 && exportFrom != "" {
			return fmt.Errorf("--since and --from are mutually exclusive")
		}

		opts := app.ExportOptions{
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		to, err := parseTimestamp("--to", exportTo)
		if err != nil {
			return err
		}
		opts.To = to

		from, err := parseTimestamp("--from", exportFrom)
		if err != nil {
			return err
		}
		opts.From = from

		if exportSince > 0 {
			end := time.Now().UTC()
			if opts.To != nil {
				end = *opts.To
			}
			start := end.Add(-exportSince)
			opts.From = &start
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

// parseTimestamp accepts RFC3339 or unix seconds. Empty input yields nil.
func parseTimestamp(flag, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		ts := time.Unix(secs, 0).UTC()
		return &ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", flag, err)
	}
	return &ts, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start (RFC3339 or unix seconds, inclusive; defaults to seven days before --to)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End (RFC3339 or unix seconds, exclusive; defaults to now)")
	exportCmd.Flags().DurationVar(&exportSince, "since", 0, "Export the last duration before --to, e.g. 24h")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum signals to export (defaults to config)")
}
