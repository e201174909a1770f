package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/pulse"
	"github.com/teranos/deltaconsumer/sym"
)

// WatermarkCmd shows or moves the ingestion watermark
var WatermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: short("watermark"),
	Long: sym.AT + ` The watermark is the creation time of the last delta file ingested.
Files created at or after it are listed on the next cycle.

Examples:
  deltaconsumer watermark show
  deltaconsumer watermark set 2024-03-01T00:00:00Z   # replay from March`,
}

var watermarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored watermark",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWatermarks(func(ctx context.Context, w pulse.WatermarkStore) error {
			return printWatermark(ctx, w)
		})
	},
}

var watermarkSetCmd = &cobra.Command{
	Use:   "set <RFC3339 time>",
	Short: "Replace the stored watermark",
	Long: `Replace the stored watermark. It may move backwards: files created at or
after the new value are ingested again on the next cycle.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := time.Parse(time.RFC3339Nano, args[0])
		if err != nil {
			return errors.WithHint(errors.Wrapf(err, "invalid time %q", args[0]),
				"use RFC 3339, e.g. 2024-03-01T00:00:00Z")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := openPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := setWatermark(context.Background(), p.coord, since); err != nil {
			return err
		}
		pterm.Success.Printfln("%s Watermark set to %s", sym.AT, since.UTC().Format(timeLayout))
		return nil
	},
}

func init() {
	WatermarkCmd.AddCommand(watermarkShowCmd)
	WatermarkCmd.AddCommand(watermarkSetCmd)
}

func withWatermarks(fn func(ctx context.Context, w pulse.WatermarkStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(context.Background(), pulse.NewSQLiteWatermarkStore(database))
}

// setWatermark moves the coordinator's cursor, which also forgets the files
// it remembered as ingested at the old watermark.
func setWatermark(ctx context.Context, coord *pulse.Coordinator, since time.Time) error {
	return coord.SetWatermark(ctx, since)
}

func printWatermark(ctx context.Context, w pulse.WatermarkStore) error {
	since, ok, err := w.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		pterm.Info.Printfln("%s No watermark stored; the first cycle starts at process start", sym.AT)
		return nil
	}
	pterm.Info.Printfln("%s Watermark: %s", sym.AT, since.UTC().Format(timeLayout))
	return nil
}
