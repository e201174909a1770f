package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/pulse"
	"github.com/teranos/deltaconsumer/sym"
)

// ConsumeCmd runs a single ingestion cycle
var ConsumeCmd = &cobra.Command{
	Use:   "consume",
	Short: short("consume"),
	Long: sym.IX + ` Run one ingestion cycle: list the files created since the watermark,
ingest them in order and advance the watermark.

Exits non-zero when a file fails. Files after the failure are attempted only
with ingest.on_failure = "continue"; the watermark never moves past a failed
file either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := openPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, stop := signalContext()
		defer stop()

		poller := pulse.NewPollerWithContext(ctx, p.coord, pulse.PollerConfig{}, logger.ComponentLogger("pulse.poller"))
		res, _, err := poller.Trigger(ctx)
		if err != nil {
			return err
		}

		printCycle(res)
		if res.Failed > 0 {
			return errors.Newf("%d of %d delta files failed", res.Failed, res.Listed-res.Skipped)
		}
		return nil
	},
}

func printCycle(res pulse.CycleResult) {
	if res.Listed == 0 {
		pterm.Info.Printfln("No delta files since %s", res.Since.Format(timeLayout))
		return
	}
	pterm.Info.Printfln("Listed %d, ingested %d, failed %d, skipped %d",
		res.Listed, res.Ingested, res.Failed, res.Skipped)
	if res.Watermark.After(res.Since) {
		pterm.Success.Printfln("%s Watermark %s -> %s", sym.AT,
			res.Since.Format(timeLayout), res.Watermark.Format(timeLayout))
	} else {
		pterm.Warning.Printfln("%s Watermark unchanged at %s", sym.AT, res.Since.Format(timeLayout))
	}
	if res.Aborted {
		pterm.Warning.Println("Cycle stopped early")
	}
}
