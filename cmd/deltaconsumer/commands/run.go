package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/deltaconsumer/am"
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/pulse"
	"github.com/teranos/deltaconsumer/sym"
)

// RunCmd polls the sync endpoint until interrupted
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: short("run"),
	Long: sym.Pulse + ` Poll the delta file catalog every ingest.interval_seconds.

Each cycle lists the files created since the watermark, ingests them in
order and advances the watermark past the last file that succeeded.
A cycle still running when the next tick fires is not overlapped.

On SIGINT or SIGTERM the current store operation finishes, the watermark is
saved and the process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		interval := cfg.Interval()
		if interval <= 0 {
			return errors.WithHint(errors.New("ingest.interval_seconds is not positive, polling is disabled"),
				"use 'deltaconsumer consume' to run a single cycle")
		}

		p, err := openPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, stop := signalContext()
		defer stop()

		poller := pulse.NewPollerWithContext(ctx, p.coord, pulse.PollerConfig{Interval: interval}, logger.ComponentLogger("pulse.poller"))

		since, err := p.coord.Watermark(ctx)
		if err != nil {
			return err
		}
		pterm.Info.Printfln("%s Polling %s every %v", sym.PulseOpen, cfg.Sync.BaseURL+cfg.Sync.FilesPath, interval)
		pterm.Info.Printfln("Watermark: %s", since.Format(timeLayout))
		pterm.Info.Printfln("Store: %s, staging graph %s", cfg.Store.Backend, cfg.Graphs.Staging)
		printTmpUsage(cfg.Ingest.TmpDir)
		pterm.Println()

		watchConfig(ctx)

		// first cycle immediately, then on every tick
		if _, _, err := poller.Trigger(ctx); err != nil && !errors.IsCanceled(err) {
			logger.Warnw("Initial cycle failed", logger.FieldErrorKind, errors.KindOf(err), logger.FieldError, err)
		}
		poller.Start()

		<-ctx.Done()
		pterm.Println()
		pterm.Info.Printfln("%s Shutting down", sym.PulseClose)
		poller.Stop()

		stats := poller.GetStats()
		pterm.Info.Printfln("%d cycles run, %d dropped", stats.Cycles, stats.DroppedCycles)
		return nil
	},
}

// watchConfig warns when a loaded config file changes; settings are only
// read at startup.
func watchConfig(ctx context.Context) {
	var paths []string
	for _, src := range am.LoadedFiles() {
		paths = append(paths, src.Path)
	}
	if len(paths) == 0 {
		return
	}
	err := am.WatchFiles(ctx, paths, func(path string) {
		logger.Warnw("Configuration file changed, restart to apply", logger.FieldPath, path)
	})
	if err != nil {
		logger.Warnw("Not watching configuration files", logger.FieldError, err)
	}
}
