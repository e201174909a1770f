package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/deltaconsumer/am"
	"github.com/teranos/deltaconsumer/cmd/deltaconsumer/commands"
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
)

var rootCmd = &cobra.Command{
	Use:   "deltaconsumer",
	Short: "Consume mandate delta files into a triplestore",
	Long: `deltaconsumer - change-data-capture consumer for mandate data.

Polls a producer's delta file catalog, applies each file's inserts and
deletes to a staging graph and routes the staged data to the public graph
or to the graph of the organization that owns it.

Available commands:
  run        - Poll the sync endpoint until interrupted
  consume    - Run one ingestion cycle and exit
  status     - Show the watermark and recent ingestions
  watermark  - Show or move the ingestion watermark
  am         - Show and validate configuration
  version    - Show version information

Examples:
  deltaconsumer run                         # Poll every ingest.interval_seconds
  deltaconsumer consume                     # Catch up once
  deltaconsumer watermark set 2024-01-01T00:00:00Z
  deltaconsumer am show --sources           # Where each setting comes from`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			am.SetConfigFile(path)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")

		jsonLogs := false
		if cfg, err := am.Load(); err == nil {
			jsonLogs = cfg.Log.JSON
		}
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().String("config", "", "Config file merged on top of the discovered ones")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ConsumeCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.WatermarkCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
