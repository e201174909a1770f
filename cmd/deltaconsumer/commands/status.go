package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/deltaconsumer/delta"
	"github.com/teranos/deltaconsumer/pulse"
)

// timeLayout is how timestamps are shown to operators.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// StatusCmd shows the watermark and the recent ingestion history
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the watermark and recent ingestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		if err := printWatermark(ctx, pulse.NewSQLiteWatermarkStore(database)); err != nil {
			return err
		}

		printTmpUsage(cfg.Ingest.TmpDir)

		ingestions, err := pulse.NewIngestionStore(database).ListIngestions(ctx, limit)
		if err != nil {
			return err
		}
		if len(ingestions) == 0 {
			pterm.Info.Println("No ingestions recorded")
			return nil
		}

		pterm.Println()
		return pterm.DefaultTable.WithHasHeader().WithData(ingestionTable(ingestions)).Render()
	},
}

func init() {
	StatusCmd.Flags().IntP("limit", "n", 20, "Number of ingestions to show")
}

func ingestionTable(ingestions []*pulse.Ingestion) pterm.TableData {
	data := pterm.TableData{{"Started", "File", "Created", "Status", "Inserts", "Deletes", "Duration", "Error"}}
	for _, in := range ingestions {
		duration := "-"
		if in.DurationMs != nil {
			duration = fmt.Sprintf("%dms", *in.DurationMs)
		}
		status := in.Status
		switch in.Status {
		case pulse.IngestionStatusCompleted:
			status = pterm.Green(in.Status)
		case pulse.IngestionStatusFailed:
			status = pterm.Red(in.Status)
		}
		errText := ""
		if in.ErrorKind != "" {
			errText = in.ErrorKind + ": " + truncate(in.ErrorMessage, 60)
		}
		data = append(data, []string{
			in.StartedAt.Local().Format(timeLayout),
			in.FileName,
			in.FileCreated.Format(timeLayout),
			status,
			strconv.Itoa(in.Inserts),
			strconv.Itoa(in.Deletes),
			duration,
			errText,
		})
	}
	return data
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printTmpUsage(dir string) {
	usage, err := delta.TmpDirUsage(dir)
	if err != nil {
		pterm.Warning.Printfln("Temp dir %s: %v", dir, err)
		return
	}
	msg := fmt.Sprintf("Temp dir %s: %d MiB free of %d MiB", dir, usage.Free>>20, usage.Total>>20)
	if usage.Low() {
		pterm.Warning.Println(msg)
		return
	}
	pterm.Info.Println(msg)
}
