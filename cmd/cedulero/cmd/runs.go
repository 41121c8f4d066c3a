package cmd

import (
	"fmt"
	"log"
	"time"

	"cedulero-backend/lib/runlog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists recent harvest runs.",
	Run: func(cmd *cobra.Command, args []string) {
		runs, err := runlog.Open(config.RunLog)
		if err != nil {
			log.Fatal(err)
		}
		defer runs.Close()

		entries, err := runs.Recent(cmd.Context(), runsLimit)
		if err != nil {
			log.Fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Started", "Range", "Processed", "Failed", "Skipped", "Sessions", "Duration"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.StartedAt.Format(time.ANSIC),
				fmt.Sprintf("[%d, %d)", e.RangeStart, e.RangeEnd),
				e.Processed,
				e.Failed,
				e.Skipped,
				e.Sessions,
				e.Duration.Round(time.Millisecond),
			})
		}
		t.Render()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
