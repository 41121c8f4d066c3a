package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"cedulero-backend/lib/harvest"
	"cedulero-backend/lib/recordstore"
	"cedulero-backend/lib/runlog"
	"cedulero-backend/lib/scrapers/apia"
	"cedulero-backend/lib/sessionstore"
	"cedulero-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	startFlag int
	endFlag   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Processes a range of identifiers across the currently valid sessions.",
	Run: func(cmd *cobra.Command, args []string) {
		if endFlag <= startFlag {
			log.Fatal("--end must be greater than --start")
		}

		shutdown, err := telemetry.Setup("cedulero")
		if err != nil {
			log.Fatal(err)
		}
		defer shutdown(context.Background())

		store, err := sessionstore.Open(config.SessionsFile)
		if err != nil {
			log.Fatal(err)
		}

		sched := harvest.Scheduler{
			Store:  store,
			Prober: apia.NewClient(apia.ClientOptions{BaseUrl: config.BaseUrl}),
			Sink:   &recordstore.Sink{},
			Output: config.OutputFile,
			Layout: config.FieldLayout,
			Window: validityWindow(),
		}

		startedAt := time.Now()
		report, err := sched.Run(cmd.Context(), startFlag, endFlag)
		if errors.Is(err, harvest.ErrNoValidSessions) {
			fmt.Fprintf(os.Stderr, "no valid sessions found within the last %d minutes, acquire new sessions and retry\n", config.ValidityMinutes)
			os.Exit(2)
		}
		if err != nil {
			log.Fatal(err)
		}

		recordRun(cmd.Context(), startedAt, report)

		fmt.Printf(
			"processed %d identifiers across %d sessions in %s\n",
			report.Processed,
			report.Sessions,
			report.Elapsed.Round(time.Millisecond),
		)
		if report.Failed > 0 {
			fmt.Printf("partial completion: %d identifiers failed, see logs\n", report.Failed)
		}
	},
}

func recordRun(ctx context.Context, startedAt time.Time, report harvest.Report) {
	runs, err := runlog.Open(config.RunLog)
	if err != nil {
		slog.Warn("failed to open run log", "err", err)
		return
	}
	defer runs.Close()

	err = runs.Record(ctx, runlog.Entry{
		RangeStart: startFlag,
		RangeEnd:   endFlag,
		Processed:  report.Processed,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Sessions:   report.Sessions,
		StartedAt:  startedAt,
		Duration:   report.Elapsed,
	})
	if err != nil {
		slog.Warn("failed to record run", "err", err)
	}
}

func init() {
	runCmd.Flags().IntVar(&startFlag, "start", 0, "start of the identifier range (inclusive)")
	runCmd.Flags().IntVar(&endFlag, "end", 0, "end of the identifier range (exclusive)")
	runCmd.MarkFlagRequired("start")
	runCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(runCmd)
}
