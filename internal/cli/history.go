package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded results from previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			store, err := history.Open(historyPath(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if runID != "" {
				return printRunOutcomes(store, runID)
			}
			return printRecentRuns(store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "show per-example outcomes for one run")

	return cmd
}

func printRecentRuns(store *history.Store, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tWHEN\tTOTAL\tPASSED\tFAILED\tTIMED OUT\tSKIPPED\tDURATION")
	for _, r := range runs {
		id := r.RunID
		if r.ParentRunID != "" {
			id += "*" // rerun of an earlier run
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			id, r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Total, r.Passed, r.Failed, r.TimedOut, r.Skipped,
			r.Duration.Truncate(time.Millisecond))
	}
	return w.Flush()
}

func printRunOutcomes(store *history.Store, runID string) error {
	rows, err := store.RunOutcomes(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no outcomes recorded for run %s", runID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tEXIT\tDURATION\tERROR")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			row.Name, row.State, row.ExitCode,
			row.Duration.Truncate(time.Millisecond), row.Error)
	}
	return w.Flush()
}
