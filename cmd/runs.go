package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run catalog",
	Long:  "Commands for listing, viewing, and summarizing recorded runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		filter := store.RunFilter{
			Status: model.RunStatus(status),
			Kind:   model.RunKind(kind),
			Limit:  limit,
			Offset: offset,
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics per product",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, store.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().String("kind", "", "filter by product (tpi, slope_position, landform)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// kindStats holds aggregate statistics for one product.
type kindStats struct {
	Kind       model.RunKind
	Total      int
	Complete   int
	Failed     int
	Running    int
	AvgElapsed time.Duration
}

// computeRunStats groups runs by product, ordered by product name.
func computeRunStats(runs []model.Run) []kindStats {
	byKind := make(map[model.RunKind]*kindStats)
	elapsed := make(map[model.RunKind]time.Duration)

	for _, r := range runs {
		s, ok := byKind[r.Kind]
		if !ok {
			s = &kindStats{Kind: r.Kind}
			byKind[r.Kind] = s
		}
		s.Total++
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
			if r.Result != nil {
				elapsed[r.Kind] += r.Result.Elapsed()
			}
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
	}

	out := make([]kindStats, 0, len(byKind))
	for kind, s := range byKind {
		if s.Complete > 0 {
			s.AvgElapsed = elapsed[kind] / time.Duration(s.Complete)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tSTATUS\tOUTPUT\tCREATED\tELAPSED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t-------\t-------")

	for _, r := range runs {
		output, elapsed := "", ""
		if r.Result != nil {
			output = r.Result.Output
			elapsed = r.Result.Elapsed().Round(time.Millisecond).String()
		}
		if r.Status == model.RunStatusFailed {
			output = r.Error
		}
		if len(output) > 40 {
			output = output[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			r.Status,
			output,
			r.CreatedAt.Format("2006-01-02 15:04"),
			elapsed,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes per-product stats to w.
func formatRunStats(out io.Writer, stats []kindStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tTOTAL\tCOMPLETE\tFAILED\tRUNNING\tAVG_ELAPSED")
	for _, s := range stats {
		avg := "-"
		if s.AvgElapsed > 0 {
			avg = s.AvgElapsed.Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", s.Kind, s.Total, s.Complete, s.Failed, s.Running, avg)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
