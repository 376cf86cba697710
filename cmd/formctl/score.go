package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kinetic-data/form.report/internal/fsutil"
	"github.com/kinetic-data/form.report/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <capture-file>",
	Short: "Score every frame of a recorded capture file.",
	Long: `Replay an NDJSON capture file through the scoring engine and print one
row per scored frame with its score, verdict, joint coverage, and any
detected compensations.

Examples:
  formctl score session.ndjson
  formctl score session.ndjson --exercise lunge --output json
  formctl score session.ndjson -u rad --precision 2`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

// resolveExercise prefers an explicit --exercise flag over the config and
// environment value.
func resolveExercise(cmd *cobra.Command) string {
	if id, err := cmd.Flags().GetString("exercise"); err == nil && id != "" {
		return id
	}
	return viper.GetString("exercise")
}

func runScore(cmd *cobra.Command, args []string) error {
	tuning, err := loadTuning()
	if err != nil {
		return err
	}
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	run, err := scoreCapture(fsutil.OSFileSystem{}, args[0], resolveExercise(cmd), tuning, registry)
	if err != nil {
		return err
	}

	w, cleanup, err := outputWriter()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := newRenderOptions()
	switch viper.GetString("output") {
	case jsonOut:
		return renderJSON(w, run)
	case csvOut:
		cw := csv.NewWriter(w)
		if err := writeScoreCSV(cw, run, opts); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	default:
		return writeScoreTable(w, run, opts)
	}
}

// writeScoreTable prints the per-frame results as a human-readable table
// with a short summary footer.
func writeScoreTable(w io.Writer, run *captureRun, opts renderOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Frame", "Time", "Score", "Verdict", "Coverage", "Compensations"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var start time.Time
	if len(run.Frames) > 0 {
		start = run.Frames[0].Timestamp
	}
	data := make([][]string, 0, len(run.Frames))
	for i, res := range run.Frames {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("+%.2fs", res.Timestamp.Sub(start).Seconds()),
			opts.formatScore(res.TotalScore),
			colorVerdict(res.TotalScore),
			fmt.Sprintf("%.0f%%", res.ScoredRatio*100),
			formatCompensations(res.Compensations, opts),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := run.Summary
	fmt.Fprintf(w, "Scored %d frames (%d lines skipped, %d frames malformed), %d reps\n",
		s.FrameCount, run.Skipped, run.Malformed, s.RepCount)
	fmt.Fprintf(w, "Mean score %s (%s), median %s, p10 %s\n",
		opts.formatScore(s.MeanScore), scoring.QualityLabel(s.MeanScore),
		opts.formatScore(s.MedianScore), opts.formatScore(s.P10Score))
	return nil
}

// writeScoreCSV writes the per-frame results in CSV format.
func writeScoreCSV(w *csv.Writer, run *captureRun, opts renderOptions) error {
	if err := w.Write([]string{"frame", "timestamp", "score", "verdict", "scored_ratio", "compensations"}); err != nil {
		return err
	}
	for i, res := range run.Frames {
		rec := []string{
			strconv.Itoa(i + 1),
			res.Timestamp.UTC().Format(time.RFC3339Nano),
			opts.formatScore(res.TotalScore),
			scoring.QualityLabel(res.TotalScore),
			strconv.FormatFloat(res.ScoredRatio, 'f', 2, 64),
			formatCompensations(res.Compensations, opts),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
