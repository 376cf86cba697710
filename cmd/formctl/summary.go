package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kinetic-data/form.report/internal/fsutil"
	"github.com/kinetic-data/form.report/internal/session"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <capture-file>",
	Short: "Summarize a recorded capture file.",
	Long: `Replay an NDJSON capture file through the scoring engine and print the
folded session summary: frame and rep counts, score statistics, the
quality distribution, and the most frequent compensations.

Examples:
  formctl summary session.ndjson
  formctl summary session.ndjson --exercise push_up --output csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

// summaryOutput is the JSON output shape of the summary command.
type summaryOutput struct {
	ExerciseID string          `json:"exercise_id"`
	Summary    session.Summary `json:"summary"`
	Skipped    int             `json:"skipped_lines"`
	Malformed  int             `json:"malformed_frames"`
}

func runSummary(cmd *cobra.Command, args []string) error {
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
		return renderJSON(w, summaryOutput{
			ExerciseID: run.ExerciseID,
			Summary:    run.Summary,
			Skipped:    run.Skipped,
			Malformed:  run.Malformed,
		})
	case csvOut:
		cw := csv.NewWriter(w)
		if err := writeSummaryCSV(cw, run, opts); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	default:
		return writeSummaryTable(w, run, opts)
	}
}

// summaryRows flattens the summary into metric name and value pairs shared
// by the table and CSV renderers. Values are plain, uncolored strings.
func summaryRows(run *captureRun, opts renderOptions) [][]string {
	s := run.Summary
	return [][]string{
		{"exercise", run.ExerciseID},
		{"frames", strconv.Itoa(s.FrameCount)},
		{"skipped_lines", strconv.Itoa(run.Skipped)},
		{"malformed_frames", strconv.Itoa(run.Malformed)},
		{"reps", strconv.FormatUint(uint64(s.RepCount), 10)},
		{"mean_score", opts.formatScore(s.MeanScore)},
		{"median_score", opts.formatScore(s.MedianScore)},
		{"p10_score", opts.formatScore(s.P10Score)},
		{"excellent_frames", strconv.Itoa(s.ScoreDistribution.Excellent)},
		{"good_frames", strconv.Itoa(s.ScoreDistribution.Good)},
		{"needs_work_frames", strconv.Itoa(s.ScoreDistribution.NeedsWork)},
	}
}

// writeSummaryTable prints the session summary as a metric table followed by
// the top compensations, if any.
func writeSummaryTable(w io.Writer, run *captureRun, opts renderOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	rows := summaryRows(run, opts)
	rows = append(rows, []string{"verdict", colorVerdict(run.Summary.MeanScore)})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(run.Summary.TopCompensations) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Top compensations:")
	comp := tablewriter.NewWriter(w)
	comp.Header([]string{"Compensation", "Frames"})
	comp.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, lc := range run.Summary.TopCompensations {
		data = append(data, []string{lc.Label, strconv.Itoa(lc.Count)})
	}
	if err := comp.Bulk(data); err != nil {
		return err
	}
	return comp.Render()
}

// writeSummaryCSV writes the session summary as metric,value records.
func writeSummaryCSV(w *csv.Writer, run *captureRun, opts renderOptions) error {
	if err := w.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	rows := summaryRows(run, opts)
	rows = append(rows, []string{"verdict", plainVerdict(run.Summary.MeanScore)})
	for _, lc := range run.Summary.TopCompensations {
		rows = append(rows, []string{"compensation:" + lc.Label, strconv.Itoa(lc.Count)})
	}
	for _, rec := range rows {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
