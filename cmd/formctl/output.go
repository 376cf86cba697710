package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"github.com/kinetic-data/form.report/internal/scoring"
	"github.com/kinetic-data/form.report/internal/units"
)

// Output formats accepted by the --output flag.
const (
	tableOut = "table"
	jsonOut  = "json"
	csvOut   = "csv"
)

// Verdict colors for table output
var (
	excellentColor = color.New(color.FgGreen, color.Bold)
	goodColor      = color.New(color.FgGreen)
	fairColor      = color.New(color.FgYellow)
	poorColor      = color.New(color.FgRed, color.Bold)
)

// plainVerdict is the uncolored quality label used in csv output.
func plainVerdict(score float64) string {
	return scoring.QualityLabel(score)
}

// colorVerdict wraps the plain quality label in its severity color. Only
// table output uses this; csv and json stay uncolored for parseability.
func colorVerdict(score float64) string {
	label := scoring.QualityLabel(score)
	switch label {
	case "excellent":
		return excellentColor.Sprint(label)
	case "good":
		return goodColor.Sprint(label)
	case "fair":
		return fairColor.Sprint(label)
	default:
		return poorColor.Sprint(label)
	}
}

// renderOptions carries the shared display knobs resolved from flags and
// config.
type renderOptions struct {
	Units     string
	Precision int
}

func newRenderOptions() renderOptions {
	return renderOptions{
		Units:     viper.GetString("units"),
		Precision: viper.GetInt("precision"),
	}
}

// formatScore renders a score value at the configured precision.
func (o renderOptions) formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', o.Precision, 64)
}

// formatAngle converts a degree value into the configured display units and
// renders it with a unit suffix.
func (o renderOptions) formatAngle(deg float64) string {
	v := units.ConvertAngle(deg, o.Units)
	if o.Units == units.Radians {
		return fmt.Sprintf("%.3f rad", v)
	}
	return fmt.Sprintf("%.*f deg", o.Precision, v)
}

// formatCompensations joins compensation events into one table cell.
func formatCompensations(events []scoring.CompensationEvent, opts renderOptions) string {
	if len(events) == 0 {
		return ""
	}
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", ev.Severity, ev.Label, opts.formatAngle(ev.DeviationDeg)))
	}
	return strings.Join(parts, "; ")
}

// outputWriter resolves the destination for command output. The cleanup
// function is a no-op for stdout.
func outputWriter() (io.Writer, func(), error) {
	path := viper.GetString("output-file")
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	cleanup := func() {
		f.Close()
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return f, cleanup, nil
}

// renderJSON writes v as indented JSON.
func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
