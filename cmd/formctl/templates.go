package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/geom"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available exercise templates.",
	Long: `List the exercise templates the scoring engine knows about: the builtins
plus anything loaded with --templates. JSON output includes the full
phase definitions, angle ranges, and compensation rules.

Examples:
  formctl templates
  formctl templates --templates custom.json --output json`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func runTemplates(_ *cobra.Command, _ []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	templates := make([]*exercise.Template, 0, len(registry.IDs()))
	for _, id := range registry.IDs() {
		tpl, err := registry.Lookup(id)
		if err != nil {
			return err
		}
		templates = append(templates, tpl)
	}

	w, cleanup, err := outputWriter()
	if err != nil {
		return err
	}
	defer cleanup()

	switch viper.GetString("output") {
	case jsonOut:
		return renderJSON(w, templates)
	case csvOut:
		cw := csv.NewWriter(w)
		if err := writeTemplatesCSV(cw, templates); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	default:
		return writeTemplatesTable(w, templates)
	}
}

// trackedAngles counts the distinct angle names referenced across phases.
func trackedAngles(tpl *exercise.Template) int {
	seen := make(map[geom.AngleName]struct{})
	for _, ph := range tpl.Phases {
		for name := range ph.AngleRanges {
			seen[name] = struct{}{}
		}
	}
	return len(seen)
}

func phaseNames(tpl *exercise.Template) string {
	names := make([]string, 0, len(tpl.Phases))
	for _, ph := range tpl.Phases {
		names = append(names, ph.Name)
	}
	return strings.Join(names, ", ")
}

func repBand(tpl *exercise.Template) string {
	return fmt.Sprintf("%.2f-%.2f", tpl.RepSignal.BottomThreshold, tpl.RepSignal.TopThreshold)
}

func writeTemplatesTable(w io.Writer, templates []*exercise.Template) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Exercise", "Phases", "Angles", "Rules", "Rep Band"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, tpl := range templates {
		data = append(data, []string{
			tpl.ExerciseID,
			phaseNames(tpl),
			strconv.Itoa(trackedAngles(tpl)),
			strconv.Itoa(len(tpl.CompensationRules)),
			repBand(tpl),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d exercise templates available\n", len(templates))
	return nil
}

func writeTemplatesCSV(w *csv.Writer, templates []*exercise.Template) error {
	if err := w.Write([]string{"exercise", "phases", "tracked_angles", "compensation_rules", "rep_band"}); err != nil {
		return err
	}
	for _, tpl := range templates {
		rec := []string{
			tpl.ExerciseID,
			phaseNames(tpl),
			strconv.Itoa(trackedAngles(tpl)),
			strconv.Itoa(len(tpl.CompensationRules)),
			repBand(tpl),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
