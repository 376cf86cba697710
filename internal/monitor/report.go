package monitor

import (
	"fmt"
	"image/color"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/httputil"
	"github.com/kinetic-data/form.report/internal/scoring"
	"github.com/kinetic-data/form.report/internal/security"
)

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeReportOutputDir returns the timestamped output directory for one
// session's report plots: <baseDir>/<session_id>/<timestamp>.
func MakeReportOutputDir(baseDir, sessionID string) string {
	ts := FormatTimestamp(time.Now())
	return filepath.Join(baseDir, security.SanitizeFilename(sessionID), ts)
}

// GenerateSessionReport renders the session's score and depth time series to
// PNG files in outputDir and returns the paths of the files it wrote. The
// score plot carries the total score plus one line per tracked joint angle;
// the depth plot overlays the rep counter's hysteresis thresholds. Occluded
// frames hold no depth sample and are omitted from the depth line.
func GenerateSessionReport(outputDir string, timeline []scoring.FrameResult, depths []float64, signal exercise.RepSignalSpec) ([]string, error) {
	if len(timeline) == 0 {
		return nil, fmt.Errorf("no scored frames to plot")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var files []string

	scoreFile, err := generateScorePlot(outputDir, timeline)
	if err != nil {
		return nil, err
	}
	files = append(files, scoreFile)

	depthFile, err := generateDepthPlot(outputDir, timeline, depths, signal)
	if err != nil {
		return nil, err
	}
	if depthFile != "" {
		files = append(files, depthFile)
	}

	return files, nil
}

// generateScorePlot renders total and per-angle scores over session time.
func generateScorePlot(outputDir string, timeline []scoring.FrameResult) (string, error) {
	p := plot.New()
	p.Title.Text = "Session Score"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 100

	t0 := timeline[0].Timestamp

	totalPts := make(plotter.XYs, 0, len(timeline))
	for _, res := range timeline {
		totalPts = append(totalPts, plotter.XY{X: res.Timestamp.Sub(t0).Seconds(), Y: res.TotalScore})
	}

	totalLine, err := plotter.NewLine(totalPts)
	if err != nil {
		return "", err
	}
	totalLine.Color = color.Black
	totalLine.Width = vg.Points(2)
	p.Add(totalLine)
	p.Legend.Add("total", totalLine)

	// Collect every angle name that appears anywhere in the timeline so a
	// joint that drops out mid-session still gets its full series.
	angleSet := make(map[string]bool)
	for _, res := range timeline {
		for name := range res.AngleScores {
			angleSet[string(name)] = true
		}
	}
	var angleNames []string
	for name := range angleSet {
		angleNames = append(angleNames, name)
	}
	sort.Strings(angleNames)

	colors := generateColors(len(angleNames))
	for i, name := range angleNames {
		pts := make(plotter.XYs, 0, len(timeline))
		for _, res := range timeline {
			score, ok := res.AngleScores[geom.AngleName(name)]
			if !ok {
				continue
			}
			pts = append(pts, plotter.XY{X: res.Timestamp.Sub(t0).Seconds(), Y: score})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	scoreFile := filepath.Join(outputDir, "score.png")
	if err := p.Save(12*vg.Inch, 5*vg.Inch, scoreFile); err != nil {
		return "", fmt.Errorf("save score plot: %w", err)
	}
	return scoreFile, nil
}

// generateDepthPlot renders the depth signal with the hysteresis thresholds.
// Returns an empty path without error when the session has no depth samples.
func generateDepthPlot(outputDir string, timeline []scoring.FrameResult, depths []float64, signal exercise.RepSignalSpec) (string, error) {
	t0 := timeline[0].Timestamp

	depthPts := make(plotter.XYs, 0, len(depths))
	maxX := 0.0
	for i, d := range depths {
		if i >= len(timeline) {
			break
		}
		x := timeline[i].Timestamp.Sub(t0).Seconds()
		if x > maxX {
			maxX = x
		}
		if math.IsNaN(d) {
			continue
		}
		depthPts = append(depthPts, plotter.XY{X: x, Y: d})
	}
	if len(depthPts) == 0 {
		return "", nil
	}

	p := plot.New()
	p.Title.Text = "Depth Signal"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Depth (normalised)"

	depthLine, err := plotter.NewLine(depthPts)
	if err != nil {
		return "", err
	}
	depthLine.Color = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 255}
	depthLine.Width = vg.Points(2)
	p.Add(depthLine)
	p.Legend.Add("depth", depthLine)

	bottomLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: signal.BottomThreshold}, {X: maxX, Y: signal.BottomThreshold}})
	if err != nil {
		return "", err
	}
	bottomLine.Color = color.RGBA{R: 0xd6, G: 0x2f, B: 0x2f, A: 255}
	bottomLine.Width = vg.Points(1)
	p.Add(bottomLine)
	p.Legend.Add("bottom threshold", bottomLine)

	topLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: signal.TopThreshold}, {X: maxX, Y: signal.TopThreshold}})
	if err != nil {
		return "", err
	}
	topLine.Color = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 255}
	topLine.Width = vg.Points(1)
	p.Add(topLine)
	p.Legend.Add("top threshold", topLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	depthFile := filepath.Join(outputDir, "depth.png")
	if err := p.Save(12*vg.Inch, 5*vg.Inch, depthFile); err != nil {
		return "", fmt.Errorf("save depth plot: %w", err)
	}
	return depthFile, nil
}

// generateColors creates a palette of distinct colors for the angle lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// handleReportFile serves generated report artifacts from the report
// directory. The requested path is validated against the configured base
// directory so requests cannot escape it.
func (ws *WebServer) handleReportFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.reportDir == "" {
		httputil.NotFound(w, "report directory not configured")
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/reports/")
	if rel == "" {
		httputil.BadRequest(w, "missing report path")
		return
	}

	target := filepath.Join(ws.reportDir, filepath.FromSlash(rel))
	if err := security.ValidatePathWithinDirectory(target, ws.reportDir); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid report path: %v", err))
		return
	}

	http.ServeFile(w, r, target)
}
