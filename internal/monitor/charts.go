package monitor

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kinetic-data/form.report/internal/httputil"
)

// handleScoreChart renders a quick scatter plot (HTML) of the per-frame
// score timeline for one session using go-echarts. This is a debugging-only
// endpoint (no auth) to eyeball score progression without a client UI.
// Query params:
//   - session_id (required)
//   - max_points (optional; default 2000) to reduce payload size
func (ws *WebServer) handleScoreChart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	s, ok := ws.manager.Get(sessionID)
	if !ok {
		httputil.NotFound(w, "session not found")
		return
	}

	timeline := s.Timeline()
	if len(timeline) == 0 {
		httputil.NotFound(w, "no scored frames for session")
		return
	}

	maxPoints := 2000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(timeline) > maxPoints {
		stride = int(math.Ceil(float64(len(timeline)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(timeline)/stride+1)
	for i := 0; i < len(timeline); i += stride {
		score := timeline[i].TotalScore
		data = append(data, opts.ScatterData{Value: []interface{}{i, score, score}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session Score Timeline", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Score Timeline", Subtitle: fmt.Sprintf("session=%s exercise=%s frames=%d stride=%d", sessionID, s.ExerciseID(), len(timeline), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: len(timeline), Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "Score", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        100,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("score", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleDepthChart renders the session's depth signal against the rep
// counter's bottom and top thresholds, so hysteresis tuning problems are
// visible at a glance. Occluded frames hold no depth sample and leave gaps.
func (ws *WebServer) handleDepthChart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	s, ok := ws.manager.Get(sessionID)
	if !ok {
		httputil.NotFound(w, "session not found")
		return
	}

	depths := s.DepthSeries()
	spec := s.Template().RepSignal

	depthPts := make([]opts.ScatterData, 0, len(depths))
	bottomPts := make([]opts.ScatterData, 0, len(depths))
	topPts := make([]opts.ScatterData, 0, len(depths))
	minDepth := math.Inf(1)
	maxDepth := math.Inf(-1)
	for i, d := range depths {
		bottomPts = append(bottomPts, opts.ScatterData{Value: []interface{}{i, spec.BottomThreshold}})
		topPts = append(topPts, opts.ScatterData{Value: []interface{}{i, spec.TopThreshold}})
		if math.IsNaN(d) {
			continue
		}
		if d < minDepth {
			minDepth = d
		}
		if d > maxDepth {
			maxDepth = d
		}
		depthPts = append(depthPts, opts.ScatterData{Value: []interface{}{i, d}})
	}
	if len(depthPts) == 0 {
		httputil.NotFound(w, "no depth samples for session")
		return
	}

	// Pad the Y range so the threshold lines stay inside the plot even when
	// the observed signal never crosses them.
	yMin := math.Min(minDepth, spec.BottomThreshold) * 0.95
	yMax := math.Max(maxDepth, spec.TopThreshold) * 1.05
	if yMax == 0 {
		yMax = 1.0
	}

	subtitle := fmt.Sprintf(
		"session=%s exercise=%s samples=%d bottom=%.3f top=%.3f",
		sessionID,
		s.ExerciseID(),
		len(depthPts),
		spec.BottomThreshold,
		spec.TopThreshold,
	)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session Depth Signal", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Depth Signal vs Thresholds", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: len(depths), Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: yMin, Max: yMax, Name: "Depth (normalised)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("depth", depthPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#42a5f5"}))
	scatter.AddSeries("bottom threshold", bottomPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))
	scatter.AddSeries("top threshold", topPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render depth chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleIngestChart renders a simple bar chart of frame ingest throughput.
func (ws *WebServer) handleIngestChart(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		httputil.NotFound(w, "no ingest stats available")
		return
	}

	snap := ws.stats.GetLatestSnapshot()
	if snap == nil {
		snap = &StatsSnapshot{Timestamp: time.Now()}
	}

	x := []string{"Frames/s", "KB/s", "Malformed (recent)", "Dropped (recent)"}
	y := []opts.BarData{
		{Value: snap.FramesPerSec},
		{Value: snap.KBPerSec},
		{Value: snap.MalformedCount},
		{Value: snap.DroppedCount},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Frame Ingest", Subtitle: snap.Timestamp.Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("ingest", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleDebugDashboard renders a simple dashboard with iframes to the debug charts.
func (ws *WebServer) handleDebugDashboard(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	safeSessionID := html.EscapeString(sessionID)
	qs := ""
	if sessionID != "" {
		qs = "?session_id=" + url.QueryEscape(sessionID)
	}
	safeQs := html.EscapeString(qs)

	doc := fmt.Sprintf(dashboardHTML, safeSessionID, safeQs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}
