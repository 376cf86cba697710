package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kinetic-data/form.report/internal/capture"
	"github.com/kinetic-data/form.report/internal/httputil"
	"github.com/kinetic-data/form.report/internal/session"
	"github.com/kinetic-data/form.report/internal/version"
)

// createSessionRequest is the body of POST /api/sessions.
type createSessionRequest struct {
	ClientID   string `json:"client_id"`
	ExerciseID string `json:"exercise_id"`
}

// frameIngestResponse reports what a posted frame batch did to the session.
// Skipped counts lines the decoder could not parse at all; Malformed counts
// records that parsed but failed pose validation.
type frameIngestResponse struct {
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Malformed int               `json:"malformed"`
	State     session.LiveState `json:"state"`
}

type reportInfo struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

type endSessionResponse struct {
	Summary session.Summary `json:"summary"`
	Report  *reportInfo     `json:"report,omitempty"`
}

// handleSessions handles the session collection: POST creates a session,
// GET lists the live state of every active session.
func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		ws.createSession(w, r)
	case http.MethodGet:
		httputil.WriteJSONOK(w, ws.manager.States())
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (ws *WebServer) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ClientID == "" {
		httputil.BadRequest(w, "missing 'client_id'")
		return
	}
	if req.ExerciseID == "" {
		httputil.BadRequest(w, "missing 'exercise_id'")
		return
	}

	s, err := ws.manager.Start(req.ClientID, req.ExerciseID)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"session_id": s.ID()})
}

// handleSessionByID routes /api/sessions/{id} and its frames/end subpaths.
func (ws *WebServer) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		httputil.BadRequest(w, "missing session id")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		ws.showSession(w, r, id)
	case "frames":
		ws.ingestFrames(w, r, id)
	case "end":
		ws.endSession(w, r, id)
	default:
		httputil.NotFound(w, "unknown session resource")
	}
}

func (ws *WebServer) showSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	s, ok := ws.manager.Get(id)
	if !ok {
		httputil.NotFound(w, "session not found")
		return
	}
	httputil.WriteJSONOK(w, s.State())
}

// ingestFrames scores a batch of frame records posted over HTTP. The body is
// NDJSON, one record per line; a single JSON object body is the one-line
// case of the same format. Records that fail pose validation are counted
// against the session instead of aborting the batch.
func (ws *WebServer) ingestFrames(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s, ok := ws.manager.Get(id)
	if !ok {
		httputil.NotFound(w, "session not found")
		return
	}

	threshold := ws.tuning.GetConfidenceThreshold()
	dec := capture.NewDecoder(r.Body)
	processed := 0
	malformed := 0
	for {
		rec, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			httputil.BadRequest(w, fmt.Sprintf("read frames: %v", err))
			return
		}

		p, perr := rec.Pose(threshold)
		if perr != nil {
			s.RecordMalformed()
			malformed++
			continue
		}

		res := s.ProcessFrame(p, rec.Time())
		if ws.hub != nil {
			ws.hub.Publish(id, res)
		}
		processed++
	}

	if processed == 0 && malformed == 0 && dec.Skipped() == 0 {
		httputil.BadRequest(w, "empty frame batch")
		return
	}

	httputil.WriteJSONOK(w, frameIngestResponse{
		Processed: processed,
		Skipped:   dec.Skipped(),
		Malformed: malformed,
		State:     s.State(),
	})
}

// endSession finalises a session and returns its summary. With ?report=1 it
// also renders the score and depth plots for the session into the report
// directory before the session state is discarded.
func (ws *WebServer) endSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s, ok := ws.manager.Get(id)
	if !ok {
		httputil.NotFound(w, "session not found")
		return
	}

	// Snapshot the series before End discards the session.
	var resp endSessionResponse
	if wantReport(r) && ws.reportDir != "" {
		timeline := s.Timeline()
		depths := s.DepthSeries()
		spec := s.Template().RepSignal

		dir := MakeReportOutputDir(ws.reportDir, id)
		files, err := GenerateSessionReport(dir, timeline, depths, spec)
		if err != nil {
			logf("failed to generate report for session %s: %v", id, err)
		} else {
			resp.Report = &reportInfo{Dir: dir, Files: files}
		}
	}

	summary, err := ws.manager.End(id)
	if err != nil {
		httputil.NotFound(w, "session not found")
		return
	}
	resp.Summary = summary

	httputil.WriteJSONOK(w, resp)
}

func wantReport(r *http.Request) bool {
	v := r.URL.Query().Get("report")
	return v == "1" || v == "true"
}

// handleConfig reports the effective tuning values, loaded exercises, and
// display units so operators can verify what the daemon is running with.
func (ws *WebServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var exercises []string
	if ws.registry != nil {
		exercises = ws.registry.IDs()
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"version":   version.Version,
		"units":     ws.tuning.GetDisplayUnits(),
		"exercises": exercises,
		"tuning": map[string]interface{}{
			"confidence_threshold":   ws.tuning.GetConfidenceThreshold(),
			"max_deviation_deg":      ws.tuning.GetMaxDeviationDeg(),
			"feedback_limit":         ws.tuning.GetFeedbackLimit(),
			"smooth_depth":           ws.tuning.GetSmoothDepth(),
			"smoother_window":        ws.tuning.GetSmootherWindow(),
			"smoother_sigma":         ws.tuning.GetSmootherSigma(),
			"excellent_min_score":    ws.tuning.GetExcellentMinScore(),
			"good_min_score":         ws.tuning.GetGoodMinScore(),
			"top_compensation_limit": ws.tuning.GetTopCompensationLimit(),
			"session_timeline_cap":   ws.tuning.GetSessionTimelineCap(),
			"udp_read_buffer_bytes":  ws.tuning.GetUDPReadBufferBytes(),
			"subscriber_buffer":      ws.tuning.GetSubscriberBuffer(),
			"stats_interval":         ws.tuning.GetStatsInterval().String(),
		},
	})
}
