package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/kinetic-data/form.report/internal/capture"
	"github.com/kinetic-data/form.report/internal/config"
	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/fsutil"
	"github.com/kinetic-data/form.report/internal/scoring"
	"github.com/kinetic-data/form.report/internal/session"
)

// captureRun is the result of replaying one capture file through the
// scoring engine. It is also the JSON output shape of the score command.
type captureRun struct {
	ExerciseID string                `json:"exercise_id"`
	Frames     []scoring.FrameResult `json:"frames"`
	Summary    session.Summary       `json:"summary"`
	Skipped    int                   `json:"skipped_lines"`
	Malformed  int                   `json:"malformed_frames"`
}

// loadTuning resolves the engine tuning from the --tuning flag or config.
// Without a file every getter falls back to its built-in default.
func loadTuning() (*config.TuningConfig, error) {
	if path := viper.GetString("tuning"); path != "" {
		return config.LoadTuningConfig(path)
	}
	return config.EmptyTuningConfig(), nil
}

// loadRegistry builds the exercise registry from the builtins plus any
// template file named by the --templates flag or config.
func loadRegistry() (*exercise.Registry, error) {
	registry := exercise.NewRegistry()
	if path := viper.GetString("templates"); path != "" {
		if err := registry.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// sessionConfig maps tuning values onto the session engine knobs, matching
// what the daemon does at startup.
func sessionConfig(tuning *config.TuningConfig) session.Config {
	return session.Config{
		Scorer: scoring.NewScorer(scoring.Config{
			MaxDeviationDeg: tuning.GetMaxDeviationDeg(),
			FeedbackLimit:   tuning.GetFeedbackLimit(),
		}),
		Fold: session.FoldConfig{
			ExcellentMin:         tuning.GetExcellentMinScore(),
			GoodMin:              tuning.GetGoodMinScore(),
			TopCompensationLimit: tuning.GetTopCompensationLimit(),
		},
		SmoothDepth:    tuning.GetSmoothDepth(),
		SmootherWindow: tuning.GetSmootherWindow(),
		SmootherSigma:  tuning.GetSmootherSigma(),
		TimelineCap:    tuning.GetSessionTimelineCap(),
	}
}

// scoreCapture replays the NDJSON capture at path through a fresh offline
// session and returns the per-frame results and folded summary.
func scoreCapture(fsys fsutil.FileSystem, path, exerciseID string, tuning *config.TuningConfig, registry *exercise.Registry) (*captureRun, error) {
	tpl, err := registry.Lookup(exerciseID)
	if err != nil {
		return nil, err
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	defer f.Close()

	s := session.NewSession("offline", "formctl", tpl, time.Now(), sessionConfig(tuning))
	threshold := tuning.GetConfidenceThreshold()

	run := &captureRun{ExerciseID: exerciseID}
	dec := capture.NewDecoder(f)
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read capture file: %w", err)
		}
		p, err := rec.Pose(threshold)
		if err != nil {
			s.RecordMalformed()
			run.Malformed++
			continue
		}
		run.Frames = append(run.Frames, s.ProcessFrame(p, rec.Time()))
	}
	run.Skipped = dec.Skipped()

	if len(run.Frames) == 0 && run.Malformed == 0 && run.Skipped == 0 {
		return nil, fmt.Errorf("no frame records found in %s", path)
	}

	run.Summary = s.End()
	return run, nil
}
