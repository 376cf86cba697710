package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kinetic-data/form.report/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/config endpoint so the same JSON can be
// used for both startup configuration and live inspection.
type TuningConfig struct {
	// Pose params
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`

	// Scoring params
	MaxDeviationDeg *float64 `json:"max_deviation_deg,omitempty"`
	FeedbackLimit   *int     `json:"feedback_limit,omitempty"`

	// Rep counting params
	SmoothDepth    *bool    `json:"smooth_depth,omitempty"`
	SmootherWindow *int     `json:"smoother_window,omitempty"`
	SmootherSigma  *float64 `json:"smoother_sigma,omitempty"`

	// Session params
	ExcellentMinScore    *float64 `json:"excellent_min_score,omitempty"`
	GoodMinScore         *float64 `json:"good_min_score,omitempty"`
	TopCompensationLimit *int     `json:"top_compensation_limit,omitempty"`
	SessionTimelineCap   *int     `json:"session_timeline_cap,omitempty"`

	// Ingest params (optional)
	UDPReadBufferBytes *int    `json:"udp_read_buffer_bytes,omitempty"`
	SubscriberBuffer   *int    `json:"subscriber_buffer,omitempty"`
	StatsInterval      *string `json:"stats_interval,omitempty"` // duration string like "60s"
	DisplayUnits       *string `json:"display_units,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/monitor/handlers/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	// Validate ConfidenceThreshold if set
	if c.ConfidenceThreshold != nil {
		if *c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", *c.ConfidenceThreshold)
		}
	}

	// Validate MaxDeviationDeg if set
	if c.MaxDeviationDeg != nil {
		if *c.MaxDeviationDeg <= 0 || *c.MaxDeviationDeg > 180 {
			return fmt.Errorf("max_deviation_deg must be between 0 and 180, got %f", *c.MaxDeviationDeg)
		}
	}

	// Validate FeedbackLimit if set
	if c.FeedbackLimit != nil {
		if *c.FeedbackLimit < 0 {
			return fmt.Errorf("feedback_limit must be non-negative, got %d", *c.FeedbackLimit)
		}
	}

	// Validate SmootherWindow if set
	if c.SmootherWindow != nil {
		if *c.SmootherWindow < 0 {
			return fmt.Errorf("smoother_window must be non-negative, got %d", *c.SmootherWindow)
		}
	}

	// Validate SmootherSigma if set
	if c.SmootherSigma != nil {
		if *c.SmootherSigma <= 0 {
			return fmt.Errorf("smoother_sigma must be positive, got %f", *c.SmootherSigma)
		}
	}

	// Validate score distribution bounds if set
	if c.ExcellentMinScore != nil {
		if *c.ExcellentMinScore < 0 || *c.ExcellentMinScore > 100 {
			return fmt.Errorf("excellent_min_score must be between 0 and 100, got %f", *c.ExcellentMinScore)
		}
	}
	if c.GoodMinScore != nil {
		if *c.GoodMinScore < 0 || *c.GoodMinScore > 100 {
			return fmt.Errorf("good_min_score must be between 0 and 100, got %f", *c.GoodMinScore)
		}
	}
	if c.ExcellentMinScore != nil && c.GoodMinScore != nil {
		if *c.GoodMinScore > *c.ExcellentMinScore {
			return fmt.Errorf("good_min_score %f must not exceed excellent_min_score %f", *c.GoodMinScore, *c.ExcellentMinScore)
		}
	}

	// Validate TopCompensationLimit if set
	if c.TopCompensationLimit != nil {
		if *c.TopCompensationLimit < 0 {
			return fmt.Errorf("top_compensation_limit must be non-negative, got %d", *c.TopCompensationLimit)
		}
	}

	// Validate SessionTimelineCap if set
	if c.SessionTimelineCap != nil {
		if *c.SessionTimelineCap < 0 {
			return fmt.Errorf("session_timeline_cap must be non-negative, got %d", *c.SessionTimelineCap)
		}
	}

	// Validate UDPReadBufferBytes if set
	if c.UDPReadBufferBytes != nil {
		if *c.UDPReadBufferBytes <= 0 {
			return fmt.Errorf("udp_read_buffer_bytes must be positive, got %d", *c.UDPReadBufferBytes)
		}
	}

	// Validate SubscriberBuffer if set
	if c.SubscriberBuffer != nil {
		if *c.SubscriberBuffer < 0 {
			return fmt.Errorf("subscriber_buffer must be non-negative, got %d", *c.SubscriberBuffer)
		}
	}

	// Validate StatsInterval can be parsed if set
	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
	}

	// Validate DisplayUnits if set
	if c.DisplayUnits != nil && *c.DisplayUnits != "" {
		if !units.IsValid(*c.DisplayUnits) {
			return fmt.Errorf("invalid display_units '%s', must be one of: %s", *c.DisplayUnits, units.GetValidUnitsString())
		}
	}

	return nil
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *TuningConfig) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return 60 * time.Second // default
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}

// GetConfidenceThreshold returns the confidence_threshold value or the default.
func (c *TuningConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return 0.5 // default
	}
	return *c.ConfidenceThreshold
}

// GetMaxDeviationDeg returns the max_deviation_deg value or the default.
func (c *TuningConfig) GetMaxDeviationDeg() float64 {
	if c.MaxDeviationDeg == nil {
		return 45.0 // default
	}
	return *c.MaxDeviationDeg
}

// GetFeedbackLimit returns the feedback_limit value or the default.
func (c *TuningConfig) GetFeedbackLimit() int {
	if c.FeedbackLimit == nil {
		return 3 // default
	}
	return *c.FeedbackLimit
}

// GetSmoothDepth returns the smooth_depth value or the default.
func (c *TuningConfig) GetSmoothDepth() bool {
	if c.SmoothDepth == nil {
		return false // default
	}
	return *c.SmoothDepth
}

// GetSmootherWindow returns the smoother_window value or the default.
func (c *TuningConfig) GetSmootherWindow() int {
	if c.SmootherWindow == nil {
		return 5 // default
	}
	return *c.SmootherWindow
}

// GetSmootherSigma returns the smoother_sigma value or the default.
func (c *TuningConfig) GetSmootherSigma() float64 {
	if c.SmootherSigma == nil {
		return 2.0 // default
	}
	return *c.SmootherSigma
}

// GetExcellentMinScore returns the excellent_min_score value or the default.
func (c *TuningConfig) GetExcellentMinScore() float64 {
	if c.ExcellentMinScore == nil {
		return 90.0 // default
	}
	return *c.ExcellentMinScore
}

// GetGoodMinScore returns the good_min_score value or the default.
func (c *TuningConfig) GetGoodMinScore() float64 {
	if c.GoodMinScore == nil {
		return 70.0 // default
	}
	return *c.GoodMinScore
}

// GetTopCompensationLimit returns the top_compensation_limit value or the default.
func (c *TuningConfig) GetTopCompensationLimit() int {
	if c.TopCompensationLimit == nil {
		return 5 // default
	}
	return *c.TopCompensationLimit
}

// GetSessionTimelineCap returns the session_timeline_cap value or the default.
func (c *TuningConfig) GetSessionTimelineCap() int {
	if c.SessionTimelineCap == nil {
		return 8192 // default
	}
	return *c.SessionTimelineCap
}

// GetUDPReadBufferBytes returns the udp_read_buffer_bytes value or the default.
func (c *TuningConfig) GetUDPReadBufferBytes() int {
	if c.UDPReadBufferBytes == nil {
		return 65536 // default
	}
	return *c.UDPReadBufferBytes
}

// GetSubscriberBuffer returns the subscriber_buffer value or the default.
func (c *TuningConfig) GetSubscriberBuffer() int {
	if c.SubscriberBuffer == nil {
		return 64 // default
	}
	return *c.SubscriberBuffer
}

// GetDisplayUnits returns the display_units value or the default.
func (c *TuningConfig) GetDisplayUnits() string {
	if c.DisplayUnits == nil || *c.DisplayUnits == "" {
		return units.Degrees // default
	}
	return *c.DisplayUnits
}
