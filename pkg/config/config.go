// Package config loads webpilot configuration from a YAML file merged over
// built-in defaults, with environment fallbacks for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the reasoning collaborator.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// LoopConfig configures the control loop and its cadences.
type LoopConfig struct {
	// MaxSteps is the hard iteration ceiling. Exceeding it forces a
	// terminal failure with reason step_limit_exceeded.
	MaxSteps int `yaml:"max_steps"`

	// RetryLimit bounds error_count before a retryable failure turns fatal.
	RetryLimit int `yaml:"retry_limit"`

	// AnalyzeCadence runs the progress analyzer every N steps.
	AnalyzeCadence int `yaml:"analyze_cadence"`

	// ReportCadence emits a progress report every N steps.
	ReportCadence int `yaml:"report_cadence"`

	// StuckScoreThreshold is the progress score under which a cycle counts
	// as stuck.
	StuckScoreThreshold float64 `yaml:"stuck_score_threshold"`

	// StuckLimit is the consecutive stuck-cycle bound before the strategy
	// adapter is invoked.
	StuckLimit int `yaml:"stuck_limit"`

	// GuidanceStepLimit is the step beyond which the reasoning node swaps
	// the full system prompt for the minimal variant to save tokens.
	GuidanceStepLimit int `yaml:"guidance_step_limit"`
}

// MemoryConfig configures history compaction.
type MemoryConfig struct {
	// MaxTokens is the hard limit on the history size metric.
	MaxTokens int `yaml:"max_tokens"`

	// ThresholdPercent triggers compaction at this percentage of MaxTokens.
	// It must stay strictly below 100 to leave routing headroom.
	ThresholdPercent float64 `yaml:"threshold_percent"`

	// KeepRecent is the number of most recent messages preserved verbatim.
	KeepRecent int `yaml:"keep_recent"`
}

// PolicyConfig configures the action policy.
type PolicyConfig struct {
	// CriticalActions is the exact-name set that always requires human
	// approval before execution.
	CriticalActions []string `yaml:"critical_actions"`

	// ValidatePatterns are glob patterns that flag an action as a
	// validation candidate (routed through the validator).
	ValidatePatterns []string `yaml:"validate_patterns"`
}

// BrowserConfig configures the playwright-backed executor.
type BrowserConfig struct {
	Headless bool          `yaml:"headless"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Config is the full webpilot configuration.
type Config struct {
	LLM      LLMConfig     `yaml:"llm"`
	Loop     LoopConfig    `yaml:"loop"`
	Memory   MemoryConfig  `yaml:"memory"`
	Policy   PolicyConfig  `yaml:"policy"`
	Browser  BrowserConfig `yaml:"browser"`
	LogLevel string        `yaml:"log_level"`
}

// Default returns the built-in configuration. Cadences and thresholds are
// policy constants with no derivation from first principles; they are
// configuration, not logic.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
		},
		Loop: LoopConfig{
			MaxSteps:            120,
			RetryLimit:          3,
			AnalyzeCadence:      5,
			ReportCadence:       3,
			StuckScoreThreshold: 0.4,
			StuckLimit:          2,
			GuidanceStepLimit:   25,
		},
		Memory: MemoryConfig{
			MaxTokens:        16000,
			ThresholdPercent: 80,
			KeepRecent:       6,
		},
		Policy: PolicyConfig{
			CriticalActions: []string{
				"submit_form",
				"confirm_payment",
				"delete_element",
				"delete_message",
				"remove_item",
				"cancel_order",
			},
			ValidatePatterns: []string{
				"delete_*",
				"submit_*",
				"confirm_*",
				"cancel_*",
				"remove_*",
				"*payment*",
				"*purchase*",
				"*checkout*",
			},
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from path, merged over defaults. An empty path
// returns defaults. Credentials missing from the file fall back to the
// OPENAI_API_KEY and OPENAI_BASE_URL environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if env := os.Getenv("OPENAI_BASE_URL"); env != "" && cfg.LLM.BaseURL == Default().LLM.BaseURL {
		cfg.LLM.BaseURL = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that YAML cannot express.
func (c *Config) Validate() error {
	if c.Loop.MaxSteps <= 0 {
		return fmt.Errorf("loop.max_steps must be positive, got %d", c.Loop.MaxSteps)
	}
	if c.Loop.RetryLimit < 0 {
		return fmt.Errorf("loop.retry_limit must be non-negative, got %d", c.Loop.RetryLimit)
	}
	if c.Memory.ThresholdPercent <= 0 || c.Memory.ThresholdPercent >= 100 {
		// The pre-threshold must sit strictly below the hard limit so the
		// memory manager fires before the compactor's ceiling.
		return fmt.Errorf("memory.threshold_percent must be in (0,100), got %v", c.Memory.ThresholdPercent)
	}
	if c.Memory.KeepRecent < 1 {
		return fmt.Errorf("memory.keep_recent must be at least 1, got %d", c.Memory.KeepRecent)
	}
	return nil
}
