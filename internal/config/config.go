package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ConfigurationError reports a missing or malformed setting. It is fatal at
// startup and never retried.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

type Config struct {
	ProjectDir string `json:"project_dir"`
	ResultsDir string `json:"results_dir"`
	DBPath     string `json:"db_path"`

	LLMBaseURL     string        `json:"llm_base_url"`
	LLMModel       string        `json:"llm_model"`
	LLMAPIKey      string        `json:"llm_api_key"`
	LLMTemperature float64       `json:"llm_temperature"`
	LLMTimeout     time.Duration `json:"llm_timeout"`

	FinnhubAPIKey string `json:"finnhub_api_key"`

	CacheTTL         time.Duration `json:"cache_ttl"`
	RetryMaxAttempts int           `json:"retry_max_attempts"`
	RetryBaseDelay   time.Duration `json:"retry_base_delay"`
	RetryMaxDelay    time.Duration `json:"retry_max_delay"`
	FetchRateLimit   float64       `json:"fetch_rate_limit"`
	FetchBurst       int           `json:"fetch_burst"`

	MaxDebateRounds      int           `json:"max_debate_rounds"`
	MaxRiskRounds        int           `json:"max_risk_rounds"`
	PersistMinConfidence float64       `json:"persist_min_confidence"`
	RunTimeout           time.Duration `json:"run_timeout"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

func Default() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir: currentDir,
		ResultsDir: filepath.Join(currentDir, "results"),
		DBPath:     filepath.Join(currentDir, "data", "agora.db"),

		LLMBaseURL:     "https://api.openai.com/v1",
		LLMModel:       "gpt-4o-mini",
		LLMTemperature: 0.1,
		LLMTimeout:     120 * time.Second,

		CacheTTL:         5 * time.Minute,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   1 * time.Second,
		RetryMaxDelay:    10 * time.Second,
		FetchRateLimit:   5,
		FetchBurst:       10,

		MaxDebateRounds:      2,
		MaxRiskRounds:        1,
		PersistMinConfidence: 0.5,
		RunTimeout:           10 * time.Minute,

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// FromEnv builds a Config from defaults overridden by environment variables.
// Malformed numeric or duration values fail with a ConfigurationError rather
// than silently falling back.
func FromEnv() (*Config, error) {
	cfg := Default()

	if v := os.Getenv("AGORA_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}
	if v := os.Getenv("AGORA_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("AGORA_LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	cfg.LLMAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.FinnhubAPIKey = os.Getenv("FINNHUB_API_KEY")

	if v := os.Getenv("AGORA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AGORA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	var err error
	if cfg.LLMTemperature, err = envFloat("LLM_TEMPERATURE", cfg.LLMTemperature); err != nil {
		return nil, err
	}
	if cfg.MaxDebateRounds, err = envInt("MAX_DEBATE_ROUNDS", cfg.MaxDebateRounds); err != nil {
		return nil, err
	}
	if cfg.MaxRiskRounds, err = envInt("MAX_RISK_DISCUSS_ROUNDS", cfg.MaxRiskRounds); err != nil {
		return nil, err
	}
	if cfg.PersistMinConfidence, err = envFloat("PERSIST_MIN_CONFIDENCE", cfg.PersistMinConfidence); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = envDuration("AGORA_LLM_TIMEOUT", cfg.LLMTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = envDuration("AGORA_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = envDuration("AGORA_RUN_TIMEOUT", cfg.RunTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings required for a live run. Offline construction (for
// example with injected collaborators) does not need it.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" {
		return &ConfigurationError{Key: "OPENAI_API_KEY", Reason: "required"}
	}
	if c.MaxDebateRounds < 0 {
		return &ConfigurationError{Key: "MAX_DEBATE_ROUNDS", Reason: "must be >= 0"}
	}
	if c.MaxRiskRounds < 0 {
		return &ConfigurationError{Key: "MAX_RISK_DISCUSS_ROUNDS", Reason: "must be >= 0"}
	}
	if c.PersistMinConfidence < 0 || c.PersistMinConfidence > 1 {
		return &ConfigurationError{Key: "PERSIST_MIN_CONFIDENCE", Reason: "must be in [0,1]"}
	}
	if c.RetryMaxAttempts < 1 {
		return &ConfigurationError{Key: "retry_max_attempts", Reason: "must be >= 1"}
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: "not an integer: " + v}
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: "not a number: " + v}
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: "not a duration: " + v}
	}
	return d, nil
}
