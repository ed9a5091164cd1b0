package model

import "time"

// Config holds the complete agent configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Media        MediaConfig        `yaml:"media" mapstructure:"media"`
	API          APIConfig          `yaml:"api" mapstructure:"api"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound page fetches
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the fact and answer caches
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Scraped facts and answers live here
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"` // 0 = never expire
}

// RateLimitingConfig controls per-domain request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LLMConfig configures the optional tool-calling loop
type LLMConfig struct {
	Provider       string   `yaml:"provider" mapstructure:"provider"` // "", "openai", "ollama"
	Model          string   `yaml:"model" mapstructure:"model"`
	FallbackModels []string `yaml:"fallback_models,omitempty" mapstructure:"fallback_models"`
	APIKey         string   `yaml:"-" mapstructure:"api_key"`
	BaseURL        string   `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int      `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens      int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxSteps       int      `yaml:"max_steps" mapstructure:"max_steps"`
	MaxRetries     int      `yaml:"max_retries" mapstructure:"max_retries"` // 429 retries per model
}

// MediaConfig configures the multimodal analyzer used by media tools
type MediaConfig struct {
	Model  string `yaml:"model" mapstructure:"model"`
	APIKey string `yaml:"-" mapstructure:"api_key"`
}

// APIConfig points at the scoring service
type APIConfig struct {
	BaseURL          string        `yaml:"base_url" mapstructure:"base_url"`
	Username         string        `yaml:"username,omitempty" mapstructure:"username"`
	AgentCode        string        `yaml:"agent_code,omitempty" mapstructure:"agent_code"`
	QuestionsTimeout time.Duration `yaml:"questions_timeout" mapstructure:"questions_timeout"`
	SubmitTimeout    time.Duration `yaml:"submit_timeout" mapstructure:"submit_timeout"`
	DownloadDir      string        `yaml:"download_dir" mapstructure:"download_dir"`
}

// OutputConfig controls run report rendering
type OutputConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; gaia-agent/0.1; +https://github.com/ppiankov/gaia-agent)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: false,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".gaia-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   0,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
		LLM: LLMConfig{
			Provider:   "",
			Model:      "gpt-4o-mini",
			Timeout:    60,
			MaxTokens:  1024,
			MaxSteps:   50,
			MaxRetries: 3,
		},
		Media: MediaConfig{
			Model: "gemini-2.0-flash",
		},
		API: APIConfig{
			BaseURL:          "https://agents-course-unit4-scoring.hf.space",
			QuestionsTimeout: 15 * time.Second,
			SubmitTimeout:    60 * time.Second,
			DownloadDir:      "downloads",
		},
		Output: OutputConfig{
			Dir:           "gaia-runs",
			IncludeFooter: true,
		},
	}
}
