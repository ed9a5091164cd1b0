package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/gaia-agent/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gaia-agent",
	Short: "gaia-agent - answers GAIA benchmark questions",
	Long: `gaia-agent answers GAIA benchmark questions with a literal, normalized answer.

Questions it recognizes are routed to deterministic resolvers (some scrape
Wikipedia). Everything else goes to an optional tool-calling LLM, or comes
back as UNHANDLED. Answers are cleaned for exact-match grading.

Failures never abort a run: they are reported as "AGENT ERROR: <detail>".`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gaia-agent %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.gaia-agent/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds a JSON logger on stderr; debug level when verbose
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".gaia-agent"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(model.DefaultConfig())

	// GAIA_AGENT_LLM_MODEL overrides llm.model, and so on
	viper.SetEnvPrefix("GAIA_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Well-known provider variables
	_ = viper.BindEnv("llm.api_key", "GAIA_AGENT_LLM_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("llm.base_url", "GAIA_AGENT_LLM_BASE_URL", "OLLAMA_BASE_URL")
	_ = viper.BindEnv("media.api_key", "GAIA_AGENT_MEDIA_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = viper.BindEnv("api.username", "GAIA_AGENT_API_USERNAME", "HF_USERNAME")
	_ = viper.BindEnv("api.agent_code", "GAIA_AGENT_API_AGENT_CODE", "SPACE_ID")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env vars resolve during Unmarshal
func setDefaults(d *model.Config) {
	defaults := map[string]any{
		"http.timeout":                      d.HTTP.Timeout,
		"http.user_agent":                   d.HTTP.UserAgent,
		"http.max_body_bytes":               d.HTTP.MaxBodyBytes,
		"http.insecure_tls":                 d.HTTP.InsecureTLS,
		"http.respect_robots":               d.HTTP.RespectRobots,
		"http.http_proxy":                   d.HTTP.HTTPProxy,
		"http.https_proxy":                  d.HTTP.HTTPSProxy,
		"http.no_proxy":                     d.HTTP.NoProxy,
		"cache.enabled":                     d.Cache.Enabled,
		"cache.dir":                         d.Cache.Dir,
		"cache.memory_ttl":                  d.Cache.MemoryTTL,
		"cache.disk_ttl":                    d.Cache.DiskTTL,
		"rate_limiting.requests_per_second": d.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":          d.RateLimiting.BurstSize,
		"concurrency.workers":               d.Concurrency.Workers,
		"llm.provider":                      d.LLM.Provider,
		"llm.model":                         d.LLM.Model,
		"llm.fallback_models":               d.LLM.FallbackModels,
		"llm.api_key":                       d.LLM.APIKey,
		"llm.base_url":                      d.LLM.BaseURL,
		"llm.timeout":                       d.LLM.Timeout,
		"llm.max_tokens":                    d.LLM.MaxTokens,
		"llm.max_steps":                     d.LLM.MaxSteps,
		"llm.max_retries":                   d.LLM.MaxRetries,
		"media.model":                       d.Media.Model,
		"media.api_key":                     d.Media.APIKey,
		"api.base_url":                      d.API.BaseURL,
		"api.username":                      d.API.Username,
		"api.agent_code":                    d.API.AgentCode,
		"api.questions_timeout":             d.API.QuestionsTimeout,
		"api.submit_timeout":                d.API.SubmitTimeout,
		"api.download_dir":                  d.API.DownloadDir,
		"output.dir":                        d.Output.Dir,
		"output.verbose":                    d.Output.Verbose,
		"output.include_footer":             d.Output.IncludeFooter,
	}
	for key, val := range defaults {
		viper.SetDefault(key, val)
	}
}

// loadConfig resolves the effective configuration: flags, env, file, defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
