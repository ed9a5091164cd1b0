package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/pipeline"
)

var (
	answerTimeout time.Duration
	answerFile    string
	answerRoute   bool
	noCache       bool
)

// answerCmd represents the answer command
var answerCmd = &cobra.Command{
	Use:   "answer <question>",
	Short: "Answer a single question",
	Long: `Answer routes one question through the resolvers (and the LLM fallback
when a provider is configured) and prints the cleaned answer.

Example:
  gaia-agent answer ".rewsna eht sa \"tfel\" drow eht fo etisoppo eht etirw ,ecnetnes siht dnatsrednu uoy fI"
  gaia-agent answer "How many studio albums were published by Mercedes Sosa between 2000 and 2009?"
  gaia-agent answer "What is the total in the attached sheet?" --file sales.xlsx --llm-provider openai`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)

	answerCmd.Flags().DurationVar(&answerTimeout, "timeout", 5*time.Minute, "overall timeout")
	answerCmd.Flags().StringVar(&answerFile, "file", "", "attachment file name (looked up in the download dir)")
	answerCmd.Flags().BoolVar(&answerRoute, "show-route", false, "print the route that produced the answer")
	addAgentFlags(answerCmd)
}

// addAgentFlags registers flags shared by commands that build an agent
func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the answer and fact caches")
	cmd.Flags().String("llm-provider", "", "LLM provider for unmatched questions (openai, ollama)")
	cmd.Flags().String("llm-model", "", "LLM model name")
	cmd.Flags().Bool("insecure", false, "skip TLS certificate verification")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// bindAgentFlags maps explicitly set flags onto config keys
func bindAgentFlags(cmd *cobra.Command) {
	bindings := map[string]string{
		"llm-provider": "llm.provider",
		"llm-model":    "llm.model",
		"insecure":     "http.insecure_tls",
		"http-proxy":   "http.http_proxy",
		"https-proxy":  "http.https_proxy",
		"workers":      "concurrency.workers",
		"output-dir":   "output.dir",
	}
	for flag, key := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// agentConfig loads config and applies command-line overrides
func agentConfig(cmd *cobra.Command) (*model.Config, error) {
	bindAgentFlags(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

func runAnswer(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := agentConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newAgent(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
	defer cancel()

	out := a.pipeline.Resolve(ctx, question, answerFile)
	if answerRoute {
		route := out.Route
		if route == "" {
			route = pipeline.RouteUnhandled
		}
		fmt.Fprintf(os.Stderr, "route: %s\n", route)
	}
	fmt.Println(out.Answer)
	return nil
}
