package cli

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/pipeline"
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.API.DownloadDir = t.TempDir()
	return cfg
}

func TestNewAgent_Wiring(t *testing.T) {
	a, err := newAgent(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	names := make([]string, 0)
	for _, rule := range a.router.Rules() {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{"reverse", "vegetable", "non_comm", "mercedes", "malko"}, names)

	tools := a.registry.Names()
	for _, want := range []string{
		"calculator", "wikipedia_search", "web_fetch", "list_files", "read_file",
		"download_file", "youtube_transcript", "execute_python_file",
		"analyze_image", "understand_audio", "understand_video",
		"resolve_reverse", "resolve_malko",
	} {
		assert.Contains(t, tools, want)
	}

	assert.Nil(t, a.llm)
	assert.Nil(t, a.answers)
}

func TestNewAgent_AnswersWithoutNetwork(t *testing.T) {
	a, err := newAgent(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	out := a.pipeline.Resolve(ctx, `.rewsna eht sa "tfel" drow eht fo etisoppo eht etirw ,ecnetnes siht dnatsrednu uoy fI`, "")
	assert.Equal(t, "right", out.Answer)
	assert.Equal(t, "reverse", out.Route)

	out = a.pipeline.Resolve(ctx, "What is the airspeed velocity of an unladen swallow?", "")
	assert.Equal(t, "UNHANDLED", out.Answer)
	assert.Equal(t, pipeline.RouteUnhandled, out.Route)
}

func TestNewAgent_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "nope"
	_, err := newAgent(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAgent_OpenAIFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-test"

	a, err := newAgent(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, a.llm)
	assert.Equal(t, "openai/gpt-4o-mini", llmLabel(a))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("GAIA_AGENT_CONCURRENCY_WORKERS", "7")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GAIA_AGENT_CACHE_MEMORY_TTL", "90s")

	cfgFile = t.TempDir() + "/missing.yaml"
	t.Cleanup(func() { cfgFile = "" })
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Concurrency.Workers)
	assert.Equal(t, "gem-key", cfg.Media.APIKey)
	assert.Equal(t, "1m30s", cfg.Cache.MemoryTTL.String())
	assert.Equal(t, "https://agents-course-unit4-scoring.hf.space", cfg.API.BaseURL)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "8e867cd7", shortID("8e867cd7-cff9-4e6c-867a-ff5ddc2550be"))
	assert.Equal(t, "q001", shortID("q001"))
}
