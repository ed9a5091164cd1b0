package cli

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/cache"
	"github.com/ppiankov/gaia-agent/internal/llm"
	"github.com/ppiankov/gaia-agent/internal/media"
	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/pipeline"
	"github.com/ppiankov/gaia-agent/internal/resolve"
	"github.com/ppiankov/gaia-agent/internal/route"
	"github.com/ppiankov/gaia-agent/internal/tools"
	"github.com/ppiankov/gaia-agent/internal/util"
	"github.com/ppiankov/gaia-agent/internal/worker"
)

// agent holds every component the commands need, built once from config
type agent struct {
	cfg       *model.Config
	fetcher   *pipeline.Fetcher
	facts     cache.Cache
	answers   cache.Cache // nil when caching is disabled
	resolvers []resolve.Resolver
	router    *route.Router
	registry  *tools.Registry
	llm       llm.Provider // nil when no provider is configured
	pipeline  *pipeline.Pipeline
}

// newAgent wires caches, fetcher, resolvers, router, tools, and the
// optional LLM fallback into a pipeline
func newAgent(cfg *model.Config, logger *zap.Logger) (*agent, error) {
	a := &agent{cfg: cfg}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	a.fetcher = pipeline.NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	).WithRateLimiter(limiter)
	if cfg.HTTP.RespectRobots {
		a.fetcher.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout))
	}

	if cfg.Cache.Enabled {
		a.facts = cache.NewLayeredCache(cfg.Cache.MemoryTTL, filepath.Join(cfg.Cache.Dir, "facts"), cfg.Cache.DiskTTL)
		a.answers = cache.NewLayeredCache(cfg.Cache.MemoryTTL, filepath.Join(cfg.Cache.Dir, "answers"), cfg.Cache.DiskTTL)
	}

	a.resolvers = []resolve.Resolver{
		resolve.Reverse{},
		resolve.Vegetable{},
		resolve.Witness{},
		resolve.NewMercedesSosaAlbums(a.fetcher, a.facts, logger),
		resolve.NewMalkoWinners(a.fetcher, a.facts, logger),
	}
	byName := make(map[string]resolve.Resolver, len(a.resolvers))
	for _, r := range a.resolvers {
		byName[r.Name()] = r
	}
	rules, err := route.DefaultRules(byName)
	if err != nil {
		return nil, err
	}
	a.router = route.NewRouter(rules...)

	registry, err := a.buildTools(logger)
	if err != nil {
		return nil, err
	}
	a.registry = registry

	opts := []pipeline.Option{
		pipeline.WithDownloadDir(cfg.API.DownloadDir),
		pipeline.WithLogger(logger),
	}
	if a.answers != nil {
		opts = append(opts, pipeline.WithAnswerCache(a.answers))
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("configure LLM: %w", err)
	}
	if provider != nil {
		a.llm = provider
		loop := llm.NewLoop(provider, registry, llm.LoopConfig{
			Model:          cfg.LLM.Model,
			FallbackModels: cfg.LLM.FallbackModels,
			MaxSteps:       cfg.LLM.MaxSteps,
			MaxRetries:     cfg.LLM.MaxRetries,
			MaxTokens:      cfg.LLM.MaxTokens,
		}, logger)
		opts = append(opts, pipeline.WithFallback(loop))
		logger.Debug("LLM fallback enabled",
			zap.String("provider", provider.Name()),
			zap.String("model", cfg.LLM.Model))
	}

	a.pipeline = pipeline.NewPipeline(a.router, opts...)
	return a, nil
}

func (a *agent) buildTools(logger *zap.Logger) (*tools.Registry, error) {
	finder := tools.FileFinder{Dirs: []string{a.cfg.API.DownloadDir}}
	analyzer := media.NewGeminiAnalyzer(a.cfg.Media.Model, a.cfg.Media.APIKey, logger)

	list := []tools.Tool{
		tools.Calculator{},
		tools.WikipediaSearch{Fetcher: a.fetcher},
		tools.WebFetch{Fetcher: a.fetcher},
		tools.DownloadFile{Fetcher: a.fetcher, Dir: a.cfg.API.DownloadDir},
		tools.YouTubeTranscript{Fetcher: a.fetcher},
		tools.ListFiles{Finder: finder},
		tools.ReadFile{Finder: finder},
		tools.ExecutePython{Finder: finder},
		tools.NewImageTool(analyzer, finder),
		tools.NewAudioTool(analyzer, finder),
		tools.NewVideoTool(analyzer),
	}
	for _, r := range a.resolvers {
		list = append(list, tools.ResolverTool{Resolver: r})
	}

	return tools.NewRegistry(list...)
}
