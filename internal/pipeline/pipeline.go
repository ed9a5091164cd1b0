package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/cache"
	"github.com/ppiankov/gaia-agent/internal/clean"
	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/route"
)

// ErrorPrefix marks diagnostic answers
const ErrorPrefix = model.DiagnosticPrefix

// Route labels for answers that did not come from a rule
const (
	RouteCache     = "cache"
	RouteLLM       = "llm"
	RouteUnhandled = "unhandled"
)

// Fallback answers questions no rule matches. llm.Loop implements it.
type Fallback interface {
	Run(ctx context.Context, question string) (string, error)
}

// Pipeline answers a question: answer cache, then router and resolver, then
// the cleaner. Questions no rule matches go to the fallback when one is set.
type Pipeline struct {
	router      *route.Router
	answers     cache.Cache // Optional
	fallback    Fallback    // Optional
	downloadDir string
	logger      *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithAnswerCache stores clean answers keyed by question text
func WithAnswerCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.answers = c }
}

// WithFallback sets the handler for unmatched questions
func WithFallback(f Fallback) Option {
	return func(p *Pipeline) { p.fallback = f }
}

// WithDownloadDir tells the fallback where task attachments are saved
func WithDownloadDir(dir string) Option {
	return func(p *Pipeline) { p.downloadDir = dir }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline over the given router
func NewPipeline(router *route.Router, opts ...Option) *Pipeline {
	p := &Pipeline{router: router, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Outcome is the answer plus how it was produced
type Outcome struct {
	Answer string
	Route  string
	Err    error // Set when Answer is a diagnostic
}

// Answer returns the literal answer for question. It never panics; failures
// come back as "AGENT ERROR: ..." strings and unmatched questions as
// "UNHANDLED".
func (p *Pipeline) Answer(ctx context.Context, question string) string {
	return p.Resolve(ctx, question, "").Answer
}

// AnswerTask answers one benchmark task and times it
func (p *Pipeline) AnswerTask(ctx context.Context, task model.Task) model.TaskResult {
	start := time.Now()
	out := p.Resolve(ctx, task.Question, task.FileName)

	result := model.TaskResult{
		TaskID:   task.TaskID,
		Question: task.Question,
		Answer:   out.Answer,
		Route:    out.Route,
		Expected: task.FinalAnswer,
		Duration: time.Since(start),
	}
	if out.Err != nil {
		result.Error = out.Err.Error()
	}
	return result
}

// Resolve answers question. attachment names a file saved for the task, if
// any; it is only mentioned to the fallback.
func (p *Pipeline) Resolve(ctx context.Context, question, attachment string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			p.logger.Error("recovered panic while answering", zap.Any("panic", r))
			out = Outcome{Answer: ErrorPrefix + err.Error(), Route: out.Route, Err: err}
		}
	}()

	key := cache.AnswerKey(question)
	if p.answers != nil {
		if cached, ok := p.answers.Get(key); ok && len(cached) > 0 {
			p.logger.Debug("answer cache hit", zap.String("key", key))
			return Outcome{Answer: string(cached), Route: RouteCache}
		}
	}

	rule, ok := p.router.Route(question)
	if !ok {
		if p.fallback == nil {
			return Outcome{Answer: route.Unhandled, Route: RouteUnhandled}
		}
		return p.runFallback(ctx, question, attachment, key)
	}

	p.logger.Debug("routed question", zap.String("rule", rule.Name))
	res := rule.Resolver.Resolve(ctx, question)
	if !res.OK() {
		p.logger.Warn("resolver failed",
			zap.String("rule", rule.Name),
			zap.String("reason", string(res.Failure.Reason)),
			zap.Error(res.Failure))
		return Outcome{Answer: ErrorPrefix + res.Failure.Error(), Route: rule.Name, Err: res.Failure}
	}

	answer := clean.Answer(res.Answer, question)
	p.store(key, answer)
	return Outcome{Answer: answer, Route: rule.Name}
}

func (p *Pipeline) runFallback(ctx context.Context, question, attachment, key string) Outcome {
	prompt := question
	if attachment != "" {
		path := attachment
		if p.downloadDir != "" {
			path = filepath.Join(p.downloadDir, attachment)
		}
		prompt = fmt.Sprintf("%s\n\nAttached file: %s", question, path)
	}

	raw, err := p.fallback.Run(ctx, prompt)
	if err != nil {
		p.logger.Warn("fallback failed", zap.Error(err), zap.Bool("partial", strings.TrimSpace(raw) != ""))
		if strings.TrimSpace(raw) == "" {
			return Outcome{Answer: ErrorPrefix + err.Error(), Route: RouteLLM, Err: err}
		}
		// Partial output still goes through the cleaner but is not cached
		return Outcome{Answer: clean.Answer(raw, question), Route: RouteLLM, Err: err}
	}

	answer := clean.Answer(raw, question)
	if answer != clean.FallbackAnswer {
		p.store(key, answer)
	}
	return Outcome{Answer: answer, Route: RouteLLM}
}

func (p *Pipeline) store(key, answer string) {
	if p.answers == nil {
		return
	}
	if err := p.answers.Set(key, []byte(answer), 0); err != nil {
		p.logger.Warn("failed to cache answer", zap.String("key", key), zap.Error(err))
	}
}
