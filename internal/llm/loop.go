package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrStepLimit is returned when the model keeps calling tools past the step budget
var ErrStepLimit = errors.New("step limit reached")

// DefaultMaxSteps bounds model calls per question
const DefaultMaxSteps = 50

// DefaultMaxRetries bounds 429 retries per model before falling back
const DefaultMaxRetries = 3

// DefaultSystemPrompt asks for a terse, exact-match answer
const DefaultSystemPrompt = `You are a general AI assistant answering benchmark questions.
Use the available tools to look things up, read attached files, and compute results.
When you are done, reply with a single line of the form:
FINAL ANSWER: <answer>
The answer must be a number, as few words as possible, or a comma separated list.
Do not use units, thousands separators, or articles unless the question asks for them.`

// ToolInvoker runs tools by name for the loop
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
	Specs() []ToolSpec
}

// LoopConfig tunes a Loop
type LoopConfig struct {
	Model          string
	FallbackModels []string
	MaxSteps       int
	MaxRetries     int
	MaxTokens      int
	SystemPrompt   string
	BackoffBase    time.Duration
}

// Loop alternates model calls and tool calls until the model stops asking for tools
type Loop struct {
	provider Provider
	tools    ToolInvoker
	config   LoopConfig
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewLoop creates a tool-calling loop. tools may be nil.
func NewLoop(provider Provider, tools ToolInvoker, config LoopConfig, logger *zap.Logger) *Loop {
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultMaxSteps
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		provider: provider,
		tools:    tools,
		config:   config,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Run answers one question. When it stops early (ErrStepLimit or a failed
// model call) the last assistant text is returned alongside the error.
func (l *Loop) Run(ctx context.Context, question string) (string, error) {
	messages := []Message{
		{Role: RoleSystem, Content: l.config.SystemPrompt},
		{Role: RoleUser, Content: question},
	}

	var specs []ToolSpec
	if l.tools != nil {
		specs = l.tools.Specs()
	}

	last := ""
	for step := 1; step <= l.config.MaxSteps; step++ {
		resp, err := l.chatWithFallback(ctx, ChatRequest{
			Messages:  messages,
			Tools:     specs,
			MaxTokens: l.config.MaxTokens,
		})
		if err != nil {
			return ExtractFinalAnswer(last), err
		}

		msg := resp.Message
		msg.Role = RoleAssistant
		messages = append(messages, msg)
		if msg.Content != "" {
			last = msg.Content
		}

		if len(msg.ToolCalls) == 0 {
			l.logger.Debug("model finished", zap.Int("step", step), zap.String("model", resp.Model))
			return ExtractFinalAnswer(msg.Content), nil
		}

		for _, call := range msg.ToolCalls {
			observation := l.invoke(ctx, call)
			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	return ExtractFinalAnswer(last), fmt.Errorf("%w after %d steps", ErrStepLimit, l.config.MaxSteps)
}

func (l *Loop) invoke(ctx context.Context, call ToolCall) string {
	if l.tools == nil {
		return "Error: no tools available"
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Error: invalid arguments for %s: %v", call.Name, err)
		}
	}

	start := time.Now()
	out, err := l.tools.Invoke(ctx, call.Name, args)
	l.logger.Debug("tool call",
		zap.String("tool", call.Name),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

// chatWithFallback retries rate-limited calls with exponential backoff, then
// moves to the next model. Other errors are returned as is.
func (l *Loop) chatWithFallback(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	models := append([]string{l.config.Model}, l.config.FallbackModels...)

	var lastErr error
	for _, model := range models {
		req.Model = model
		delay := l.config.BackoffBase
		for attempt := 0; attempt <= l.config.MaxRetries; attempt++ {
			resp, err := l.provider.Chat(ctx, req)
			if err == nil {
				return resp, nil
			}
			if !errors.Is(err, ErrRateLimited) {
				return nil, err
			}
			lastErr = err
			if attempt == l.config.MaxRetries {
				break
			}
			l.logger.Warn("rate limited, backing off",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			if err := l.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}
		l.logger.Warn("model exhausted retries", zap.String("model", model))
	}
	return nil, lastErr
}

var finalAnswerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)FINAL\s*ANSWER\s*:\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?i)The\s+answer\s+is\s*:\s*(.+?)(?:\n|$)`),
}

// ExtractFinalAnswer returns the text after a "FINAL ANSWER:" marker, or the
// whole reply when there is none.
func ExtractFinalAnswer(content string) string {
	for _, re := range finalAnswerPatterns {
		if m := re.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(content)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
