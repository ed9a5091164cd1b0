package llm

import (
	"context"
	"errors"
)

// ErrRateLimited is returned (wrapped) when the upstream API answers 429
var ErrRateLimited = errors.New("rate limited")

// Role of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a tool-calling conversation
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // Assistant turns only
	ToolCallID string     // Tool turns only
	Name       string     // Tool name on tool turns
}

// ToolCall is a model's request to invoke a tool
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // Raw JSON object
}

// ToolSpec advertises a tool to the model
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema object
}

// ChatRequest is a single model call
type ChatRequest struct {
	Model     string // Empty uses the provider default
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int
}

// ChatResponse is the model's reply
type ChatResponse struct {
	Message    Message
	Model      string
	TokensUsed int
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Chat runs one completion, possibly returning tool calls
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// FallbackModels are tried in order after Model is rate limited
	FallbackModels []string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   60,
		MaxTokens: 1024,
	}
}
