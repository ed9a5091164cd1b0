// Package media answers questions about images, audio, and video through a
// multimodal model.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no API key was supplied
var ErrNotConfigured = errors.New("media analyzer not configured: set GEMINI_API_KEY or media.api_key")

// maxInlineBytes is the largest file sent inline with a request
const maxInlineBytes = 20 << 20

// Analyzer describes media for the agent
type Analyzer interface {
	// AnalyzeFile sends a local image or audio file with a prompt
	AnalyzeFile(ctx context.Context, path, prompt string) (string, error)

	// AnalyzeURL sends a remote video (e.g. YouTube) with a prompt
	AnalyzeURL(ctx context.Context, url, prompt string) (string, error)
}

// modelCaller is the slice of the genai client we use; tests stub it
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer implements Analyzer on the Gemini API
type GeminiAnalyzer struct {
	model  string
	apiKey string
	caller modelCaller
	logger *zap.Logger
}

// NewGeminiAnalyzer creates an analyzer. The client is built lazily on first
// use so a missing key only fails media questions.
func NewGeminiAnalyzer(model, apiKey string, logger *zap.Logger) *GeminiAnalyzer {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiAnalyzer{model: model, apiKey: apiKey, logger: logger}
}

func (g *GeminiAnalyzer) client(ctx context.Context) (modelCaller, error) {
	if g.caller != nil {
		return g.caller, nil
	}
	if g.apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.caller = client.Models
	return g.caller, nil
}

// AnalyzeFile implements Analyzer
func (g *GeminiAnalyzer) AnalyzeFile(ctx context.Context, path, prompt string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxInlineBytes {
		return "", fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), maxInlineBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, MimeType(path, data)),
		genai.NewPartFromText(prompt),
	}
	return g.generate(ctx, parts)
}

// AnalyzeURL implements Analyzer
func (g *GeminiAnalyzer) AnalyzeURL(ctx context.Context, url, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromURI(url, "video/mp4"),
		genai.NewPartFromText(prompt),
	}
	return g.generate(ctx, parts)
}

func (g *GeminiAnalyzer) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	caller, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := caller.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty response from model")
	}
	g.logger.Debug("media analyzed", zap.String("model", g.model), zap.Int("chars", len(text)))
	return text, nil
}

// MimeType guesses a media type from the extension, then the content
func MimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if i := strings.Index(t, ";"); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return http.DetectContentType(data)
}
