package tools

import (
	"context"
	"fmt"

	"github.com/ppiankov/gaia-agent/internal/media"
)

const (
	imagePrompt = "Analyze this image in detail. Describe everything you see including objects, text, " +
		"positions, colors and patterns. If it is a chess board, give the full position. Transcribe any text."
	audioPrompt = "Transcribe this audio file completely. Pay attention to all details, numbers, names and instructions."
	videoPrompt = "Analyze this video and describe what you see in detail, including objects, people, actions and events."
)

// MediaTool sends an attachment or video URL to the media analyzer
type MediaTool struct {
	kind     string // "image", "audio" or "video"
	analyzer media.Analyzer
	finder   FileFinder
}

// NewImageTool creates analyze_image
func NewImageTool(a media.Analyzer, finder FileFinder) *MediaTool {
	return &MediaTool{kind: "image", analyzer: a, finder: finder}
}

// NewAudioTool creates understand_audio
func NewAudioTool(a media.Analyzer, finder FileFinder) *MediaTool {
	return &MediaTool{kind: "audio", analyzer: a, finder: finder}
}

// NewVideoTool creates understand_video
func NewVideoTool(a media.Analyzer) *MediaTool {
	return &MediaTool{kind: "video", analyzer: a}
}

func (m *MediaTool) Name() string {
	switch m.kind {
	case "image":
		return "analyze_image"
	case "audio":
		return "understand_audio"
	default:
		return "understand_video"
	}
}

func (m *MediaTool) Description() string {
	switch m.kind {
	case "image":
		return "Describe an attached image (photos, diagrams, chess positions, screenshots). Optionally ask a specific question."
	case "audio":
		return "Transcribe an attached audio file (mp3, wav) or answer a question about it."
	default:
		return "Watch a video by URL (e.g. YouTube) and answer a specific question about what is shown."
	}
}

func (m *MediaTool) Parameters() map[string]any {
	if m.kind == "video" {
		return objectSchema([]string{"url"}, map[string]string{
			"url":      "Video URL",
			"question": "What to look for in the video",
		})
	}
	return objectSchema([]string{"path"}, map[string]string{
		"path":     "File name or path",
		"question": "Optional question about the file",
	})
}

// Invoke analyzes the referenced media
func (m *MediaTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	question := optionalString(args, "question", "")

	if m.kind == "video" {
		url, err := stringArg(args, "url")
		if err != nil {
			return "", err
		}
		prompt := videoPrompt
		if question != "" {
			prompt = fmt.Sprintf("Watch this video carefully and answer the following question: %s\n\n"+
				"Provide a direct, concise answer based only on what you observe in the video.", question)
		}
		out, err := m.analyzer.AnalyzeURL(ctx, url, prompt)
		if err != nil {
			return "", err
		}
		return "Video Analysis:\n" + out, nil
	}

	name, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	path, err := m.finder.Find(name)
	if err != nil {
		return "", err
	}

	prompt, label := imagePrompt, "Image Analysis:\n"
	if m.kind == "audio" {
		prompt, label = audioPrompt, "Audio Transcription:\n"
	}
	if question != "" {
		prompt += "\n\nThen answer this question: " + question
	}
	out, err := m.analyzer.AnalyzeFile(ctx, path, prompt)
	if err != nil {
		return "", err
	}
	return label + out, nil
}
