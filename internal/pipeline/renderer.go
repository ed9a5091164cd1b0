package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/gaia-agent/internal/model"
)

// NewRunID returns a fresh identifier for a batch run
func NewRunID() string {
	return uuid.NewString()
}

// Renderer writes run reports
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable table of the run
func (r *Renderer) RenderMarkdown(report *model.RunReport, path string) error {
	var sb strings.Builder
	r.writeMarkdown(&sb, report)
	return writeFile(path, []byte(sb.String()))
}

func (r *Renderer) writeMarkdown(w io.Writer, report *model.RunReport) {
	_, _ = fmt.Fprintf(w, "# GAIA run %s\n\n", report.RunID)
	_, _ = fmt.Fprintf(w, "- Source: %s\n", report.Source)
	_, _ = fmt.Fprintf(w, "- Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(w, "- Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "- Tasks: %d\n", len(report.Results))
	if report.Grade != nil {
		_, _ = fmt.Fprintf(w, "- Local grade: %d/%d (%.1f%%)\n", report.Grade.Correct, report.Grade.Graded, report.Grade.Percent)
	}
	if report.Submit != nil {
		_, _ = fmt.Fprintf(w, "- Submitted score: %.1f%% (%d/%d correct)\n",
			report.Submit.Score, report.Submit.CorrectCount, report.Submit.TotalAttempted)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "| Task ID | Question | Answer | Route | Result |")
	_, _ = fmt.Fprintln(w, "|---|---|---|---|---|")
	for _, res := range report.Results {
		verdict := ""
		switch {
		case res.Correct != nil && *res.Correct:
			verdict = "✓"
		case res.Correct != nil:
			verdict = "✗ (expected " + mdCell(res.Expected, 40) + ")"
		}
		if res.Error != "" && verdict == "" {
			verdict = "error"
		}
		_, _ = fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			res.TaskID, mdCell(res.Question, 80), mdCell(res.Answer, 60), res.Route, verdict)
	}

	if r.includeFooter {
		_, _ = fmt.Fprintln(w, "\n---\n_Generated by gaia-agent._")
	}
}

// RenderSummary prints a short run summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.RunReport) {
	routes := make(map[string]int)
	failed := 0
	for _, res := range report.Results {
		label := res.Route
		if label == "" {
			label = RouteUnhandled
		}
		routes[label]++
		if res.Error != "" {
			failed++
		}
	}

	_, _ = fmt.Fprintf(w, "\nRun %s: %d tasks, %d errors\n", report.RunID, len(report.Results), failed)
	for _, name := range sortedKeys(routes) {
		_, _ = fmt.Fprintf(w, "  %-12s %d\n", name, routes[name])
	}
	if report.Grade != nil {
		_, _ = fmt.Fprintf(w, "Local grade: %d/%d (%.1f%%)\n", report.Grade.Correct, report.Grade.Graded, report.Grade.Percent)
	}
	if report.Submit != nil {
		_, _ = fmt.Fprintf(w, "Submission: %.1f%% (%d/%d correct) %s\n",
			report.Submit.Score, report.Submit.CorrectCount, report.Submit.TotalAttempted, report.Submit.Message)
	}
}

// mdCell flattens text for a Markdown table cell
func mdCell(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit-1]) + "…"
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
