package model

import (
	"strings"
	"time"
)

// DiagnosticPrefix starts every answer that reports an agent failure rather
// than an attempt at the question
const DiagnosticPrefix = "AGENT ERROR: "

// RunReport summarizes one batch run over a set of tasks
type RunReport struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"` // API base URL or dataset path
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []TaskResult  `json:"results"`
	Grade      *GradeSummary `json:"grade,omitempty"` // Only when tasks carry ground truth
	Submit     *SubmitResult `json:"submit,omitempty"` // Only when the run was submitted
}

// TaskResult is the outcome for a single task
type TaskResult struct {
	TaskID   string        `json:"task_id"`
	Question string        `json:"question"`
	Answer   string        `json:"submitted_answer"`
	Route    string        `json:"route,omitempty"` // Rule name, "llm", or empty when unhandled
	Expected string        `json:"expected,omitempty"`
	Correct  *bool         `json:"correct,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// GradeSummary is the local grading outcome for a run
type GradeSummary struct {
	Graded  int     `json:"graded"`
	Correct int     `json:"correct"`
	Percent float64 `json:"percent"`
}

// Answers converts the results into submission entries. Results without a
// task ID and diagnostic answers are left out; a partial answer that carries
// an Error is still submitted.
func (r *RunReport) Answers() []AnswerEntry {
	entries := make([]AnswerEntry, 0, len(r.Results))
	for _, res := range r.Results {
		if res.TaskID == "" || strings.HasPrefix(res.Answer, DiagnosticPrefix) {
			continue
		}
		entries = append(entries, AnswerEntry{TaskID: res.TaskID, SubmittedAnswer: res.Answer})
	}
	return entries
}
