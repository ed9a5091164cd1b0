package model

import (
	"encoding/json"
	"fmt"
)

// Task is one benchmark question, as served by the scoring API or a local dataset file
type Task struct {
	TaskID      string `json:"task_id"`
	Question    string `json:"question"`
	Level       string `json:"level,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"` // Ground truth, only present in validation sets
}

// UnmarshalJSON accepts both the scoring API shape and the raw dataset shape
// ("Question", "Level" as a number, "Final answer").
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.TaskID = firstString(raw, "task_id", "taskId")
	t.Question = firstString(raw, "question", "Question")
	t.Level = firstString(raw, "level", "Level")
	t.FileName = firstString(raw, "file_name", "fileName")
	t.FinalAnswer = firstString(raw, "final_answer", "Final answer")

	if t.TaskID == "" && t.Question == "" {
		return fmt.Errorf("task has neither task_id nor question")
	}
	return nil
}

// firstString returns the first key present as a string or number
func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		val, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(val, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(val, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// AnswerEntry is one submitted answer
type AnswerEntry struct {
	TaskID          string `json:"task_id"`
	SubmittedAnswer string `json:"submitted_answer"`
}

// Submission is the payload posted to the scoring service
type Submission struct {
	Username  string        `json:"username"`
	AgentCode string        `json:"agent_code"`
	Answers   []AnswerEntry `json:"answers"`
}

// SubmitResult is the scoring service's verdict
type SubmitResult struct {
	Username       string  `json:"username"`
	Score          float64 `json:"score"`
	CorrectCount   int     `json:"correct_count"`
	TotalAttempted int     `json:"total_attempted"`
	Message        string  `json:"message"`
}
