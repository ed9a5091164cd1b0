package score

import (
	"testing"

	"github.com/ppiankov/gaia-agent/internal/model"
)

func TestScorer_Correct(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name   string
		answer string
		truth  string
		want   bool
	}{
		{"integer", "3", "3", true},
		{"currency and separators", "$1,234.50", "1234.5", true},
		{"percent", "12%", "12", true},
		{"wrong number", "4", "3", false},
		{"number with words", "3 albums", "3", false},
		{"case and spacing", "  Claus ", "claus", true},
		{"punctuation ignored", "St. Petersburg", "St Petersburg", true},
		{"list exact", "apple,banana", "apple, banana", true},
		{"list order matters", "banana, apple", "apple, banana", false},
		{"list length", "apple", "apple, banana", false},
		{"list of numbers", "1,000; 2", "1000; 2", false},
		{"list numeric elements", "1; $2", "1; 2", true},
		{"list keeps punctuation", "a.b, c", "ab, c", false},
		{"semicolon list", "x; y", "x;y", true},
		{"different string", "Paris", "London", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Correct(tt.answer, tt.truth); got != tt.want {
				t.Errorf("Correct(%q, %q) = %v, want %v", tt.answer, tt.truth, got, tt.want)
			}
		})
	}
}

func TestScorer_Grade(t *testing.T) {
	s := NewScorer()
	results := []model.TaskResult{
		{TaskID: "a", Answer: "right", Expected: "Right"},
		{TaskID: "b", Answer: "3", Expected: "2"},
		{TaskID: "c", Answer: "UNHANDLED"},
	}

	summary := s.Grade(results)
	if summary == nil {
		t.Fatal("Expected a summary")
	}
	if summary.Graded != 2 || summary.Correct != 1 {
		t.Errorf("Expected 1/2 graded, got %d/%d", summary.Correct, summary.Graded)
	}
	if summary.Percent != 50 {
		t.Errorf("Expected 50%%, got %v", summary.Percent)
	}
	if results[0].Correct == nil || !*results[0].Correct {
		t.Error("Expected first result marked correct")
	}
	if results[1].Correct == nil || *results[1].Correct {
		t.Error("Expected second result marked incorrect")
	}
	if results[2].Correct != nil {
		t.Error("Ungraded result must stay nil")
	}
}

func TestScorer_Grade_NothingToGrade(t *testing.T) {
	if got := NewScorer().Grade([]model.TaskResult{{TaskID: "a", Answer: "x"}}); got != nil {
		t.Errorf("Expected nil summary, got %+v", got)
	}
}

func TestScorer_Grade_Rounding(t *testing.T) {
	results := []model.TaskResult{
		{Answer: "1", Expected: "1"},
		{Answer: "1", Expected: "2"},
		{Answer: "1", Expected: "3"},
	}
	got := NewScorer().Grade(results)
	if got.Percent != 33.3 {
		t.Errorf("Expected 33.3, got %v", got.Percent)
	}
}
