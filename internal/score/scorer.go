// Package score grades answers locally with the benchmark's exact-match rules.
package score

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ppiankov/gaia-agent/internal/model"
)

var listSeparators = regexp.MustCompile(`[,;]`)

// Scorer compares submitted answers with ground truth
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Correct reports whether answer matches truth. Numbers compare as floats
// after dropping $ % and commas, lists compare element-wise, and strings
// compare ignoring case, whitespace and punctuation.
func (s *Scorer) Correct(answer, truth string) bool {
	if isFloat(truth) {
		return numberEqual(answer, truth)
	}

	if listSeparators.MatchString(truth) {
		got := splitList(answer)
		want := splitList(truth)
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if isFloat(want[i]) {
				if !numberEqual(got[i], want[i]) {
					return false
				}
				continue
			}
			if normalizeString(got[i], false) != normalizeString(want[i], false) {
				return false
			}
		}
		return true
	}

	return normalizeString(answer, true) == normalizeString(truth, true)
}

// Grade marks every result that has an expected answer and summarizes the run.
// It returns nil when nothing could be graded.
func (s *Scorer) Grade(results []model.TaskResult) *model.GradeSummary {
	summary := &model.GradeSummary{}
	for i := range results {
		res := &results[i]
		if res.Expected == "" {
			res.Correct = nil
			continue
		}
		ok := s.Correct(res.Answer, res.Expected)
		res.Correct = &ok
		summary.Graded++
		if ok {
			summary.Correct++
		}
	}
	if summary.Graded == 0 {
		return nil
	}
	summary.Percent = math.Round(float64(summary.Correct)/float64(summary.Graded)*1000) / 10
	return summary
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// normalizeNumber parses a numeric answer; unparseable input never matches
func normalizeNumber(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", "%", "", ",", "").Replace(s)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func numberEqual(answer, truth string) bool {
	got, ok := normalizeNumber(answer)
	if !ok {
		return false
	}
	want, _ := strconv.ParseFloat(strings.TrimSpace(truth), 64)
	return got == want
}

func splitList(s string) []string {
	parts := listSeparators.Split(s, -1)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// normalizeString drops whitespace, optionally punctuation, and lowercases
func normalizeString(s string, removePunct bool) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if removePunct && unicode.IsPunct(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
