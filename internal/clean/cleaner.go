// Package clean normalizes raw agent output into the literal answer format
// expected by GAIA's exact-match grader.
package clean

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FallbackAnswer replaces output that cleans down to nothing.
const FallbackAnswer = "Unable to determine answer"

// Heuristic thresholds for picking a sentence out of an explanation.
const (
	shortSentenceChars = 50
	shortAnswerWords   = 5
)

var jsonAnswerKeys = []string{"answer", "arguments", "vegetables", "surname", "value", "result", "submitted_answer"}

var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(the answer is:?|final answer:|answer:|thus,|therefore,|so,|hence,)\s*`),
	regexp.MustCompile(`(?i)^(the\s+)?(correct\s+)?(number|city|country|name|value|total|result)\s+(is|are|was|were)\s*`),
	regexp.MustCompile(`^\d+\.\s+`),
	regexp.MustCompile(`^[-•*]\s+`),
}

var (
	trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	commaSpace    = regexp.MustCompile(`,\s+`)
)

// Answer cleans raw model or resolver output for the given question.
//
// The cleaning pass is repeated until the output stops changing, which makes
// Answer idempotent: Answer(Answer(x, q), q) == Answer(x, q). Only the first
// pass can grow the text (FINISH JSON numbers, the fallback); every later
// pass that changes it strips something, so the loop ends without a cap.
func Answer(raw, question string) string {
	out := pass(raw, question)
	for {
		next := pass(out, question)
		if next == out {
			return out
		}
		out = next
	}
}

// pass applies each cleaning step once, in order.
func pass(s, question string) string {
	s = strings.TrimSpace(s)
	s = stripCodeFence(s)
	s = extractFinishJSON(s)
	s = stripPrefixes(s)
	s = pickSentence(s)
	s = trailingParen.ReplaceAllString(s, "")
	s = tightenCommaList(s, question)
	s = stripNumberSymbols(s)
	s = unquote(s)

	if strings.TrimSpace(s) == "" {
		return FallbackAnswer
	}
	return s
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// extractFinishJSON unwraps router-style {"name": "FINISH", "answer": ...}
// payloads. Anything that fails to parse is returned unchanged.
func extractFinishJSON(s string) string {
	if !strings.HasPrefix(s, "{") || !strings.Contains(s, `"name"`) || !strings.Contains(s, `"FINISH"`) {
		return s
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return s
	}

	if v, ok := firstAnswerValue(parsed); ok {
		return v
	}
	return s
}

func firstAnswerValue(obj map[string]any) (string, bool) {
	for _, key := range jsonAnswerKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		v, ok := stringify(raw)
		if !ok || v == "" || v == "FINISH" {
			continue
		}
		return v, true
	}
	return "", false
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := stringify(item)
			if !ok || s == "" {
				continue
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), len(parts) > 0
	case map[string]any:
		// tool-call arguments nest the answer one level down
		return firstAnswerValue(val)
	default:
		return "", false
	}
}

func stripPrefixes(s string) string {
	for {
		before := s
		for _, re := range prefixPatterns {
			s = strings.TrimSpace(re.ReplaceAllString(s, ""))
		}
		if s == before {
			return s
		}
	}
}

// pickSentence keeps the first short, fact-like sentence of a multi-sentence
// answer. Periods between digits are decimal points, not sentence breaks.
func pickSentence(s string) string {
	sentences := splitSentences(s)
	if len(sentences) <= 1 {
		return s
	}
	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		if utf8.RuneCountInString(sent) < shortSentenceChars &&
			(hasDigit(sent) || len(strings.Fields(sent)) <= shortAnswerWords) {
			return sent
		}
	}
	return s
}

func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '.' {
			continue
		}
		if i > 0 && i+1 < len(s) && isASCIIDigit(s[i-1]) && isASCIIDigit(s[i+1]) {
			continue
		}
		out = append(out, s[start:i])
		start = i + 1
	}
	return append(out, s[start:])
}

func tightenCommaList(s, question string) string {
	q := strings.ToLower(question)
	if !strings.Contains(q, "comma") {
		return s
	}
	if !strings.Contains(q, "list") && !strings.Contains(q, "separated") {
		return s
	}
	return commaSpace.ReplaceAllString(s, ",")
}

var numberSymbols = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "%", "", ",", "")

func stripNumberSymbols(s string) string {
	if len(strings.Fields(s)) > shortAnswerWords || !hasDigit(s) {
		return s
	}
	stripped := strings.TrimSpace(numberSymbols.Replace(s))
	if _, err := strconv.ParseFloat(stripped, 64); err != nil {
		return s
	}
	return stripped
}

var quotePairs = map[rune]rune{'"': '"', '\'': '\'', '“': '”', '‘': '’'}

func unquote(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	closing, ok := quotePairs[first]
	if !ok || len(s) <= size {
		return s
	}
	last, lastSize := utf8.DecodeLastRuneInString(s)
	if last != closing || len(s) < size+lastSize {
		return s
	}
	return strings.TrimSpace(s[size : len(s)-lastSize])
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
