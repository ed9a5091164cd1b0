package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswer(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		question string
		want     string
	}{
		{"currency and thousands", "$1,234.56", "total sales?", "1234.56"},
		{"percent", "12%", "what percent?", "12"},
		{"comma list", "apple, banana, cherry", "Give me a comma separated list of fruit", "apple,banana,cherry"},
		{"numeric comma list collapses", "1, 2, 3", "List the values, comma separated", "123"},
		{"numeric list kept without list question", "1, 2, 3", "", "1, 2, 3"},
		{"comma list needs list or separated", "apple, banana", "use a comma please", "apple, banana"},
		{"whitespace", "  right \n", "", "right"},
		{"answer prefix", "The answer is 42", "", "42"},
		{"stacked prefixes", "Final answer: Therefore, Paris", "", "Paris"},
		{"correct noun prefix", "The correct city is Saint Petersburg", "", "Saint Petersburg"},
		{"ordinal marker", "1. Claus", "", "Claus"},
		{"bullet marker", "• broccoli", "", "broccoli"},
		{"negative number survives", "-5", "", "-5"},
		{"decimal survives", "3.14", "", "3.14"},
		{"trailing period", "Paris.", "", "Paris"},
		{"explanation", "Based on the discography, she released several records. The count is 3 albums. That is all.", "", "The count is 3 albums"},
		{"trailing paren", "Claus (the conductor)", "", "Claus"},
		{"wrapping quotes", `"right"`, "", "right"},
		{"curly quotes", "“Claus”", "", "Claus"},
		{"code fence", "```\nb, e\n```", "", "b, e"},
		{"finish json", `{"name": "FINISH", "answer": "Claus"}`, "", "Claus"},
		{"finish json priority", `{"name": "FINISH", "result": "2", "answer": "3"}`, "", "3"},
		{"finish json skips FINISH value", `{"name": "FINISH", "answer": "FINISH", "value": 7}`, "", "7"},
		{"finish json list", `{"name": "FINISH", "vegetables": ["broccoli", "celery"]}`, "", "broccoli, celery"},
		{"finish json nested arguments", `{"name": "FINISH", "arguments": {"answer": "b, e"}}`, "", "b, e"},
		{"broken json left alone", `{"name": "FINISH", "answer": `, "", `{"name": "FINISH", "answer":`},
		{"empty", "   ", "", FallbackAnswer},
		{"only parens", "(none)", "", FallbackAnswer},
		{"symbols without a number kept", "$ for 2 people and more words here", "", "$ for 2 people and more words here"},
		{"code not numeric", "A1B", "", "A1B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Answer(tt.raw, tt.question))
		})
	}
}

func TestAnswer_Idempotent(t *testing.T) {
	questions := []string{
		"",
		"Provide a comma separated list.",
		"What percent?",
	}
	inputs := []string{
		"$1,234.56",
		"12%",
		"apple, banana, cherry",
		"The answer is: \"1. Paris.\"",
		"```json\n{\"name\": \"FINISH\", \"answer\": \"The answer is $5\"}\n```",
		"Final answer: 'so, 3 (approx)'",
		"St. Petersburg is the city. It has 5 million people.",
		"- - 1. Hence, “42”",
		"",
		"..",
		"\"\"",
		"Unable to determine answer",
		"b, e",
	}

	for _, q := range questions {
		for _, in := range inputs {
			once := Answer(in, q)
			assert.Equal(t, once, Answer(once, q), "input %q question %q", in, q)
		}
	}
}

func TestAnswer_DeepNesting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing parens", "Claus" + strings.Repeat(" (x)", 40), "Claus"},
		{"nested quotes", strings.Repeat("\"", 40) + "right" + strings.Repeat("\"", 40), "right"},
		{"stacked prefixes", strings.Repeat("so, ", 40) + "blue", "blue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Answer(tt.in, "")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Answer(got, ""))
		})
	}
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"It costs 1.50", " Buy it", ""}, splitSentences("It costs 1.50. Buy it."))
	assert.Equal(t, []string{"no periods"}, splitSentences("no periods"))
}
