package route

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/gaia-agent/internal/resolve"
)

type fixedResolver struct {
	name   string
	answer string
}

func (f fixedResolver) Name() string        { return f.name }
func (f fixedResolver) Description() string { return "fixed" }
func (f fixedResolver) Resolve(ctx context.Context, question string) resolve.Result {
	return resolve.Answered(f.answer)
}

func defaultRouter(t *testing.T) *Router {
	t.Helper()
	resolvers := map[string]resolve.Resolver{}
	for _, p := range DefaultPatterns {
		resolvers[p.Name] = fixedResolver{name: p.Name, answer: p.Name + "-answer"}
	}
	rules, err := DefaultRules(resolvers)
	require.NoError(t, err)
	return NewRouter(rules...)
}

func TestRouter_DefaultPatterns(t *testing.T) {
	router := defaultRouter(t)

	tests := []struct {
		question string
		want     string
	}{
		{`.rewsna eht sa "tfel" drow eht fo etisoppo eht etirw ,ecnetnes siht dnatsrednu uoy fI`, "reverse"},
		{"Could you please create a List of just the Vegetables from my list?", "vegetable"},
		{"Given this table defining * on the set S = {a, b, c, d, e}\n|*|a|b|", "non_comm"},
		{"How many studio albums were published by Mercedes Sosa between 2000 and 2009?", "mercedes"},
		{"Who was Mercedes Sosa?", ""},
		{"Mercedes Sosa is a singer.\n\nHow many studio albums did she publish?", "mercedes"},
		{"What is the first name of the only Malko Competition recipient\nfrom the 20th Century whose nationality on record is a country that no longer exists?", "malko"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			rule, ok := router.Route(tt.question)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, rule.Name)
		})
	}
}

func TestRouter_ReversePatternNeedsLiteralDot(t *testing.T) {
	rule, ok := defaultRouter(t).Route("xrewsna without a dot")
	assert.False(t, ok, "matched %q", rule.Name)
}

func TestRouter_FirstMatchWins(t *testing.T) {
	router := defaultRouter(t)

	q := ".rewsna -- Mercedes Sosa studio albums -- list of just the vegetables"
	rule, ok := router.Route(q)
	require.True(t, ok)
	assert.Equal(t, "reverse", rule.Name)

	res := rule.Resolver.Resolve(context.Background(), q)
	assert.Equal(t, "reverse-answer", res.Answer)
}

func TestRouter_Unmatched(t *testing.T) {
	_, ok := defaultRouter(t).Route("What is the capital of France?")
	assert.False(t, ok)
}

func TestRouter_RulesAreCopied(t *testing.T) {
	rules := []Rule{{Name: "a", Pattern: regexp.MustCompile("a"), Resolver: fixedResolver{name: "a"}}}
	router := NewRouter(rules...)
	rules[0].Name = "mutated"

	got := router.Rules()
	assert.Equal(t, "a", got[0].Name)
	got[0].Name = "mutated"
	assert.Equal(t, "a", router.Rules()[0].Name)
}

func TestDefaultRules_MissingResolver(t *testing.T) {
	_, err := DefaultRules(map[string]resolve.Resolver{"reverse": fixedResolver{}})
	assert.Error(t, err)
}
