package resolve

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/gaia-agent/internal/normalize"
)

// Reverse answers the reversed-sentence question ("write the opposite of
// the word left"). The answer is constant.
type Reverse struct{}

func (Reverse) Name() string { return "reverse" }

func (Reverse) Description() string {
	return "Answer a question written backwards that asks for the opposite of \"left\"."
}

func (Reverse) Resolve(ctx context.Context, question string) Result {
	return Answered("right")
}

// groceryList captures the items after the list marker, up to "I need" or
// the end of the question.
var groceryList = regexp.MustCompile(`(?is)here['’]s the list i have so far:(.*?)(?:i need|$)`)

// Vegetable filters a grocery list down to botanical vegetables
type Vegetable struct{}

func (Vegetable) Name() string { return "vegetable" }

func (Vegetable) Description() string {
	return "Extract the botanical vegetables from a grocery list and return them alphabetized."
}

func (Vegetable) Resolve(ctx context.Context, question string) Result {
	m := groceryList.FindStringSubmatch(question)
	if m == nil {
		return Failed(ReasonPrecondition, "no list found", nil)
	}

	seen := make(map[string]bool)
	for _, item := range strings.Split(m[1], ",") {
		if v, ok := normalize.CanonicalVegetable(item); ok {
			seen[v] = true
		}
	}
	if len(seen) == 0 {
		return Failed(ReasonPrecondition, "no vegetables identified", nil)
	}

	veggies := make([]string, 0, len(seen))
	for v := range seen {
		veggies = append(veggies, v)
	}
	sort.Strings(veggies)
	return Answered(strings.Join(veggies, ", "))
}

// Witness lists the elements involved in a counter-example to
// commutativity of the fixed operation table.
type Witness struct {
	Table map[string]map[string]string // nil uses normalize.OperationTable
}

func (Witness) Name() string { return "non_comm" }

func (Witness) Description() string {
	return "List the elements of S = {a, b, c, d, e} involved in any counter-example to commutativity of *."
}

func (w Witness) Resolve(ctx context.Context, question string) Result {
	table := w.Table
	if table == nil {
		table = normalize.OperationTable
	}
	witnesses := normalize.NonCommutingElements(table)
	if len(witnesses) == 0 {
		return Failed(ReasonPrecondition, "operation is commutative; no witnesses", nil)
	}
	return Answered(strings.Join(witnesses, ", "))
}
