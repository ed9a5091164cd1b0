// Package normalize holds the static lookup data the fact resolvers consult.
package normalize

import (
	"sort"
	"strings"

	"github.com/ppiankov/gaia-agent/internal/model"
)

// Vegetables is the botanical allow-list, keyed by normalized name.
var Vegetables = map[string]string{
	"broccoli":       "broccoli",
	"celery":         "celery",
	"lettuce":        "lettuce",
	"sweet potatoes": "sweet potatoes",
	"fresh basil":    "fresh basil",
}

// VegetableAliases maps alternate spellings onto allow-list keys.
var VegetableAliases = map[string]string{
	"basil": "fresh basil",
}

// CanonicalVegetable normalizes a raw grocery item and reports whether it is
// a vegetable.
func CanonicalVegetable(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := VegetableAliases[key]; ok {
		key = alias
	}
	v, ok := Vegetables[key]
	return v, ok
}

// Elements is the carrier set of the operation table.
var Elements = []string{"a", "b", "c", "d", "e"}

// OperationTable is * on S = {a, b, c, d, e}; OperationTable[x][y] = x*y.
var OperationTable = map[string]map[string]string{
	"a": {"a": "a", "b": "b", "c": "c", "d": "b", "e": "d"},
	"b": {"a": "b", "b": "c", "c": "a", "d": "e", "e": "c"},
	"c": {"a": "c", "b": "a", "c": "b", "d": "b", "e": "a"},
	"d": {"a": "b", "b": "e", "c": "b", "d": "e", "e": "d"},
	"e": {"a": "d", "b": "b", "c": "a", "d": "d", "e": "c"},
}

// NonCommutingElements returns the sorted set of x for which some y has
// x*y != y*x.
func NonCommutingElements(table map[string]map[string]string) []string {
	witnesses := make(map[string]bool)
	for x, row := range table {
		for y, xy := range row {
			if yx, ok := table[y][x]; ok && xy != yx {
				witnesses[x] = true
				witnesses[y] = true
			}
		}
	}

	out := make([]string, 0, len(witnesses))
	for x := range witnesses {
		out = append(out, x)
	}
	sort.Strings(out)
	return out
}

// DefunctCountry is a state that no longer exists
type DefunctCountry struct {
	Name    string   // Lower-cased match key
	Aliases []string // Additional lower-cased match keys
	EndYear int      // Year it ceased to exist
}

// DefunctCountries are matched by case-insensitive substring.
var DefunctCountries = []DefunctCountry{
	{Name: "ussr", Aliases: []string{"soviet union"}, EndYear: 1991},
	{Name: "yugoslavia", EndYear: 1992},
	{Name: "czechoslovakia", EndYear: 1993},
	{Name: "east germany", EndYear: 1990},
	{Name: "west germany", EndYear: 1990},
	{Name: "serbia and montenegro", EndYear: 2006},
	{Name: "burma", EndYear: 1989},
	{Name: "zaire", EndYear: 1997},
}

// IsDefunctCountry reports whether country names a state that no longer
// exists.
func IsDefunctCountry(country string) bool {
	lowered := strings.ToLower(country)
	if lowered == "" {
		return false
	}
	for _, dc := range DefunctCountries {
		if strings.Contains(lowered, dc.Name) {
			return true
		}
		for _, alias := range dc.Aliases {
			if strings.Contains(lowered, alias) {
				return true
			}
		}
	}
	return false
}

// Scraped fact sources
const (
	MercedesSosaURL   = "https://en.wikipedia.org/wiki/Mercedes_Sosa"
	MercedesSosaCache = "mercedes_sosa_album_count.json"
	MalkoWinnersURL   = "https://malkocompetition.dk/winners/all"
	MalkoWinnersCache = "malko_winners.json"
)

var (
	MercedesSosaYears = model.YearRange{Start: 2000, End: 2009}
	MalkoYears        = model.YearRange{Start: 1978, End: 2000}
)

// MalkoFallbackWinners is used when the winners page cannot be scraped.
// Rows use the same header→cell shape as scraped rows.
var MalkoFallbackWinners = []map[string]string{
	{"year": "1980", "winner": "Claus Peter Flor", "country": "West Germany"},
	{"year": "1983", "winner": "Gotthard Lienicke", "country": "East Germany"},
	{"year": "1989", "winner": "Maximiano Valdes", "country": "Brazil"},
}
