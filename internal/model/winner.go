package model

import (
	"regexp"
	"strconv"
	"strings"
)

// WinnerRecord is one row of a scraped competition winners table
type WinnerRecord struct {
	Year    int    `json:"year"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Header aliases, tried in order; the first non-empty cell wins.
var (
	YearHeaders    = []string{"year", "years"}
	CountryHeaders = []string{"country", "nationality", "nationality/orchestra"}
	NameHeaders    = []string{"winner", "name", "conductor"}
)

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// ExtractYear returns the first 19xx/20xx year found in s
func ExtractYear(s string) (int, bool) {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// WinnerFromRow builds a record from a header→cell map. Header keys are
// matched case-insensitively. ok is false when any of year, country or name
// is missing.
func WinnerFromRow(row map[string]string) (WinnerRecord, bool) {
	lowered := make(map[string]string, len(row))
	for k, v := range row {
		lowered[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	year, ok := ExtractYear(pick(lowered, YearHeaders))
	if !ok {
		return WinnerRecord{}, false
	}

	rec := WinnerRecord{
		Year:    year,
		Name:    pick(lowered, NameHeaders),
		Country: pick(lowered, CountryHeaders),
	}
	if rec.Name == "" || rec.Country == "" {
		return WinnerRecord{}, false
	}
	return rec, true
}

// FirstName returns the first whitespace-delimited token of the name
func (w WinnerRecord) FirstName() string {
	fields := strings.Fields(w.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func pick(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := row[alias]; v != "" {
			return v
		}
	}
	return ""
}

// YearRange is an inclusive range of years
type YearRange struct {
	Start int
	End   int
}

// Contains reports whether year falls inside the range
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}
