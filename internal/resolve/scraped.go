package resolve

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/cache"
	"github.com/ppiankov/gaia-agent/internal/extract"
	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/normalize"
)

// AlbumCount counts an artist's studio albums released within a year range,
// scraped from a discography table. A cached count is authoritative.
type AlbumCount struct {
	Source     PageSource
	Cache      cache.Cache
	Logger     *zap.Logger
	URL        string
	CacheKey   string
	Years      model.YearRange
	TableMatch string // Only tables whose text contains this are considered
}

// NewMercedesSosaAlbums counts Mercedes Sosa studio albums from 2000-2009
func NewMercedesSosaAlbums(source PageSource, c cache.Cache, logger *zap.Logger) *AlbumCount {
	return &AlbumCount{
		Source:     source,
		Cache:      c,
		Logger:     logger,
		URL:        normalize.MercedesSosaURL,
		CacheKey:   normalize.MercedesSosaCache,
		Years:      normalize.MercedesSosaYears,
		TableMatch: "Studio",
	}
}

func (a *AlbumCount) Name() string { return "mercedes" }

func (a *AlbumCount) Description() string {
	return "Count Mercedes Sosa studio albums published between 2000 and 2009 inclusive, using English Wikipedia."
}

func (a *AlbumCount) Resolve(ctx context.Context, question string) Result {
	if n, ok := a.cached(); ok {
		return Answered(strconv.Itoa(n))
	}

	if a.Source == nil {
		return Failed(ReasonFetch, "no page source configured", nil)
	}
	page, err := a.Source.FetchHTML(ctx, a.URL)
	if err != nil {
		return Failed(ReasonFetch, "fetch "+a.URL, err)
	}

	count, ok, err := a.countInPage(page)
	if err != nil {
		return Failed(ReasonParse, "parse tables", err)
	}
	if !ok {
		return Failed(ReasonParse, "no table with a usable year column", nil)
	}

	if a.Cache != nil {
		if err := a.Cache.Set(a.CacheKey, []byte(strconv.Itoa(count)), 0); err != nil {
			logger(a.Logger).Warn("write album count cache", zap.String("key", a.CacheKey), zap.Error(err))
		}
	}
	return Answered(strconv.Itoa(count))
}

// cached returns the cached count if it is a plain non-negative integer
func (a *AlbumCount) cached() (int, bool) {
	if a.Cache == nil {
		return 0, false
	}
	raw, ok := a.Cache.Get(a.CacheKey)
	if !ok {
		return 0, false
	}
	s := strings.TrimSpace(string(raw))
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// countInPage takes the maximum in-range count over all candidate tables.
// ok is false when no candidate table has a year column with any year.
func (a *AlbumCount) countInPage(page string) (int, bool, error) {
	tables, err := extract.ParseTables(page)
	if err != nil {
		return 0, false, err
	}

	best, found := 0, false
	for _, t := range tables {
		if a.TableMatch != "" && !t.Contains(a.TableMatch) {
			continue
		}
		col := t.Column("year")
		if col < 0 {
			continue
		}

		count, years := 0, 0
		for _, row := range t.Rows {
			if col >= len(row) {
				continue
			}
			year, ok := model.ExtractYear(row[col])
			if !ok {
				continue
			}
			years++
			if a.Years.Contains(year) {
				count++
			}
		}
		if years == 0 {
			continue
		}
		if !found || count > best {
			best = count
		}
		found = true
	}
	return best, found, nil
}

// WinnerLookup finds the first competition winner, within a year range,
// whose recorded nationality is a country that no longer exists.
type WinnerLookup struct {
	Source   PageSource
	Cache    cache.Cache
	Logger   *zap.Logger
	URL      string
	CacheKey string
	Years    model.YearRange
	Fallback []map[string]string
}

// NewMalkoWinners looks up Malko Competition winners from 1978-2000
func NewMalkoWinners(source PageSource, c cache.Cache, logger *zap.Logger) *WinnerLookup {
	return &WinnerLookup{
		Source:   source,
		Cache:    c,
		Logger:   logger,
		URL:      normalize.MalkoWinnersURL,
		CacheKey: normalize.MalkoWinnersCache,
		Years:    normalize.MalkoYears,
		Fallback: normalize.MalkoFallbackWinners,
	}
}

func (w *WinnerLookup) Name() string { return "malko" }

func (w *WinnerLookup) Description() string {
	return "Give the first name of the only 20th-century (after 1977) Malko Competition recipient whose nationality is a country that no longer exists."
}

func (w *WinnerLookup) Resolve(ctx context.Context, question string) Result {
	rows := w.load(ctx)

	for _, row := range rows {
		rec, ok := model.WinnerFromRow(row)
		if !ok || !w.Years.Contains(rec.Year) || !normalize.IsDefunctCountry(rec.Country) {
			continue
		}
		if first := rec.FirstName(); first != "" {
			return Answered(first)
		}
	}
	return Failed(ReasonPrecondition, "no winner in range from a defunct country", nil)
}

// load returns winner rows from cache, then a fresh scrape, then the
// built-in fallback list.
func (w *WinnerLookup) load(ctx context.Context) []map[string]string {
	log := logger(w.Logger)

	if rows, ok := w.cached(); ok {
		return rows
	}

	rows, err := w.scrape(ctx)
	if err != nil {
		log.Warn("scrape winners page", zap.String("url", w.URL), zap.Error(err))
	}
	if len(rows) == 0 {
		log.Info("using built-in winners list", zap.Int("records", len(w.Fallback)))
		return w.Fallback
	}

	if w.Cache != nil {
		data, err := json.Marshal(rows)
		if err == nil {
			err = w.Cache.Set(w.CacheKey, data, 0)
		}
		if err != nil {
			log.Warn("write winners cache", zap.String("key", w.CacheKey), zap.Error(err))
		}
	}
	return rows
}

// cached accepts only a non-empty JSON array of string maps
func (w *WinnerLookup) cached() ([]map[string]string, bool) {
	if w.Cache == nil {
		return nil, false
	}
	raw, ok := w.Cache.Get(w.CacheKey)
	if !ok {
		return nil, false
	}
	var rows []map[string]string
	if err := json.Unmarshal(raw, &rows); err != nil || len(rows) == 0 {
		logger(w.Logger).Warn("ignoring malformed winners cache", zap.String("key", w.CacheKey))
		return nil, false
	}
	return rows, true
}

// scrape collects header→cell rows from every table with a "year" header
func (w *WinnerLookup) scrape(ctx context.Context) ([]map[string]string, error) {
	if w.Source == nil {
		return nil, nil
	}
	page, err := w.Source.FetchHTML(ctx, w.URL)
	if err != nil {
		return nil, err
	}
	tables, err := extract.ParseTables(page)
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for _, t := range tables {
		if t.Column("year") < 0 {
			continue
		}
		rows = append(rows, t.Records()...)
	}
	return rows, nil
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
