package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/cache"
	"github.com/ppiankov/gaia-agent/internal/normalize"
)

// stubSource serves a fixed page and counts calls
type stubSource struct {
	page  string
	err   error
	calls int
}

func (s *stubSource) FetchHTML(ctx context.Context, url string) (string, error) {
	s.calls++
	return s.page, s.err
}

func newMemCache() *cache.MemoryCache {
	return cache.NewMemoryCache(0, time.Minute)
}

func TestReverse(t *testing.T) {
	res := Reverse{}.Resolve(context.Background(), `.rewsna eht sa "tfel" drow eht fo etisoppo eht etirw`)
	require.True(t, res.OK())
	assert.Equal(t, "right", res.Answer)
}

func TestVegetable(t *testing.T) {
	q := "Here's the list I have so far: broccoli, Basil, lettuce, basil, sweet potatoes"
	res := Vegetable{}.Resolve(context.Background(), q)
	require.True(t, res.OK())
	assert.Equal(t, "broccoli, fresh basil, lettuce, sweet potatoes", res.Answer)
}

func TestVegetable_StopsAtINeed(t *testing.T) {
	q := "Please help.\nHere’s the list I have so far:\n\nmilk, eggs, celery, green beans, acorns, zucchini, broccoli\n\nI need to make headings. Also lettuce."
	res := Vegetable{}.Resolve(context.Background(), q)
	require.True(t, res.OK())
	assert.Equal(t, "broccoli, celery", res.Answer)
}

func TestVegetable_Failures(t *testing.T) {
	res := Vegetable{}.Resolve(context.Background(), "Please make a list of just the vegetables.")
	require.False(t, res.OK())
	assert.Equal(t, ReasonPrecondition, res.Failure.Reason)
	assert.Equal(t, "no list found", res.Failure.Detail)

	res = Vegetable{}.Resolve(context.Background(), "Here's the list I have so far: milk, eggs")
	require.False(t, res.OK())
	assert.Equal(t, "no vegetables identified", res.Failure.Detail)
}

func TestWitness(t *testing.T) {
	w := Witness{}
	first := w.Resolve(context.Background(), "")
	second := w.Resolve(context.Background(), "")
	require.True(t, first.OK())
	assert.Equal(t, "b, e", first.Answer)
	assert.Equal(t, first, second)
}

func TestWitness_Commutative(t *testing.T) {
	w := Witness{Table: map[string]map[string]string{"a": {"a": "a"}}}
	res := w.Resolve(context.Background(), "")
	require.False(t, res.OK())
	assert.Equal(t, ReasonPrecondition, res.Failure.Reason)
}

const discography = `<html><body>
<table class="wikitable"><caption>Studio albums</caption>
<tr><th>Year</th><th>Album</th></tr>
<tr><td>1999</td><td>A</td></tr>
<tr><td>2000</td><td>B</td></tr>
<tr><td>2005 (reissued 2012)</td><td>C</td></tr>
<tr><td>2009</td><td>D</td></tr>
<tr><td>2011</td><td>E</td></tr>
</table>
<table class="wikitable"><caption>Studio albums (collaborations)</caption>
<tr><th>year</th><th>Album</th></tr>
<tr><td>2003</td><td>F</td></tr>
</table>
<table><caption>Live albums</caption>
<tr><th>Year</th><th>Album</th></tr>
<tr><td>2001</td><td>L1</td></tr><tr><td>2002</td><td>L2</td></tr>
<tr><td>2003</td><td>L3</td></tr><tr><td>2004</td><td>L4</td></tr>
</table>
</body></html>`

func TestAlbumCount_CacheHitSkipsNetwork(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, normalize.MercedesSosaCache), []byte("2"), 0644))

	src := &stubSource{err: errors.New("network must not be used")}
	a := NewMercedesSosaAlbums(src, cache.NewDiskCache(dir, 0), zap.NewNop())

	res := a.Resolve(context.Background(), "How many studio albums were published by Mercedes Sosa between 2000 and 2009?")
	require.True(t, res.OK())
	assert.Equal(t, "2", res.Answer)
	assert.Equal(t, 0, src.calls)
}

func TestAlbumCount_ScrapesAndCaches(t *testing.T) {
	dir := t.TempDir()
	src := &stubSource{page: discography}
	a := NewMercedesSosaAlbums(src, cache.NewDiskCache(dir, 0), zap.NewNop())

	res := a.Resolve(context.Background(), "")
	require.True(t, res.OK(), "%v", res.Failure)
	assert.Equal(t, "3", res.Answer)

	raw, err := os.ReadFile(filepath.Join(dir, normalize.MercedesSosaCache))
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))

	// second call is served from cache
	res = a.Resolve(context.Background(), "")
	assert.Equal(t, "3", res.Answer)
	assert.Equal(t, 1, src.calls)
}

func TestAlbumCount_IgnoresMalformedCache(t *testing.T) {
	c := newMemCache()
	require.NoError(t, c.Set(normalize.MercedesSosaCache, []byte("two"), 0))

	src := &stubSource{page: discography}
	res := NewMercedesSosaAlbums(src, c, nil).Resolve(context.Background(), "")
	require.True(t, res.OK())
	assert.Equal(t, "3", res.Answer)
	assert.Equal(t, 1, src.calls)
}

func TestAlbumCount_Failures(t *testing.T) {
	res := NewMercedesSosaAlbums(&stubSource{err: errors.New("timeout")}, newMemCache(), nil).Resolve(context.Background(), "")
	require.False(t, res.OK())
	assert.Equal(t, ReasonFetch, res.Failure.Reason)
	assert.ErrorContains(t, res.Failure, "timeout")

	page := `<table><caption>Studio</caption><tr><th>Title</th></tr><tr><td>X</td></tr></table>`
	res = NewMercedesSosaAlbums(&stubSource{page: page}, newMemCache(), nil).Resolve(context.Background(), "")
	require.False(t, res.OK())
	assert.Equal(t, ReasonParse, res.Failure.Reason)
}

const winnersPage = `<html><body>
<table>
<tr><th>Year</th><th>Name</th><th>Country</th></tr>
<tr><td>1965</td><td>Ralf Weikert</td><td>Austria</td></tr>
<tr><td>1977</td><td>Old Winner</td><td>USSR</td></tr>
<tr><td>1980</td><td>Claus Peter Flor</td><td>East Germany, GDR</td></tr>
<tr><td>1983</td><td>Someone Else</td><td>Soviet Union</td></tr>
</table>
<table><tr><td>no headers here</td></tr></table>
</body></html>`

func TestWinnerLookup_FallbackWhenFetchFails(t *testing.T) {
	dir := t.TempDir()
	w := NewMalkoWinners(&stubSource{err: errors.New("connection refused")}, cache.NewDiskCache(dir, 0), zap.NewNop())

	res := w.Resolve(context.Background(), "")
	require.True(t, res.OK())
	assert.Equal(t, "Claus", res.Answer)

	_, err := os.Stat(filepath.Join(dir, normalize.MalkoWinnersCache))
	assert.True(t, os.IsNotExist(err), "fallback data must not be cached")
}

func TestWinnerLookup_ScrapesInDocumentOrder(t *testing.T) {
	c := newMemCache()
	src := &stubSource{page: winnersPage}
	w := NewMalkoWinners(src, c, nil)

	res := w.Resolve(context.Background(), "")
	require.True(t, res.OK())
	assert.Equal(t, "Claus", res.Answer)

	raw, ok := c.Get(normalize.MalkoWinnersCache)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"name":"Claus Peter Flor"`)

	res = w.Resolve(context.Background(), "")
	assert.Equal(t, "Claus", res.Answer)
	assert.Equal(t, 1, src.calls)
}

func TestWinnerLookup_UsesCachedRecords(t *testing.T) {
	c := newMemCache()
	require.NoError(t, c.Set(normalize.MalkoWinnersCache,
		[]byte(`[{"years":"1990","conductor":"Vassily Sinaisky","nationality":"Yugoslavia"}]`), 0))

	src := &stubSource{err: errors.New("unused")}
	res := NewMalkoWinners(src, c, nil).Resolve(context.Background(), "")
	require.True(t, res.OK())
	assert.Equal(t, "Vassily", res.Answer)
	assert.Equal(t, 0, src.calls)
}

func TestWinnerLookup_MalformedCacheRescrapes(t *testing.T) {
	for _, bad := range []string{`not json`, `[]`, `{"year":"1980"}`} {
		c := newMemCache()
		require.NoError(t, c.Set(normalize.MalkoWinnersCache, []byte(bad), 0))

		src := &stubSource{page: winnersPage}
		res := NewMalkoWinners(src, c, nil).Resolve(context.Background(), "")
		assert.Equal(t, "Claus", res.Answer, bad)
		assert.Equal(t, 1, src.calls, bad)
	}
}

func TestWinnerLookup_NoMatch(t *testing.T) {
	w := NewMalkoWinners(nil, nil, nil)
	w.Fallback = []map[string]string{{"year": "1989", "winner": "Maximiano Valdes", "country": "Brazil"}}

	res := w.Resolve(context.Background(), "")
	require.False(t, res.OK())
	assert.Equal(t, ReasonPrecondition, res.Failure.Reason)
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Reason: ReasonFetch, Detail: "fetch x", Err: errors.New("boom")}
	assert.Equal(t, "external_fetch_failure: fetch x: boom", f.Error())
	assert.ErrorIs(t, f, f.Err)
	assert.Equal(t, "parse_failure: bad", (&Failure{Reason: ReasonParse, Detail: "bad"}).Error())
}
