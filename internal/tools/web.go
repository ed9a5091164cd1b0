package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/ppiankov/gaia-agent/internal/pipeline"
)

// DefaultWikipediaAPI is the English Wikipedia MediaWiki endpoint
const DefaultWikipediaAPI = "https://en.wikipedia.org/w/api.php"

const (
	wikiTopK        = 2
	wikiMaxChars    = 4000
	webFetchMaxChar = 20000
)

// Fetcher retrieves a URL with retries
type Fetcher interface {
	FetchWithRetry(ctx context.Context, rawURL string) (*pipeline.FetchResult, error)
}

// WikipediaSearch looks up articles and returns their plain-text extracts
type WikipediaSearch struct {
	Fetcher  Fetcher
	Endpoint string // MediaWiki api.php; empty uses DefaultWikipediaAPI
}

func (WikipediaSearch) Name() string { return "wikipedia_search" }

func (WikipediaSearch) Description() string {
	return "Search English Wikipedia. Returns the titles and text of the best matching articles."
}

func (WikipediaSearch) Parameters() map[string]any {
	return objectSchema([]string{"query"}, map[string]string{
		"query": "Search terms, e.g. 'Mercedes Sosa discography'",
	})
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			PageID  int    `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Invoke searches for args["query"]
func (w WikipediaSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("format", "json")
	params.Set("srlimit", strconv.Itoa(wikiTopK))
	params.Set("srprop", "snippet")

	var search wikiSearchResponse
	if err := w.getJSON(ctx, params, &search); err != nil {
		return "", fmt.Errorf("wikipedia search: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return "No good Wikipedia Search Result was found", nil
	}

	ids := make([]string, 0, len(search.Query.Search))
	order := make(map[int]int, len(search.Query.Search))
	for i, hit := range search.Query.Search {
		ids = append(ids, strconv.Itoa(hit.PageID))
		order[hit.PageID] = i
	}

	params = url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("pageids", strings.Join(ids, "|"))
	params.Set("format", "json")

	var extracts wikiExtractResponse
	if err := w.getJSON(ctx, params, &extracts); err != nil {
		return "", fmt.Errorf("wikipedia extracts: %w", err)
	}

	type page struct {
		rank    int
		title   string
		extract string
	}
	pages := make([]page, 0, len(extracts.Query.Pages))
	for _, p := range extracts.Query.Pages {
		pages = append(pages, page{rank: order[p.PageID], title: p.Title, extract: p.Extract})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].rank < pages[j].rank })

	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Page: %s\nSummary: %s", p.title, truncate(strings.TrimSpace(p.extract), wikiMaxChars))
	}
	return sb.String(), nil
}

func (w WikipediaSearch) getJSON(ctx context.Context, params url.Values, out any) error {
	endpoint := w.Endpoint
	if endpoint == "" {
		endpoint = DefaultWikipediaAPI
	}
	res, err := w.Fetcher.FetchWithRetry(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// WebFetch downloads a page and returns it as Markdown
type WebFetch struct {
	Fetcher  Fetcher
	MaxChars int // 0 uses a built-in limit
}

func (WebFetch) Name() string { return "web_fetch" }

func (WebFetch) Description() string {
	return "Fetch a web page by URL and return its content as Markdown. Plain text and JSON are returned as is."
}

func (WebFetch) Parameters() map[string]any {
	return objectSchema([]string{"url"}, map[string]string{
		"url": "Absolute http(s) URL",
	})
}

// Invoke fetches args["url"]
func (w WebFetch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	rawURL, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q", rawURL)
	}

	res, err := w.Fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}

	limit := w.MaxChars
	if limit <= 0 {
		limit = webFetchMaxChar
	}

	mediaType := strings.TrimSpace(strings.Split(res.ContentType, ";")[0])
	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml" || mediaType == "":
		markdown, err := HTMLToMarkdown(res.HTML)
		if err != nil {
			return "", fmt.Errorf("convert %s: %w", rawURL, err)
		}
		return truncate(markdown, limit), nil
	case strings.HasPrefix(mediaType, "text/"), mediaType == "application/json", mediaType == "application/xml":
		return truncate(res.HTML, limit), nil
	default:
		return "", fmt.Errorf("unsupported content type: %s", mediaType)
	}
}

// DownloadFile saves a URL into the downloads directory so the file tools
// can open it
type DownloadFile struct {
	Fetcher Fetcher
	Dir     string // empty uses the current directory
}

func (DownloadFile) Name() string { return "download_file" }

func (DownloadFile) Description() string {
	return "Download a file from a URL into the downloads directory and return its local path. " +
		"Open it afterwards with read_file, analyze_image or understand_audio."
}

func (DownloadFile) Parameters() map[string]any {
	return objectSchema([]string{"url"}, map[string]string{
		"url": "Absolute http(s) URL of the file",
	})
}

// Invoke downloads args["url"]
func (d DownloadFile) Invoke(ctx context.Context, args map[string]any) (string, error) {
	rawURL, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q", rawURL)
	}

	res, err := d.Fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	target := filepath.Join(dir, downloadName(u, res.ContentType))
	if err := os.WriteFile(target, res.Body, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return fmt.Sprintf("File downloaded successfully: %s (%d bytes)", target, len(res.Body)), nil
}

// downloadName takes the last URL path segment, falling back to a name
// derived from the content type
func downloadName(u *url.URL, contentType string) string {
	name := path.Base(u.Path)
	if name != ".." && strings.Contains(strings.TrimLeft(name, "."), ".") {
		return filepath.Base(name)
	}
	ext := ".bin"
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return "downloaded_file" + ext
}

// HTMLToMarkdown converts an HTML document to CommonMark
func HTMLToMarkdown(html string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	return conv.ConvertString(html)
}
