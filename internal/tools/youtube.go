package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// DefaultTimedTextAPI serves YouTube caption tracks as XML
const DefaultTimedTextAPI = "https://www.youtube.com/api/timedtext"

const transcriptMaxChars = 30000

var (
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
		regexp.MustCompile(`embed/([0-9A-Za-z_-]{11})`),
	}
	bareVideoID = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
)

// YouTubeTranscript fetches the caption track of a YouTube video
type YouTubeTranscript struct {
	Fetcher  Fetcher
	Endpoint string // empty uses DefaultTimedTextAPI
	Language string // empty uses "en"
}

func (YouTubeTranscript) Name() string { return "youtube_transcript" }

func (YouTubeTranscript) Description() string {
	return "Get the timestamped captions of a YouTube video. Input is a YouTube URL or an 11-character video ID. " +
		"Use understand_video when the answer depends on what is shown rather than said."
}

func (YouTubeTranscript) Parameters() map[string]any {
	return objectSchema([]string{"video"}, map[string]string{
		"video": "YouTube URL or video ID",
	})
}

type timedText struct {
	Lines []struct {
		Start string `xml:"start,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

// Invoke fetches captions for args["video"]
func (y YouTubeTranscript) Invoke(ctx context.Context, args map[string]any) (string, error) {
	input, err := stringArg(args, "video")
	if err != nil {
		return "", err
	}
	id, err := VideoID(input)
	if err != nil {
		return "", err
	}

	endpoint := y.Endpoint
	if endpoint == "" {
		endpoint = DefaultTimedTextAPI
	}
	lang := y.Language
	if lang == "" {
		lang = "en"
	}
	params := url.Values{}
	params.Set("v", id)
	params.Set("lang", lang)

	res, err := y.Fetcher.FetchWithRetry(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("fetch captions for %s: %w", id, err)
	}

	var track timedText
	if len(strings.TrimSpace(res.HTML)) > 0 {
		if err := xml.Unmarshal(res.Body, &track); err != nil {
			return "", fmt.Errorf("decode captions for %s: %w", id, err)
		}
	}
	if len(track.Lines) == 0 {
		return "", fmt.Errorf("no transcript available for video %s", id)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "YouTube transcript for video %s:\n\n", id)
	for _, line := range track.Lines {
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "[%ss] %s\n", line.Start, text)
	}
	return truncate(sb.String(), transcriptMaxChars), nil
}

// VideoID extracts the 11-character video ID from a YouTube URL or returns
// a bare ID unchanged
func VideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if bareVideoID.MatchString(input) {
		return input, nil
	}
	if strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be") {
		for _, re := range videoIDPatterns {
			if m := re.FindStringSubmatch(input); len(m) > 1 {
				return m[1], nil
			}
		}
	}
	return "", fmt.Errorf("not a YouTube URL or video ID: %q", input)
}
