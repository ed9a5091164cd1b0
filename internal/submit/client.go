// Package submit talks to the course scoring service: it lists questions,
// downloads task attachments, and posts answers.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/util"
)

// ErrNoFile is returned when a task has no attachment
var ErrNoFile = errors.New("task has no attached file")

// maxErrorBody bounds how much of an error response is quoted
const maxErrorBody = 500

// Client is a scoring API client
type Client struct {
	baseURL          string
	httpClient       *http.Client
	userAgent        string
	questionsTimeout time.Duration
	submitTimeout    time.Duration
}

// NewClient creates a client from the API and HTTP config sections
func NewClient(api model.APIConfig, httpCfg model.HTTPConfig) *Client {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
	}
	return &Client{
		baseURL:          strings.TrimRight(api.BaseURL, "/"),
		httpClient:       &http.Client{Transport: transport},
		userAgent:        httpCfg.UserAgent,
		questionsTimeout: orDefault(api.QuestionsTimeout, 15*time.Second),
		submitTimeout:    orDefault(api.SubmitTimeout, 60*time.Second),
	}
}

// APIError is a non-2xx response from the service
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Detail)
}

// Questions fetches the task list
func (c *Client) Questions(ctx context.Context) ([]model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.questionsTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/questions", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tasks []model.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(tasks) == 0 {
		return nil, errors.New("fetched questions list is empty")
	}

	// Drop entries the service sent without an id or question
	valid := tasks[:0]
	for _, t := range tasks {
		if t.TaskID != "" && t.Question != "" {
			valid = append(valid, t)
		}
	}
	return valid, nil
}

// DownloadFile saves a task's attachment into dir as task.FileName and
// returns its path. Existing non-empty files are reused.
func (c *Client) DownloadFile(ctx context.Context, task model.Task, dir string) (string, error) {
	if task.FileName == "" {
		return "", ErrNoFile
	}
	name := filepath.Base(task.FileName)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", task.FileName)
	}
	path := filepath.Join(dir, name)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(task.TaskID), nil)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", task.TaskID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", task.TaskID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// Submit posts the answers and returns the service's verdict
func (c *Client) Submit(ctx context.Context, sub model.Submission) (*model.SubmitResult, error) {
	if strings.TrimSpace(sub.Username) == "" {
		return nil, errors.New("username is required to submit")
	}
	if len(sub.Answers) == 0 {
		return nil, errors.New("no answers to submit")
	}
	sub.Username = strings.TrimSpace(sub.Username)

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/submit", body)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result model.SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &result, nil
}

// do sends a request and turns non-2xx responses into *APIError
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
}

// errorDetail prefers the FastAPI-style {"detail": ...} field
func errorDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
