package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/gaia-agent/internal/model"
)

func newTestClient(url string) *Client {
	api := model.DefaultConfig().API
	api.BaseURL = url + "/"
	return NewClient(api, model.DefaultConfig().HTTP)
}

func TestClient_Questions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"task_id":"t1","question":"What?","Level":"1","file_name":""},
			{"task_id":"t2","question":"Which?","Level":2,"file_name":"a.xlsx"},
			{"task_id":"","question":"orphan"}
		]`))
	}))
	defer server.Close()

	tasks, err := newTestClient(server.URL).Questions(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].TaskID)
	assert.Equal(t, "2", tasks[1].Level)
	assert.Equal(t, "a.xlsx", tasks[1].FileName)
}

func TestClient_QuestionsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Questions(context.Background())
	assert.ErrorContains(t, err, "empty")
}

func TestClient_DownloadFile(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/files/t2", r.URL.Path)
		_, _ = w.Write([]byte("spreadsheet-bytes"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "downloads")
	c := newTestClient(server.URL)
	task := model.Task{TaskID: "t2", FileName: "a.xlsx"}

	path, err := c.DownloadFile(context.Background(), task, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.xlsx"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "spreadsheet-bytes", string(data))

	// Second call reuses the file
	_, err = c.DownloadFile(context.Background(), task, dir)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	_, err = c.DownloadFile(context.Background(), model.Task{TaskID: "t1"}, dir)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestClient_DownloadFileNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"No file path associated with task_id t9."}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := newTestClient(server.URL).DownloadFile(context.Background(), model.Task{TaskID: "t9", FileName: "x.mp3"}, dir)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "No file path associated with task_id t9.", apiErr.Detail)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "no partial file left behind")
}

func TestClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submit", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var sub model.Submission
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, "alice", sub.Username)
		assert.Len(t, sub.Answers, 2)

		_, _ = w.Write([]byte(`{"username":"alice","score":50.0,"correct_count":1,"total_attempted":2,"message":"ok"}`))
	}))
	defer server.Close()

	res, err := newTestClient(server.URL).Submit(context.Background(), model.Submission{
		Username:  " alice ",
		AgentCode: "https://example.com/code",
		Answers: []model.AnswerEntry{
			{TaskID: "t1", SubmittedAnswer: "right"},
			{TaskID: "t2", SubmittedAnswer: "3"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Score)
	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, "ok", res.Message)
}

func TestClient_SubmitValidation(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	_, err := c.Submit(context.Background(), model.Submission{Answers: []model.AnswerEntry{{TaskID: "a"}}})
	assert.ErrorContains(t, err, "username")

	_, err = c.Submit(context.Background(), model.Submission{Username: "bob"})
	assert.ErrorContains(t, err, "no answers")
}

func TestClient_SubmitServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"field required"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Submit(context.Background(), model.Submission{
		Username: "bob",
		Answers:  []model.AnswerEntry{{TaskID: "a", SubmittedAnswer: "b"}},
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail, "field required")
}
