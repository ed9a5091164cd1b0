package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/pipeline"
)

// Answerer answers a single task. pipeline.Pipeline implements it.
type Answerer interface {
	AnswerTask(ctx context.Context, task model.Task) model.TaskResult
}

// PrepareFunc runs before a task is answered, e.g. to download its attachment
type PrepareFunc func(ctx context.Context, task model.Task) error

// ProgressFunc is called as each task finishes
type ProgressFunc func(done, total int, result model.TaskResult)

// TaskJob answers one task
type TaskJob struct {
	Index    int
	Task     model.Task
	Answerer Answerer
	Prepare  PrepareFunc
}

// Execute prepares and answers the task. A prepare failure is recorded on
// the result but the task is still answered.
func (j *TaskJob) Execute(ctx context.Context) Result {
	var prepErr error
	if j.Prepare != nil {
		prepErr = j.Prepare(ctx, j.Task)
	}

	res := j.Answerer.AnswerTask(ctx, j.Task)
	if res.TaskID == "" {
		res.TaskID = j.Task.TaskID
	}
	if prepErr != nil && res.Error == "" {
		res.Error = fmt.Sprintf("prepare: %v", prepErr)
	}

	return &TaskOutcome{Index: j.Index, Result: res, PrepareErr: prepErr}
}

// TaskOutcome is the result of a TaskJob
type TaskOutcome struct {
	Index      int
	Result     model.TaskResult
	PrepareErr error
}

// GetError returns the prepare error, if any
func (o *TaskOutcome) GetError() error {
	return o.PrepareErr
}

// BatchProcessor answers many tasks concurrently
type BatchProcessor struct {
	answerer    Answerer
	concurrency int
	prepare     PrepareFunc
	onResult    ProgressFunc
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(answerer Answerer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		answerer:    answerer,
		concurrency: concurrency,
	}
}

// WithPrepare sets a hook that runs before each task
func (b *BatchProcessor) WithPrepare(fn PrepareFunc) *BatchProcessor {
	b.prepare = fn
	return b
}

// WithProgress sets a callback invoked after each task
func (b *BatchProcessor) WithProgress(fn ProgressFunc) *BatchProcessor {
	b.onResult = fn
	return b
}

// ProcessTasks answers tasks and returns results in input order
func (b *BatchProcessor) ProcessTasks(ctx context.Context, tasks []model.Task) []model.TaskResult {
	if len(tasks) == 0 {
		return []model.TaskResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	progress := &progressJob{fn: b.onResult, total: len(tasks)}
	for i, task := range tasks {
		pool.Submit(progress.wrap(&TaskJob{
			Index:    i,
			Task:     task,
			Answerer: b.answerer,
			Prepare:  b.prepare,
		}))
	}

	byIndex := make([]*TaskOutcome, len(tasks))
	for _, r := range pool.Wait() {
		o := r.(*TaskOutcome)
		byIndex[o.Index] = o
	}

	// Tasks never started (cancelled run) are still reported
	results := make([]model.TaskResult, len(tasks))
	for i, o := range byIndex {
		if o != nil {
			results[i] = o.Result
			continue
		}
		reason := "not run"
		if err := ctx.Err(); err != nil {
			reason = "not run: " + err.Error()
		}
		results[i] = model.TaskResult{
			TaskID:   tasks[i].TaskID,
			Question: tasks[i].Question,
			Expected: tasks[i].FinalAnswer,
			Answer:   pipeline.ErrorPrefix + reason,
			Error:    reason,
		}
	}
	return results
}

// ProcessFile loads tasks from a file and answers them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]model.TaskResult, error) {
	tasks, err := LoadTasksFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	return b.ProcessTasks(ctx, tasks), nil
}

// progressJob counts finished jobs and reports them to fn
type progressJob struct {
	fn    ProgressFunc
	total int
	mu    sync.Mutex
	count int
}

func (p *progressJob) wrap(job *TaskJob) Job {
	if p.fn == nil {
		return job
	}
	return jobFunc(func(ctx context.Context) Result {
		res := job.Execute(ctx)
		p.mu.Lock()
		p.count++
		p.fn(p.count, p.total, res.(*TaskOutcome).Result)
		p.mu.Unlock()
		return res
	})
}

type jobFunc func(ctx context.Context) Result

func (f jobFunc) Execute(ctx context.Context) Result { return f(ctx) }

// LoadTasksFromFile reads tasks from a JSON array, JSON lines, or plain text
// with one question per line. Plain text questions get ids q001, q002, ...
func LoadTasksFromFile(filePath string) ([]model.Task, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return []model.Task{}, nil
	case trimmed[0] == '[':
		var tasks []model.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("parse JSON tasks: %w", err)
		}
		return dedupTasks(tasks), nil
	case trimmed[0] == '{':
		return readJSONLines(trimmed)
	default:
		return readQuestionLines(trimmed)
	}
}

func readJSONLines(data []byte) ([]model.Task, error) {
	var tasks []model.Task

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var task model.Task
		if err := json.Unmarshal(line, &task); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return dedupTasks(tasks), nil
}

func readQuestionLines(data []byte) ([]model.Task, error) {
	var tasks []model.Task
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			tasks = append(tasks, model.Task{
				TaskID:   fmt.Sprintf("q%03d", len(tasks)+1),
				Question: line,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return tasks, nil
}

// dedupTasks drops repeated task ids and fills in missing ones
func dedupTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	seen := make(map[string]bool)
	for _, task := range tasks {
		if task.TaskID == "" {
			task.TaskID = fmt.Sprintf("q%03d", len(out)+1)
		}
		if seen[task.TaskID] {
			continue
		}
		seen[task.TaskID] = true
		out = append(out, task)
	}
	return out
}
