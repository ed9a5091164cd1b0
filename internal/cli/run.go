package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/gaia-agent/internal/model"
	"github.com/ppiankov/gaia-agent/internal/pipeline"
	"github.com/ppiankov/gaia-agent/internal/score"
	"github.com/ppiankov/gaia-agent/internal/submit"
	"github.com/ppiankov/gaia-agent/internal/worker"
)

var (
	runInput      string
	runLimit      int
	runTimeout    time.Duration
	runSubmit     bool
	runUsername   string
	runAgentCode  string
	runNoDownload bool
	noFooter      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Answer every benchmark question and write a run report",
	Long: `Run fetches the questions from the scoring API (or reads a local dataset),
downloads attachments, answers every task in parallel, grades the answers
locally when ground truth is available, and writes JSON and Markdown
reports. With --submit the answers are posted to the scoring API.

Per-task failures are recorded in the report and never abort the run.

Example:
  gaia-agent run
  gaia-agent run --input validation/metadata.jsonl --workers 4
  gaia-agent run --submit --username alice --agent-code https://huggingface.co/spaces/alice/agent/tree/main`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runInput, "input", "", "local task file (JSON array, JSON lines, or one question per line)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "answer at most N tasks (0 = all)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", time.Hour, "total timeout for the run")
	runCmd.Flags().Int("workers", model.DefaultConfig().Concurrency.Workers, "number of concurrent workers")
	runCmd.Flags().String("output-dir", "", "directory for run reports")
	runCmd.Flags().BoolVar(&runSubmit, "submit", false, "submit answers to the scoring API")
	runCmd.Flags().StringVar(&runUsername, "username", "", "username for submission (default: api.username)")
	runCmd.Flags().StringVar(&runAgentCode, "agent-code", "", "link to the agent code for submission (default: api.agent_code)")
	runCmd.Flags().BoolVar(&runNoDownload, "no-download", false, "do not download task attachments")
	runCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	addAgentFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := agentConfig(cmd)
	if err != nil {
		return err
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if runUsername != "" {
		cfg.API.Username = runUsername
	}
	if runAgentCode != "" {
		cfg.API.AgentCode = runAgentCode
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	a, err := newAgent(cfg, logger)
	if err != nil {
		return err
	}
	client := submit.NewClient(cfg.API, cfg.HTTP)

	tasks, source, err := loadTasks(ctx, client, cfg)
	if err != nil {
		return err
	}
	if runLimit > 0 && runLimit < len(tasks) {
		tasks = tasks[:runLimit]
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  gaia-agent run\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Source:       %s\n", source)
	fmt.Fprintf(os.Stderr, "  Tasks:        %d\n", len(tasks))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  LLM:          %s\n", llmLabel(a))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(a.pipeline, cfg.Concurrency.Workers).
		WithProgress(func(done, total int, res model.TaskResult) {
			status := "✓"
			if res.Error != "" {
				status = "✗"
			}
			fmt.Fprintf(os.Stderr, "  [%d/%d] %s %s  %s\n", done, total, status, shortID(res.TaskID), res.Route)
		})
	if runInput == "" && !runNoDownload {
		processor.WithPrepare(func(ctx context.Context, task model.Task) error {
			if task.FileName == "" {
				return nil
			}
			_, err := client.DownloadFile(ctx, task, cfg.API.DownloadDir)
			if errors.Is(err, submit.ErrNoFile) {
				return nil
			}
			return err
		})
	}

	report := &model.RunReport{
		RunID:     pipeline.NewRunID(),
		Source:    source,
		StartedAt: time.Now(),
	}
	report.Results = processor.ProcessTasks(ctx, tasks)
	report.FinishedAt = time.Now()
	report.Grade = score.NewScorer().Grade(report.Results)

	if answers := report.Answers(); runSubmit && len(answers) == 0 {
		logger.Warn("nothing to submit", zap.Int("results", len(report.Results)))
		fmt.Fprintf(os.Stderr, "Submission skipped: every answer is a diagnostic\n")
	} else if runSubmit {
		res, err := client.Submit(ctx, model.Submission{
			Username:  cfg.API.Username,
			AgentCode: cfg.API.AgentCode,
			Answers:   answers,
		})
		if err != nil {
			// Keep the report even when submission fails
			logger.Error("submission failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "Submission failed: %v\n", err)
		} else {
			report.Submit = res
		}
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	jsonPath := filepath.Join(cfg.Output.Dir, report.RunID+".json")
	mdPath := filepath.Join(cfg.Output.Dir, report.RunID+".md")
	if err := renderer.RenderJSON(report, jsonPath); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	if err := renderer.RenderMarkdown(report, mdPath); err != nil {
		return fmt.Errorf("render Markdown: %w", err)
	}

	renderer.RenderSummary(os.Stderr, report)
	fmt.Fprintf(os.Stderr, "\nReports:\n  %s\n  %s\n", jsonPath, mdPath)
	return nil
}

// loadTasks reads the local input file or fetches questions from the API
func loadTasks(ctx context.Context, client *submit.Client, cfg *model.Config) ([]model.Task, string, error) {
	if runInput != "" {
		tasks, err := worker.LoadTasksFromFile(runInput)
		if err != nil {
			return nil, "", err
		}
		return tasks, runInput, nil
	}

	tasks, err := client.Questions(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("fetch questions: %w", err)
	}
	return tasks, cfg.API.BaseURL, nil
}

func llmLabel(a *agent) string {
	if a.llm == nil {
		return "disabled"
	}
	return a.llm.Name() + "/" + a.cfg.LLM.Model
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
