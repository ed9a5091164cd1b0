package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultPythonTimeout = 30 * time.Second
	pythonMaxChars       = 20000
)

// ExecutePython runs an attached Python script and reports what it printed
type ExecutePython struct {
	Finder      FileFinder
	Interpreter string        // empty uses "python3"
	Timeout     time.Duration // 0 uses 30s
}

func (ExecutePython) Name() string { return "execute_python_file" }

func (ExecutePython) Description() string {
	return "Run an attached Python (.py) file and return its stdout, stderr and exit code. " +
		"Scripts are stopped after 30 seconds."
}

func (ExecutePython) Parameters() map[string]any {
	return objectSchema([]string{"path"}, map[string]string{
		"path": "File name or path of the .py file",
	})
}

// Invoke runs args["path"]
func (p ExecutePython) Invoke(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	path, err := p.Finder.Find(name)
	if err != nil {
		return "", err
	}

	interpreter := p.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPythonTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, interpreter, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("script timed out after %s", timeout)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	exitCode := 0
	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		exitCode = exitErr.ExitCode()
	case runErr != nil:
		return "", fmt.Errorf("run %s: %w", interpreter, runErr)
	}

	var sb strings.Builder
	if stdout.Len() > 0 {
		fmt.Fprintf(&sb, "Output:\n%s\n", stdout.String())
	}
	if stderr.Len() > 0 {
		fmt.Fprintf(&sb, "Errors:\n%s\n", stderr.String())
	}
	if exitCode != 0 {
		fmt.Fprintf(&sb, "Exit code: %d\n", exitCode)
	}
	if sb.Len() == 0 {
		return "Script executed successfully with no output.", nil
	}
	return truncate(sb.String(), pythonMaxChars), nil
}
