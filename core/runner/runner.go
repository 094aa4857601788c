package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"FreeTunes/logger"
)

// ProcessRunner is the narrow seam between the pipeline and the external
// agents (search, download, transcode): args in, captured stdout out.
// Tests substitute a fake; production uses ExecRunner.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns its trimmed stdout. A nonzero exit
// surfaces as an error carrying the captured stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running external process",
		logger.String("command", name),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w (stderr: %s)", name, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
