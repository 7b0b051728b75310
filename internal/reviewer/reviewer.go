package reviewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Reviewer produces raw review output for a prompt pair. Implementations are
// free to emit anything; downstream extraction tolerates noisy output.
type Reviewer interface {
	Review(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CLIReviewer runs a local claude-style CLI in non-interactive print mode and
// captures stdout as the raw review.
type CLIReviewer struct {
	Command      string        // executable name, e.g. "claude"
	Model        string        // optional model override
	AllowedTools []string      // tools the reviewer may use (Read, Bash, ...)
	Timeout      time.Duration // zero means no timeout
	WorkDir      string        // repository to review from
}

// Available reports whether the configured command is on PATH.
func (c *CLIReviewer) Available() bool {
	_, err := exec.LookPath(c.Command)
	return err == nil
}

func (c *CLIReviewer) Review(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, err := exec.LookPath(c.Command); err != nil {
		return "", fmt.Errorf("reviewer command %q not found: %w", c.Command, err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"-p", "--output-format", "text"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	for _, tool := range c.AllowedTools {
		args = append(args, "--allowedTools", tool)
	}
	args = append(args, "--append-system-prompt", systemPrompt, userPrompt)

	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Dir = c.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("reviewer timed out after %s", c.Timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("reviewer command failed: %s", msg)
	}

	return stdout.String(), nil
}
