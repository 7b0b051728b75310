package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Client defines the git facts the review pipeline consumes. All methods take
// a path parameter since rev can be pointed at any repository.
type Client interface {
	RepoRoot(path string) (string, error)
	CurrentBranch(path string) (string, error)
	IsDirty(path string) (bool, error)
	// Diff returns the change set under review: the committed delta against
	// baseRef when one is given, otherwise all uncommitted changes.
	Diff(path, baseRef string) (string, error)
	// ChangedFiles lists the files touched by the same change set.
	ChangedFiles(path, baseRef string) ([]string, error)
}

// RealClient implements Client using real git commands.
type RealClient struct{}

// NewClient returns a new RealClient.
func NewClient() *RealClient {
	return &RealClient{}
}

func gitCmd(path string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", path}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *RealClient) RepoRoot(path string) (string, error) {
	return gitCmd(path, "rev-parse", "--show-toplevel")
}

func (c *RealClient) CurrentBranch(path string) (string, error) {
	return gitCmd(path, "rev-parse", "--abbrev-ref", "HEAD")
}

func (c *RealClient) IsDirty(path string) (bool, error) {
	out, err := gitCmd(path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (c *RealClient) Diff(path, baseRef string) (string, error) {
	if baseRef != "" {
		return gitCmd(path, "diff", baseRef+"...HEAD")
	}
	return gitCmd(path, "diff", "HEAD")
}

func (c *RealClient) ChangedFiles(path, baseRef string) ([]string, error) {
	var out string
	var err error
	if baseRef != "" {
		out, err = gitCmd(path, "diff", "--name-only", baseRef+"...HEAD")
	} else {
		out, err = gitCmd(path, "diff", "--name-only", "HEAD")
	}
	if err != nil {
		return nil, err
	}
	return SplitNonEmptyLines(out), nil
}

// SplitNonEmptyLines splits command output into lines, dropping empties.
func SplitNonEmptyLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
