package review

import (
	"context"
	"fmt"

	"github.com/joescharf/rev/internal/extract"
	"github.com/joescharf/rev/internal/git"
	"github.com/joescharf/rev/internal/models"
	"github.com/joescharf/rev/internal/reviewer"
	"github.com/joescharf/rev/internal/store"
)

// Config holds runner settings resolved from flags and the config file.
type Config struct {
	// BaseRef selects the change set: diff against this ref when set,
	// uncommitted changes otherwise.
	BaseRef string
	// RepoPath is the repository under review.
	RepoPath string
}

// Runner drives one review round end to end: resolve the session, capture the
// diff, invoke the reviewer, and persist the normalized result.
type Runner struct {
	store    store.Store
	git      git.Client
	reviewer reviewer.Reviewer
	cfg      Config
}

// NewRunner wires a runner from its collaborators.
func NewRunner(s store.Store, g git.Client, r reviewer.Reviewer, cfg Config) *Runner {
	return &Runner{store: s, git: g, reviewer: r, cfg: cfg}
}

// RunResult reports the outcome of one round.
type RunResult struct {
	SessionID string
	Resumed   bool
	Result    *models.ReviewResult
}

// Run executes a single review round. Reviewer transport failures are fatal;
// malformed reviewer output is not — it degrades to a diagnostic round so the
// session always advances.
func (r *Runner) Run(ctx context.Context, req models.ReviewRequest) (*RunResult, error) {
	sessionID, prior, resumed, err := r.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	diff, err := r.git.Diff(r.cfg.RepoPath, r.cfg.BaseRef)
	if err != nil {
		return nil, fmt.Errorf("collect diff: %w", err)
	}
	if diff == "" {
		return nil, fmt.Errorf("nothing to review: working tree matches %s", r.describeBase())
	}
	if err := r.store.SaveDiff(ctx, sessionID, diff); err != nil {
		return nil, fmt.Errorf("archive diff: %w", err)
	}

	raw, err := r.reviewer.Review(ctx, SystemPrompt(), BuildReviewPrompt(req, diff, prior))
	if err != nil {
		return nil, fmt.Errorf("invoke reviewer: %w", err)
	}

	var result *models.ReviewResult
	if res := extract.Extract(raw); res.OK() {
		result = Normalize(res.Payload)
	} else {
		result = ParseFailure(res.Reason, raw)
	}

	if err := r.store.AppendRound(ctx, sessionID, result); err != nil {
		return nil, fmt.Errorf("record round: %w", err)
	}

	return &RunResult{SessionID: sessionID, Resumed: resumed, Result: result}, nil
}

// resolveSession continues an existing session or creates a fresh one.
func (r *Runner) resolveSession(ctx context.Context, req models.ReviewRequest) (string, []models.ReviewResult, bool, error) {
	if req.ContinueSession != "" {
		session, err := r.store.GetSession(ctx, req.ContinueSession)
		if err != nil {
			return "", nil, false, fmt.Errorf("continue session %s: %w", req.ContinueSession, err)
		}
		return session.ID, session.Rounds, true, nil
	}

	id, err := r.store.CreateSession(ctx, req)
	if err != nil {
		return "", nil, false, fmt.Errorf("create session: %w", err)
	}
	return id, nil, false, nil
}

func (r *Runner) describeBase() string {
	if r.cfg.BaseRef != "" {
		return r.cfg.BaseRef
	}
	return "HEAD"
}
