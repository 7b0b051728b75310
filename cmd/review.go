package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/rev/internal/git"
	"github.com/joescharf/rev/internal/models"
	"github.com/joescharf/rev/internal/output"
	"github.com/joescharf/rev/internal/review"
	"github.com/joescharf/rev/internal/reviewer"
)

var (
	reviewDocs     []string
	reviewFocus    []string
	reviewContinue string
	reviewTestCmd  string
	reviewBase     string
	reviewBackend  string
	reviewRepo     string
)

var reviewCmd = &cobra.Command{
	Use:   "review [summary]",
	Short: "Run a review round over the current changes",
	Long: `Run one AI review round over the local git changes.

A fresh run creates a new session; --continue appends another round to
an existing one (use "latest" for the most recent session). The diff is
taken against git.base_ref when configured, otherwise HEAD.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	reviewCmd.Flags().StringSliceVar(&reviewDocs, "docs", nil, "Reference documents (design docs, specs) for the reviewer")
	reviewCmd.Flags().StringSliceVar(&reviewFocus, "focus", nil, "Areas to focus the review on")
	reviewCmd.Flags().StringVarP(&reviewContinue, "continue", "c", "", "Continue an existing session (id or \"latest\")")
	reviewCmd.Flags().StringVar(&reviewTestCmd, "test-cmd", "", "Test command the reviewer should run")
	reviewCmd.Flags().StringVar(&reviewBase, "base", "", "Base ref to diff against (overrides git.base_ref)")
	reviewCmd.Flags().StringVar(&reviewBackend, "backend", "", "Reviewer backend: cli or api (overrides reviewer.backend)")
	reviewCmd.Flags().StringVar(&reviewRepo, "repo", ".", "Repository to review")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(ctx context.Context, summary string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	req := models.ReviewRequest{
		Summary:     summary,
		Docs:        reviewDocs,
		Focus:       reviewFocus,
		TestCommand: reviewTestCmd,
	}

	if reviewContinue != "" {
		id, err := resolveSessionID(ctx, reviewContinue)
		if err != nil {
			return err
		}
		req.ContinueSession = id

		// A continued round inherits the original request when no new
		// summary is given.
		if req.Summary == "" {
			session, err := s.GetSession(ctx, id)
			if err != nil {
				return err
			}
			req.Summary = session.Request.Summary
			if len(req.Docs) == 0 {
				req.Docs = session.Request.Docs
			}
			if len(req.Focus) == 0 {
				req.Focus = session.Request.Focus
			}
			if req.TestCommand == "" {
				req.TestCommand = session.Request.TestCommand
			}
		}
	}

	if req.Summary == "" {
		return fmt.Errorf("a change summary is required: rev review \"what changed and why\"")
	}

	baseRef := reviewBase
	if baseRef == "" {
		baseRef = viper.GetString("git.base_ref")
	}

	gc := git.NewClient()
	cfg := review.Config{BaseRef: baseRef, RepoPath: reviewRepo}

	root, err := gc.RepoRoot(reviewRepo)
	if err != nil {
		return fmt.Errorf("not a git repository: %s", reviewRepo)
	}
	ui.VerboseLog("Repository: %s", root)
	if branch, err := gc.CurrentBranch(reviewRepo); err == nil {
		ui.VerboseLog("Branch: %s", branch)
	}
	if dirty, err := gc.IsDirty(reviewRepo); err == nil && dirty && baseRef != "" {
		ui.Warning("Working tree is dirty; uncommitted changes are not part of the %s diff", baseRef)
	}
	if files, err := gc.ChangedFiles(reviewRepo, baseRef); err == nil {
		ui.VerboseLog("Changed files: %d", len(files))
	}

	if dryRun {
		diff, err := gc.Diff(reviewRepo, baseRef)
		if err != nil {
			return fmt.Errorf("collect diff: %w", err)
		}
		ui.DryRunMsg("Would send this prompt to the %s reviewer:", backendName())
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, review.BuildReviewPrompt(req, diff, nil))
		return nil
	}

	rev, err := buildReviewer()
	if err != nil {
		return err
	}

	runner := review.NewRunner(s, gc, rev, cfg)

	ui.Info("Running review round (backend: %s)...", backendName())
	out, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	if out.Resumed {
		ui.Info("Continued session %s (round %d)", output.Cyan(out.SessionID), out.Result.Round)
	} else {
		ui.Info("Created session %s", output.Cyan(out.SessionID))
	}

	renderResult(out.Result)
	return nil
}

func backendName() string {
	if reviewBackend != "" {
		return reviewBackend
	}
	return viper.GetString("reviewer.backend")
}

// buildReviewer constructs the configured reviewer backend.
func buildReviewer() (reviewer.Reviewer, error) {
	switch backendName() {
	case "cli":
		return &reviewer.CLIReviewer{
			Command:      viper.GetString("reviewer.command"),
			Model:        viper.GetString("reviewer.model"),
			AllowedTools: strings.Fields(viper.GetString("reviewer.allowed_tools")),
			Timeout:      viper.GetDuration("reviewer.timeout"),
			WorkDir:      reviewRepo,
		}, nil
	case "api":
		return reviewer.NewAPIReviewer(
			viper.GetString("anthropic.api_key"),
			viper.GetString("anthropic.model"),
		), nil
	default:
		return nil, fmt.Errorf("unknown reviewer backend %q (must be cli or api)", backendName())
	}
}

// resolveSessionID expands the "latest" alias to a concrete session id.
func resolveSessionID(ctx context.Context, id string) (string, error) {
	if id != "latest" {
		return id, nil
	}
	s, err := getStore()
	if err != nil {
		return "", err
	}
	latest, err := s.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve latest session: %w", err)
	}
	return latest, nil
}

// renderResult prints one round's findings.
func renderResult(r *models.ReviewResult) {
	fmt.Fprintln(ui.Out)

	switch r.Status {
	case models.ReviewStatusApproved:
		ui.Success("Round %d: %s", r.Round, output.AssessmentColor(string(r.OverallAssessment)))
	default:
		ui.Warning("Round %d: %s", r.Round, output.AssessmentColor(string(r.OverallAssessment)))
	}

	if !r.DesignCompliance.FollowsArchitecture {
		ui.Warning("Does not follow the intended architecture")
	}
	for _, v := range r.DesignCompliance.MajorViolations {
		fmt.Fprintf(ui.Out, "  %s %s\n", output.SeverityColor(string(v.Severity)), v.Description)
	}

	if len(r.MissingRequirements) > 0 {
		fmt.Fprintln(ui.Out)
		ui.Warning("Missing requirements:")
		for _, m := range r.MissingRequirements {
			fmt.Fprintf(ui.Out, "  - %s\n", m)
		}
	}

	if len(r.Comments) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"SEVERITY", "LOCATION", "COMMENT"})
		for _, c := range r.Comments {
			loc := ""
			if c.Type == models.CommentTypeSpecific && c.File != "" {
				loc = fmt.Sprintf("%s:%d", c.File, c.Line)
			}
			table.Append([]string{output.SeverityColor(string(c.Severity)), loc, oneLine(c.Comment, 100)})
		}
		_ = table.Render()
	}

	if r.TestResults.Passed != nil {
		fmt.Fprintln(ui.Out)
		if *r.TestResults.Passed {
			ui.Success("Tests: %s", r.TestResults.Summary)
		} else {
			ui.Error("Tests: %s", r.TestResults.Summary)
			for _, ft := range r.TestResults.FailedTests {
				fmt.Fprintf(ui.Out, "  - %s\n", ft)
			}
		}
	}

	fmt.Fprintln(ui.Out)
	ui.Info("Findings: %d critical, %d major, %d minor, %d suggestions (%d violations)",
		r.Summary.Critical, r.Summary.Major, r.Summary.Minor, r.Summary.Suggestions, r.Summary.Violations)
}

// oneLine flattens and truncates a comment for table display.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
