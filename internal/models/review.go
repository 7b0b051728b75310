package models

import "time"

// ReviewStatus is the coarse lifecycle state of a single review round.
type ReviewStatus string

const (
	ReviewStatusInProgress   ReviewStatus = "in_progress"
	ReviewStatusApproved     ReviewStatus = "approved"
	ReviewStatusNeedsChanges ReviewStatus = "needs_changes"
)

// Assessment is the reviewer's overall verdict for a round.
type Assessment string

const (
	AssessmentNeedsChanges        Assessment = "needs_changes"
	AssessmentLGTMWithSuggestions Assessment = "lgtm_with_suggestions"
	AssessmentLGTM                Assessment = "lgtm"
)

// StatusForAssessment derives the coarse round status from an assessment.
// Only the most favorable verdict maps to approved.
func StatusForAssessment(a Assessment) ReviewStatus {
	if a == AssessmentLGTM {
		return ReviewStatusApproved
	}
	return ReviewStatusNeedsChanges
}

// Severity grades a violation or comment.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityMajor      Severity = "major"
	SeverityMinor      Severity = "minor"
	SeveritySuggestion Severity = "suggestion"
)

// CommentType distinguishes line-level from general feedback.
type CommentType string

const (
	CommentTypeSpecific CommentType = "specific"
	CommentTypeGeneral  CommentType = "general"
)

// Violation is a reviewer-flagged deviation from the intended architecture,
// distinct from a line-level comment.
type Violation struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// DesignCompliance records whether the change follows the intended
// architecture and any violations found.
type DesignCompliance struct {
	FollowsArchitecture bool        `json:"follows_architecture"`
	MajorViolations     []Violation `json:"major_violations"`
}

// Comment is a single piece of review feedback.
type Comment struct {
	Type       CommentType `json:"type"`
	Severity   Severity    `json:"severity"`
	Category   string      `json:"category,omitempty"`
	File       string      `json:"file,omitempty"`
	Line       int         `json:"line,omitempty"`
	Comment    string      `json:"comment"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Summary holds derived counts over a round's findings. It is always
// recomputed from the comments and violations, never trusted from the
// reviewer.
type Summary struct {
	Violations  int `json:"violations"`
	Critical    int `json:"critical"`
	Major       int `json:"major"`
	Minor       int `json:"minor"`
	Suggestions int `json:"suggestions"`
}

// TestResults reports the test outcome for a round. Passed is tri-state:
// nil means the reviewer did not report a test run.
type TestResults struct {
	Passed      *bool    `json:"passed,omitempty"`
	Summary     string   `json:"summary"`
	FailedTests []string `json:"failed_tests,omitempty"`
	Coverage    float64  `json:"coverage,omitempty"`
}

// ReviewResult is one round of review. The ID is assigned by the store on
// append, never by the reviewer. Immutable once appended to a session.
type ReviewResult struct {
	ID                  string           `json:"id"`
	Timestamp           time.Time        `json:"timestamp"`
	Status              ReviewStatus     `json:"status"`
	Round               int              `json:"round"`
	DesignCompliance    DesignCompliance `json:"design_compliance"`
	Comments            []Comment        `json:"comments"`
	MissingRequirements []string         `json:"missing_requirements"`
	Summary             Summary          `json:"summary"`
	TestResults         TestResults      `json:"test_results"`
	OverallAssessment   Assessment       `json:"overall_assessment"`
}
