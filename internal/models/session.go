package models

import "time"

// SessionStatus is the lifecycle state of a review session. It is a superset
// of ReviewStatus: the terminal values are only reachable via an explicit
// completion.
type SessionStatus string

const (
	SessionStatusInProgress   SessionStatus = "in_progress"
	SessionStatusApproved     SessionStatus = "approved"
	SessionStatusNeedsChanges SessionStatus = "needs_changes"
	SessionStatusAbandoned    SessionStatus = "abandoned"
	SessionStatusMerged       SessionStatus = "merged"
)

// TerminalStatuses are the completion states a session can be moved to.
var TerminalStatuses = []SessionStatus{
	SessionStatusApproved,
	SessionStatusAbandoned,
	SessionStatusMerged,
}

// IsTerminal reports whether s is a valid completion status.
func IsTerminal(s SessionStatus) bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// ReviewRequest describes what to review. Immutable once submitted.
type ReviewRequest struct {
	Summary         string   `json:"summary"`
	Docs            []string `json:"docs,omitempty"`
	Focus           []string `json:"focus,omitempty"`
	ContinueSession string   `json:"continue_session,omitempty"`
	TestCommand     string   `json:"test_command,omitempty"`
}

// ReviewSession is the append-only thread of rounds for one logical review.
// Invariant: Rounds[i].Round == i+1.
type ReviewSession struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Status    SessionStatus  `json:"status"`
	Request   ReviewRequest  `json:"request"`
	Rounds    []ReviewResult `json:"rounds"`
}

// LatestRound returns the most recent round, or nil for a fresh session.
func (s *ReviewSession) LatestRound() *ReviewResult {
	if len(s.Rounds) == 0 {
		return nil
	}
	return &s.Rounds[len(s.Rounds)-1]
}
