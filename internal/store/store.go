package store

import (
	"context"
	"errors"

	"github.com/joescharf/rev/internal/models"
)

// ErrSessionNotFound is returned when an operation references a session
// identifier with no record on disk.
var ErrSessionNotFound = errors.New("review session not found")

// Store defines the persistence interface for review sessions. The store is
// the single source of truth: every operation re-reads durable state, so
// independent processes sharing a storage root observe consistent history.
type Store interface {
	// CreateSession persists the request and an empty session, returning the
	// newly minted session identifier (YYYY-MM-DD-NNN).
	CreateSession(ctx context.Context, req models.ReviewRequest) (string, error)

	// AppendRound assigns the result an ID and the next round number, appends
	// it to the session, and moves the session status to the result's status.
	AppendRound(ctx context.Context, id string, result *models.ReviewResult) error

	// SaveDiff archives the change set under review alongside the session.
	SaveDiff(ctx context.Context, id string, diff string) error

	// GetSession loads a full session by identifier.
	GetSession(ctx context.Context, id string) (*models.ReviewSession, error)

	// History returns up to limit sessions, most recently created first.
	// limit <= 0 means no limit.
	History(ctx context.Context, limit int) ([]*models.ReviewSession, error)

	// Latest returns the identifier of the most recently written session.
	Latest(ctx context.Context) (string, error)

	// Complete moves a session to a terminal status, overriding whatever the
	// last round set, and archives optional notes.
	Complete(ctx context.Context, id string, status models.SessionStatus, notes string) error
}
