package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/rev/internal/models"
)

// FileStore implements Store over a directory tree:
//
//	<root>/latest.json                          { "review_id": ... }
//	<root>/sessions/<id>/request.json
//	<root>/sessions/<id>/session.json
//	<root>/sessions/<id>/changes.diff
//	<root>/sessions/<id>/round-<n>/review.json
//	<root>/sessions/<id>/final-notes.txt
//
// The layout is an external interface: other tools read these files directly.
//
// A store-level mutex serializes ID minting and round numbering within one
// process. Two processes writing the same root can still race the
// count-then-write step and mint colliding identifiers; that limitation is
// accepted and documented rather than papered over with lock files.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore opens (or creates) a storage root.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "sessions"), 0755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the storage root path.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) sessionDir(id string) string {
	return filepath.Join(s.root, "sessions", id)
}

// newULID generates a new ULID string for round identifiers.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// CreateSession mints a date-based identifier, persists the request and an
// empty in_progress session, and points latest.json at it.
func (s *FileStore) CreateSession(ctx context.Context, req models.ReviewRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	id, err := s.nextID(now)
	if err != nil {
		return "", err
	}

	dir := s.sessionDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "request.json"), req); err != nil {
		return "", fmt.Errorf("write request: %w", err)
	}

	session := &models.ReviewSession{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    models.SessionStatusInProgress,
		Request:   req,
		Rounds:    []models.ReviewResult{},
	}
	if err := writeJSON(filepath.Join(dir, "session.json"), session); err != nil {
		return "", fmt.Errorf("write session: %w", err)
	}

	if err := s.writeLatest(id); err != nil {
		return "", err
	}
	return id, nil
}

// nextID computes the next YYYY-MM-DD-NNN identifier for the given day by
// counting the existing same-day sessions.
func (s *FileStore) nextID(now time.Time) (string, error) {
	day := now.Format("2006-01-02")

	entries, err := os.ReadDir(filepath.Join(s.root, "sessions"))
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), day+"-") {
			count++
		}
	}
	return fmt.Sprintf("%s-%03d", day, count+1), nil
}

// AppendRound loads the session, assigns the result its store-owned identity
// (ULID + next round number), persists the round, and folds the result's
// status into the session.
func (s *FileStore) AppendRound(ctx context.Context, id string, result *models.ReviewResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.readSession(id)
	if err != nil {
		return err
	}

	result.ID = newULID()
	result.Round = len(session.Rounds) + 1
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}

	roundDir := filepath.Join(s.sessionDir(id), fmt.Sprintf("round-%d", result.Round))
	if err := os.MkdirAll(roundDir, 0755); err != nil {
		return fmt.Errorf("create round dir: %w", err)
	}
	if err := writeJSON(filepath.Join(roundDir, "review.json"), result); err != nil {
		return fmt.Errorf("write round: %w", err)
	}

	session.Rounds = append(session.Rounds, *result)
	session.Status = models.SessionStatus(result.Status)
	session.UpdatedAt = time.Now().UTC()
	if err := writeJSON(filepath.Join(s.sessionDir(id), "session.json"), session); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	return s.writeLatest(id)
}

// SaveDiff archives the raw diff text for a session. Purely archival; the
// core never reads it back.
func (s *FileStore) SaveDiff(ctx context.Context, id string, diff string) error {
	if _, err := s.readSession(id); err != nil {
		return err
	}
	path := filepath.Join(s.sessionDir(id), "changes.diff")
	if err := os.WriteFile(path, []byte(diff), 0644); err != nil {
		return fmt.Errorf("write diff: %w", err)
	}
	return nil
}

// GetSession loads a session by identifier.
func (s *FileStore) GetSession(ctx context.Context, id string) (*models.ReviewSession, error) {
	return s.readSession(id)
}

// History returns up to limit sessions ordered by creation time descending.
func (s *FileStore) History(ctx context.Context, limit int) ([]*models.ReviewSession, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "sessions"))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []*models.ReviewSession
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		session, err := s.readSession(e.Name())
		if err != nil {
			// Skip partially written or foreign directories.
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// Latest returns the session identifier recorded in latest.json.
func (s *FileStore) Latest(ctx context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, "latest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("read latest pointer: %w", err)
	}
	var ptr latestPointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		return "", fmt.Errorf("decode latest pointer: %w", err)
	}
	if ptr.ReviewID == "" {
		return "", ErrSessionNotFound
	}
	return ptr.ReviewID, nil
}

// Complete overwrites the session status with a terminal value and archives
// optional notes. This is the only path that moves status outside the
// round-append flow.
func (s *FileStore) Complete(ctx context.Context, id string, status models.SessionStatus, notes string) error {
	if !models.IsTerminal(status) {
		return fmt.Errorf("invalid terminal status: %s (must be approved, abandoned, or merged)", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.readSession(id)
	if err != nil {
		return err
	}

	session.Status = status
	session.UpdatedAt = time.Now().UTC()
	if err := writeJSON(filepath.Join(s.sessionDir(id), "session.json"), session); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	if notes != "" {
		path := filepath.Join(s.sessionDir(id), "final-notes.txt")
		if err := os.WriteFile(path, []byte(notes), 0644); err != nil {
			return fmt.Errorf("write final notes: %w", err)
		}
	}
	return nil
}

type latestPointer struct {
	ReviewID string `json:"review_id"`
}

func (s *FileStore) writeLatest(id string) error {
	if err := writeJSON(filepath.Join(s.root, "latest.json"), latestPointer{ReviewID: id}); err != nil {
		return fmt.Errorf("write latest pointer: %w", err)
	}
	return nil
}

func (s *FileStore) readSession(id string) (*models.ReviewSession, error) {
	data, err := os.ReadFile(filepath.Join(s.sessionDir(id), "session.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var session models.ReviewSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

// writeJSON writes v as pretty JSON with a trailing newline.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
