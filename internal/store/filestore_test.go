package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/joescharf/rev/internal/models"
)

var idPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}$`)

func setupStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func resultWithAssessment(a models.Assessment) *models.ReviewResult {
	return &models.ReviewResult{
		Status:            models.StatusForAssessment(a),
		OverallAssessment: a,
		DesignCompliance: models.DesignCompliance{
			FollowsArchitecture: true,
			MajorViolations:     []models.Violation{},
		},
		Comments:            []models.Comment{},
		MissingRequirements: []string{},
	}
}

func TestCreateSession_IDFormat(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "add parser"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !idPattern.MatchString(id) {
		t.Errorf("id %q does not match YYYY-MM-DD-NNN", id)
	}
}

func TestCreateSession_SequentialSameDay(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "one"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "two"})
	if err != nil {
		t.Fatal(err)
	}

	if first[len(first)-3:] != "001" {
		t.Errorf("first id = %s, want suffix 001", first)
	}
	if second[len(second)-3:] != "002" {
		t.Errorf("second id = %s, want suffix 002", second)
	}
	if first[:10] != second[:10] {
		t.Errorf("date prefixes differ: %s vs %s", first, second)
	}
}

func TestCreateSession_Layout(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	req := models.ReviewRequest{Summary: "layout check", Focus: []string{"errors"}}
	id, err := s.CreateSession(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(s.Root(), "sessions", id)
	for _, f := range []string{"request.json", "session.json"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "request.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got models.ReviewRequest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if got.Summary != "layout check" {
		t.Errorf("request summary = %q", got.Summary)
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.Status != models.SessionStatusInProgress {
		t.Errorf("new session status = %s", session.Status)
	}
	if len(session.Rounds) != 0 {
		t.Errorf("new session has %d rounds", len(session.Rounds))
	}
}

func TestAppendRound_SequentialNumbering(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "rounds"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		if err := s.AppendRound(ctx, id, resultWithAssessment(models.AssessmentNeedsChanges)); err != nil {
			t.Fatalf("append round %d: %v", i, err)
		}
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(session.Rounds) != 3 {
		t.Fatalf("round count = %d, want 3", len(session.Rounds))
	}
	for i, r := range session.Rounds {
		if r.Round != i+1 {
			t.Errorf("rounds[%d].Round = %d, want %d", i, r.Round, i+1)
		}
		if r.ID == "" {
			t.Errorf("rounds[%d] has no store-assigned ID", i)
		}
		path := filepath.Join(s.Root(), "sessions", id, fmt.Sprintf("round-%d", i+1), "review.json")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("round %d artifact missing: %v", i+1, err)
		}
	}
}

func TestAppendRound_StatusFollowsRounds(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "status flow"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.AppendRound(ctx, id, resultWithAssessment(models.AssessmentLGTM)); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRound(ctx, id, resultWithAssessment(models.AssessmentNeedsChanges)); err != nil {
		t.Fatal(err)
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got := session.Rounds[0].Status; got != models.ReviewStatusApproved {
		t.Errorf("round 1 status = %s, want approved", got)
	}
	if got := session.Rounds[1].Status; got != models.ReviewStatusNeedsChanges {
		t.Errorf("round 2 status = %s, want needs_changes", got)
	}
	if session.Status != models.SessionStatusNeedsChanges {
		t.Errorf("session status = %s, want needs_changes", session.Status)
	}
}

func TestAppendRound_SessionNotFound(t *testing.T) {
	s := setupStore(t)
	err := s.AppendRound(context.Background(), "2020-01-01-001", resultWithAssessment(models.AssessmentLGTM))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.GetSession(context.Background(), "2020-01-01-001")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveDiff(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "diff"})
	if err != nil {
		t.Fatal(err)
	}

	diff := "diff --git a/main.go b/main.go\n+added line\n"
	if err := s.SaveDiff(ctx, id, diff); err != nil {
		t.Fatalf("save diff: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), "sessions", id, "changes.diff"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != diff {
		t.Errorf("diff content = %q", data)
	}

	if err := s.SaveDiff(ctx, "2020-01-01-001", diff); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestLatest_TracksWrites(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.Latest(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("empty store Latest err = %v, want ErrSessionNotFound", err)
	}

	first, _ := s.CreateSession(ctx, models.ReviewRequest{Summary: "a"})
	second, _ := s.CreateSession(ctx, models.ReviewRequest{Summary: "b"})

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest != second {
		t.Errorf("latest = %s, want %s", latest, second)
	}

	// Appending to an older session moves the pointer back to it.
	if err := s.AppendRound(ctx, first, resultWithAssessment(models.AssessmentLGTM)); err != nil {
		t.Fatal(err)
	}
	latest, err = s.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest != first {
		t.Errorf("latest = %s, want %s", latest, first)
	}
}

func TestHistory_OrderAndLimit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var ids []string
	for _, summary := range []string{"one", "two", "three"} {
		id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: summary})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	all, err := s.History(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("history length = %d, want 3", len(all))
	}
	for i := 0; i < len(all)-1; i++ {
		if all[i].CreatedAt.Before(all[i+1].CreatedAt) {
			t.Errorf("history not in descending creation order at %d", i)
		}
	}

	limited, err := s.History(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited history length = %d, want 2", len(limited))
	}
	_ = ids
}

func TestComplete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: "complete"})
	if err != nil {
		t.Fatal(err)
	}
	// Last round says needs_changes; completion overrides it.
	if err := s.AppendRound(ctx, id, resultWithAssessment(models.AssessmentNeedsChanges)); err != nil {
		t.Fatal(err)
	}

	if err := s.Complete(ctx, id, models.SessionStatusApproved, "looks good"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.Status != models.SessionStatusApproved {
		t.Errorf("status = %s, want approved", session.Status)
	}

	notes, err := os.ReadFile(filepath.Join(s.Root(), "sessions", id, "final-notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(notes) != "looks good" {
		t.Errorf("notes = %q, want %q", notes, "looks good")
	}
}

func TestComplete_NoNotesNoArtifact(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, _ := s.CreateSession(ctx, models.ReviewRequest{Summary: "no notes"})
	if err := s.Complete(ctx, id, models.SessionStatusMerged, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(s.Root(), "sessions", id, "final-notes.txt")); !os.IsNotExist(err) {
		t.Errorf("final-notes.txt should not exist, stat err = %v", err)
	}
}

func TestComplete_InvalidStatus(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, _ := s.CreateSession(ctx, models.ReviewRequest{Summary: "bad status"})
	if err := s.Complete(ctx, id, models.SessionStatusInProgress, ""); err == nil {
		t.Error("expected error for non-terminal status")
	}
	if err := s.Complete(ctx, "2020-01-01-001", models.SessionStatusApproved, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
