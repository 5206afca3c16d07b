package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/screener/internal/model"
)

func newTestStore(t *testing.T, limit int) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath, limit)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntry(id string, at time.Time) model.HistoryEntry {
	resume := model.ResumeDocument{ID: "r1", FileName: "alice.pdf", Text: "Alice\nGo developer"}
	return model.HistoryEntry{
		ID:             id,
		Title:          "Senior Go Engineer",
		Timestamp:      at,
		JobDescription: "Senior Go Engineer\nBuild services.",
		Resumes:        []model.ResumeDocument{resume},
		Results: []model.ScoredResume{{
			Result: model.CandidateResult{
				ID: "r1", Name: "Alice", MatchScore: 8, Justification: "Strong Go.",
				ExtractedSkills: []string{"Go", "SQL"}, ExtractedExperienceSummary: "Six years.",
			},
			Resume: resume,
		}},
	}
}

func TestAddEntryThenEntry(t *testing.T) {
	s := newTestStore(t, 50)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000)

	if err := s.AddEntry(ctx, sampleEntry("e1", at)); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	got, err := s.Entry(ctx, "e1")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if got.Title != "Senior Go Engineer" || !got.Timestamp.Equal(at) {
		t.Errorf("entry = %+v", got)
	}
	if len(got.Results) != 1 || got.Results[0].Result.MatchScore != 8 || got.Results[0].Resume.FileName != "alice.pdf" {
		t.Errorf("results = %+v", got.Results)
	}
	if len(got.Results[0].Result.ExtractedSkills) != 2 {
		t.Errorf("skills = %v", got.Results[0].Result.ExtractedSkills)
	}
	if len(got.Resumes) != 1 || got.Resumes[0].Text != "Alice\nGo developer" {
		t.Errorf("resumes = %+v", got.Resumes)
	}
}

func TestEntriesNewestFirst(t *testing.T) {
	s := newTestStore(t, 50)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		if err := s.AddEntry(ctx, sampleEntry(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("AddEntry %s: %v", id, err)
		}
	}

	entries, err := s.Entries(ctx, 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "new" || entries[2].ID != "old" {
		t.Errorf("order = %v", ids(entries))
	}

	limited, err := s.Entries(ctx, 2)
	if err != nil {
		t.Fatalf("Entries(2): %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "new" {
		t.Errorf("limited = %v", ids(limited))
	}
}

func TestAddEntryTrimsToLimit(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		if err := s.AddEntry(ctx, sampleEntry(fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	entries, err := s.Entries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(entries); len(got) != 3 || got[0] != "e4" || got[2] != "e2" {
		t.Errorf("kept %v, want [e4 e3 e2]", got)
	}
}

func TestEntryNotFound(t *testing.T) {
	s := newTestStore(t, 50)
	_, err := s.Entry(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t, 50)
	ctx := context.Background()
	s.AddEntry(ctx, sampleEntry("keep", time.Now()))
	s.AddEntry(ctx, sampleEntry("drop", time.Now().Add(time.Second)))

	if err := s.DeleteEntry(ctx, "drop"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := s.DeleteEntry(ctx, "drop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}

	entries, _ := s.Entries(ctx, 0)
	if got := ids(entries); len(got) != 1 || got[0] != "keep" {
		t.Errorf("remaining = %v", got)
	}
}

func TestClearHistory(t *testing.T) {
	s := newTestStore(t, 50)
	ctx := context.Background()
	s.AddEntry(ctx, sampleEntry("a", time.Now()))
	s.AddEntry(ctx, sampleEntry("b", time.Now()))

	if err := s.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	entries, err := s.Entries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %v", ids(entries))
	}
}

func TestTranscriptAppendOnly(t *testing.T) {
	s := newTestStore(t, 50)
	ctx := context.Background()

	msgs := []model.ConsultantMessage{
		{Role: model.RoleUser, Content: "What should I ask Alice?"},
		{Role: model.RoleAssistant, Content: "Ask about her Go services."},
		{Role: model.RoleUser, Content: "And Bob?"},
	}
	for _, m := range msgs {
		if err := s.Append(ctx, "session-1", m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Append(ctx, "session-2", model.ConsultantMessage{Role: model.RoleUser, Content: "other"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Messages(ctx, "session-1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	for i := range msgs {
		if got[i] != msgs[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], msgs[i])
		}
	}

	if err := s.ClearTranscript(ctx, "session-1"); err != nil {
		t.Fatalf("ClearTranscript: %v", err)
	}
	if got, _ := s.Messages(ctx, "session-1"); len(got) != 0 {
		t.Errorf("session-1 not cleared: %v", got)
	}
	if got, _ := s.Messages(ctx, "session-2"); len(got) != 1 {
		t.Errorf("session-2 affected by clear: %v", got)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(dbPath, 50)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.AddEntry(ctx, sampleEntry("persisted", time.Now())); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(dbPath, 50)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.Entry(ctx, "persisted"); err != nil {
		t.Errorf("entry lost after reopen: %v", err)
	}
}

func TestNopStore(t *testing.T) {
	var s NopStore
	ctx := context.Background()
	if err := s.AddEntry(ctx, sampleEntry("x", time.Now())); err != nil {
		t.Fatal(err)
	}
	if entries, _ := s.Entries(ctx, 0); len(entries) != 0 {
		t.Error("NopStore should not remember entries")
	}
	if _, err := s.Entry(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Entry err = %v", err)
	}
}

func ids(entries []model.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
