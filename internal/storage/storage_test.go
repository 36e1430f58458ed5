package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testMatch(home, away string, kickoff time.Time) match.Match {
	return match.NewMatch(home, away, kickoff, "")
}

func TestNew_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFileName)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if s.Path() != filepath.Join(dir, dbFileName) {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestNew_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := New("~/kickoff")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	want := filepath.Join(home, "kickoff", dbFileName)
	if s.Path() != want {
		t.Errorf("Path() = %q, want %q", s.Path(), want)
	}
}

func TestMarkNotified(t *testing.T) {
	s := newTestStorage(t)
	kickoff := time.Date(2023, 10, 21, 14, 0, 0, 0, time.UTC)
	m := testMatch("アーセナル", "チェルシー", kickoff)

	notified, err := s.IsNotified(m.ID)
	if err != nil {
		t.Fatalf("IsNotified() error = %v", err)
	}
	if notified {
		t.Fatal("IsNotified() = true before MarkNotified")
	}

	at := kickoff.Add(-20 * time.Minute)
	if err := s.MarkNotified(m, at); err != nil {
		t.Fatalf("MarkNotified() error = %v", err)
	}

	notified, err = s.IsNotified(m.ID)
	if err != nil {
		t.Fatalf("IsNotified() error = %v", err)
	}
	if !notified {
		t.Error("IsNotified() = false after MarkNotified")
	}

	all, err := s.GetAllNotified()
	if err != nil {
		t.Fatalf("GetAllNotified() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("GetAllNotified() returned %d records, want 1", len(all))
	}
	got := all[0]
	if got.MatchID != m.ID || got.HomeTeam != "アーセナル" || !got.Kickoff.Equal(kickoff) || !got.NotifiedAt.Equal(at) {
		t.Errorf("record = %+v", got)
	}
}

func TestMarkNotified_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	m := testMatch("A", "B", time.Date(2023, 10, 21, 14, 0, 0, 0, time.UTC))

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.MarkNotified(m, time.Now()); err != nil {
		t.Fatalf("MarkNotified() error = %v", err)
	}
	s.Close()

	s, err = New(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	notified, err := s.IsNotified(m.ID)
	if err != nil || !notified {
		t.Errorf("IsNotified() after reopen = %v, %v", notified, err)
	}
}

func TestCleanup(t *testing.T) {
	s := newTestStorage(t)
	cutoff := time.Date(2023, 10, 21, 0, 0, 0, 0, time.UTC)

	old := testMatch("A", "B", cutoff.Add(-48*time.Hour))
	recent := testMatch("C", "D", cutoff.Add(2*time.Hour))
	for _, m := range []match.Match{old, recent} {
		if err := s.MarkNotified(m, cutoff); err != nil {
			t.Fatalf("MarkNotified() error = %v", err)
		}
	}

	removed, err := s.Cleanup(cutoff)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}

	if ok, _ := s.IsNotified(old.ID); ok {
		t.Error("old match should have been removed")
	}
	if ok, _ := s.IsNotified(recent.ID); !ok {
		t.Error("recent match should be kept")
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestStorage(t)

	snapshot, err := s.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if snapshot != nil {
		t.Fatalf("LoadSnapshot() = %+v, want nil before first save", snapshot)
	}

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	matches := []match.Match{
		testMatch("A", "B", time.Date(2023, 10, 21, 23, 0, 0, 0, tokyo)),
		match.NewMatch("C", "D", time.Time{}, "延期"),
	}
	at := time.Date(2023, 10, 21, 12, 0, 0, 0, tokyo)

	if err := s.SaveSnapshot(matches, at); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	snapshot, err = s.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if !snapshot.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", snapshot.UpdatedAt, at)
	}
	if len(snapshot.Matches) != 2 {
		t.Fatalf("Matches = %d, want 2", len(snapshot.Matches))
	}
	if got := snapshot.Matches[0]; got.ID != matches[0].ID || !got.Kickoff.Equal(matches[0].Kickoff) {
		t.Errorf("Matches[0] = %+v", got)
	}
	if got := snapshot.Matches[1]; got.HasKickoff() || got.Status != "延期" {
		t.Errorf("Matches[1] = %+v", got)
	}
}
