package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNotesRoundTrip(t *testing.T) {
	svc := NewService(t.TempDir())

	if err := svc.Save("P100", "kickoff moved to week 12"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := svc.Load("P100")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "kickoff moved to week 12" {
		t.Errorf("unexpected note text: %q", got)
	}
}

func TestNotesSaveOverwrites(t *testing.T) {
	svc := NewService(t.TempDir())

	if err := svc.Save("P100", "first"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := svc.Save("P100", "second"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := svc.Load("P100")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "second" {
		t.Errorf("expected latest note to win, got %q", got)
	}
}

func TestNotesLoadMissingReturnsEmpty(t *testing.T) {
	svc := NewService(t.TempDir())

	got, err := svc.Load("P404")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty note for unknown project, got %q", got)
	}
}

func TestNotesRejectEmptyProjectID(t *testing.T) {
	svc := NewService(t.TempDir())

	if err := svc.Save("  ", "text"); err == nil {
		t.Error("expected Save to reject a blank project id")
	}
	if _, err := svc.Load(""); err == nil {
		t.Error("expected Load to reject a blank project id")
	}
}

func TestNotesSanitizesProjectID(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir)

	if err := svc.Save("../escape/P1", "contained"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list notes dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one note file inside the base dir, got %d", len(entries))
	}
	name := entries[0].Name()
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Errorf("note filename not sanitized: %q", name)
	}
	if filepath.Ext(name) != ".txt" {
		t.Errorf("expected .txt note file, got %q", name)
	}

	got, err := svc.Load("../escape/P1")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "contained" {
		t.Errorf("sanitized id did not round trip: %q", got)
	}
}

func TestNotesCreatesDirectoryOnFirstSave(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "notes")
	svc := NewService(base)

	if err := svc.Save("P1", "x"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := os.Stat(base); err != nil {
		t.Errorf("expected notes directory to be created: %v", err)
	}
}
