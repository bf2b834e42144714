package forms

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewStore(dir)

	content := "%PDF-1.4 intake"
	path, err := s.Save(7, "intake.pdf", strings.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "7_intake.pdf" {
		t.Errorf("stored name = %q, want 7_intake.pdf", filepath.Base(path))
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("stored bytes = %q", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := NewStore(t.TempDir())

	if _, err := s.Save(1, "form.pdf", strings.NewReader("old")); err != nil {
		t.Fatal(err)
	}
	path, err := s.Save(1, "form.pdf", strings.NewReader("new"))
	if err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("stored bytes = %q, want the later upload", got)
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	path, err := s.Save(3, "../../escape.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file stored outside the upload dir: %s", path)
	}
	if filepath.Base(path) != "3_escape.pdf" {
		t.Errorf("stored name = %q", filepath.Base(path))
	}
}

func TestSaveEmptyFile(t *testing.T) {
	s := NewStore(t.TempDir())

	path, err := s.Save(2, "empty.pdf", strings.NewReader(""))
	if err != nil {
		t.Fatalf("save empty: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}
