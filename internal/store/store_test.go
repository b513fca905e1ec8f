package store

import (
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	doc := NewDocument[payload](path)
	if doc.Exists() {
		t.Fatalf("document must not exist yet")
	}
	if err := doc.Save(payload{Name: "x", Count: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := doc.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "x" || got.Count != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissingIsNotExist(t *testing.T) {
	t.Parallel()

	doc := NewDocument[payload](filepath.Join(t.TempDir(), "missing.json"))
	_, err := doc.Load()
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist classification, got %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := NewDocument[payload](filepath.Join(dir, "doc.json"))
	if err := doc.Save(payload{Name: "a"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := doc.Save(payload{Name: "b"}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
	got, err := doc.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "b" {
		t.Fatalf("overwrite lost: %+v", got)
	}
}

func TestLoadCorruptFileWrapsErrPersistence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc := NewDocument[payload](path)
	_, err := doc.Load()
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if IsNotExist(err) {
		t.Fatalf("corrupt file must not classify as missing")
	}
}
