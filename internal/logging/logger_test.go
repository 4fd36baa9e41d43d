package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetBeforeInitializeIsNoop(t *testing.T) {
	CloseAll()
	l := Get(CategoryBoot)
	if l == nil {
		t.Fatal("Get returned nil")
	}
	// Must not panic or write anywhere.
	l.Info("hello %s", "world")
	l.Debug("debug %d", 42)
}

func TestInitializeCreatesLogFiles(t *testing.T) {
	CloseAll()
	dir := t.TempDir()
	if err := Initialize(dir, true); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	Get(CategorySession).Info("session started")
	Get(CategorySession).Debug("detail")

	path := filepath.Join(dir, "session.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file at %s: %v", path, err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestInitializeRequiresDir(t *testing.T) {
	CloseAll()
	if err := Initialize("", false); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestGetReturnsSameLogger(t *testing.T) {
	CloseAll()
	a := Get(CategoryAgent)
	b := Get(CategoryAgent)
	if a != b {
		t.Error("Get should return the same logger per category")
	}
}
