package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, "/uploads")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := context.Background()
	url, err := store.Save(ctx, "avatars", "me.png", strings.NewReader("fake-png-bytes"), 1<<20)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/avatars/") {
		t.Fatalf("unexpected url %s", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("extension not preserved: %s", url)
	}

	rel := strings.TrimPrefix(url, "/uploads/")
	if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	if err := store.Remove(ctx, url); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, rel)); !os.IsNotExist(err) {
		t.Fatal("expected file to be deleted")
	}

	// Removing twice is fine.
	if err := store.Remove(ctx, url); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	store, err := New(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := store.Save(context.Background(), "docs", "run.exe", strings.NewReader("x"), 1024); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	store, err := New(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	big := strings.Repeat("a", 100)
	if _, err := store.Save(context.Background(), "docs", "doc.pdf", strings.NewReader(big), 10); err == nil {
		t.Fatal("expected error for oversized file")
	}
}

func TestRemoveRejectsForeignURL(t *testing.T) {
	store, err := New(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := store.Remove(context.Background(), "https://elsewhere.example/file.png"); err == nil {
		t.Fatal("expected error for unmanaged url")
	}
}
