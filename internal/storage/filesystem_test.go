package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func TestNewFileStoreRequiresBasePath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}

func TestFileStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	key, err := store.Put(context.Background(), pngHeader, "thumbnails")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !strings.HasPrefix(key, "thumbnails/") {
		t.Fatalf("key = %q, want thumbnails/ prefix", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q, want .png extension", key)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != string(pngHeader) {
		t.Fatal("stored bytes differ from input")
	}
}

func TestFileStorePutNeverOverwrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	first, err := store.Put(context.Background(), pngHeader, "twitter_images")
	if err != nil {
		t.Fatalf("first Put returned error: %v", err)
	}
	second, err := store.Put(context.Background(), pngHeader, "twitter_images")
	if err != nil {
		t.Fatalf("second Put returned error: %v", err)
	}
	if first == second {
		t.Fatalf("repeated Put returned the same key %q", first)
	}
}

func TestFileStorePutEmptyPayload(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	if _, err := store.Put(context.Background(), nil, "thumbnails"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestFileStorePutDefaultsHint(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	key, err := store.Put(context.Background(), []byte("plain text payload"), "")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !strings.HasPrefix(key, "artifacts/") {
		t.Fatalf("key = %q, want artifacts/ prefix", key)
	}
}

func TestSanitizeKey(t *testing.T) {
	if _, err := sanitizeKey("../../etc/passwd"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	got, err := sanitizeKey("/thumbnails/a.png")
	if err != nil {
		t.Fatalf("sanitizeKey returned error: %v", err)
	}
	if got != "thumbnails/a.png" {
		t.Fatalf("sanitizeKey = %q", got)
	}
}
