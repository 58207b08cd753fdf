package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStorePutAndURL(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	if err := fs.Put(ctx, "mug.png", strings.NewReader("img-bytes"), 9, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "mug.png"))
	if err != nil || string(data) != "img-bytes" {
		t.Fatalf("stored bytes mismatch: %q, %v", data, err)
	}
	url, err := fs.URL(ctx, "mug.png")
	if err != nil || url != "/uploads/mug.png" {
		t.Fatalf("unexpected url: %q, %v", url, err)
	}
}

func TestFileStorePutSanitizesKey(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := fs.Put(context.Background(), "../../escape.png", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.png")); err != nil {
		t.Fatalf("expected sanitized file inside base dir: %v", err)
	}
}
