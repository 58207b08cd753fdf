package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

func TestFileRepositoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	want := []domain.LineItem{{ID: "1", Title: "Mug", Price: 9.5, Qty: 2}}
	if err := repo.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFileRepositoryLoadMissingReturnsNil(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	items, err := repo.Load()
	if err != nil || items != nil {
		t.Fatalf("expected nil, nil for missing file, got %v, %v", items, err)
	}
}

func TestHydrateCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cart.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	s := NewStore(repo, ClampAtOne)
	s.Hydrate()
	if s.Len() != 0 {
		t.Fatalf("expected empty cart after corrupt hydrate, got %d", s.Len())
	}
}

func TestClearRemovesFile(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	s := NewStore(repo, ClampAtOne)
	s.Add(domain.LineItem{ID: "1", Qty: 1})
	s.Clear()
	if _, err := os.Stat(filepath.Join(dir, "cart.json")); !os.IsNotExist(err) {
		t.Fatalf("expected cart file removed, stat err: %v", err)
	}
}
