package cart

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

func TestRedisRepositoryRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "")

	want := []domain.LineItem{
		{ID: "1", Title: "Mug", Price: 9.5, Qty: 2},
		{ID: "2", Title: "Shirt", Price: 19, Qty: 1},
	}
	if err := repo.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := repo.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = repo.Load()
	if err != nil || got != nil {
		t.Fatalf("expected empty after clear, got %v, %v", got, err)
	}
}

func TestRedisRepositoryLoadEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "")
	items, err := repo.Load()
	if err != nil || items != nil {
		t.Fatalf("expected nil, nil on empty redis, got %v, %v", items, err)
	}
}
