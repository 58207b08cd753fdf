package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

func TestRedisRepositoryRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", time.Hour)

	want := domain.Session{Token: "tok", User: domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleAdmin}}
	if err := repo.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || *got != want {
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

func TestRedisRepositorySessionExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", time.Minute)
	if err := repo.Save(domain.Session{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	got, err := repo.Load()
	if err != nil || got != nil {
		t.Fatalf("expected session gone after TTL, got %v, %v", got, err)
	}
}
