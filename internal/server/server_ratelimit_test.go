package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/jawad226/EchoMart-sub000/internal/backend"
	"github.com/jawad226/EchoMart-sub000/internal/cart"
	"github.com/jawad226/EchoMart-sub000/internal/dashboard"
	"github.com/jawad226/EchoMart-sub000/internal/session"
)

func TestLoginRateLimited(t *testing.T) {
	stub := newBackendStub(t, false)
	client := backend.NewClient(stub.URL)
	sessionStore := session.NewStore(nil)
	sessionStore.Hydrate()
	redis := miniredis.RunT(t)

	srv, err := New(Config{
		Backend:                 client,
		Cart:                    cart.NewStore(nil, cart.ClampAtOne),
		Session:                 sessionStore,
		Dashboard:               dashboard.NewStore(client, sessionStore),
		RedisAddr:               redis.Addr(),
		LoginRateLimitPerMinute: 2,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/api/auth/login", map[string]string{"email": "a@b.c", "password": "bad"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401, got %d", i, resp.StatusCode)
		}
	}
	resp := postJSON(t, ts.URL+"/api/auth/login", map[string]string{"email": "a@b.c", "password": "bad"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
	}
}
