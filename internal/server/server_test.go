package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jawad226/EchoMart-sub000/internal/backend"
	"github.com/jawad226/EchoMart-sub000/internal/cart"
	"github.com/jawad226/EchoMart-sub000/internal/dashboard"
	"github.com/jawad226/EchoMart-sub000/internal/session"
	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

// newBackendStub serves the handful of backend endpoints the tests hit.
func newBackendStub(t *testing.T, failCheckout bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		role := "user"
		if req.Email == "admin@example.com" {
			role = "admin"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": "u1", "email": req.Email, "name": "Ada", "role": role},
		})
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if failCheckout {
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "out of stock"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "o1", "status": "pending"})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, failCheckout bool) (*httptest.Server, *cart.Store, *session.Store) {
	t.Helper()
	stub := newBackendStub(t, failCheckout)
	client := backend.NewClient(stub.URL)
	cartStore := cart.NewStore(nil, cart.ClampAtOne)
	sessionStore := session.NewStore(nil)
	sessionStore.Hydrate()
	srv, err := New(Config{
		Backend:   client,
		Cart:      cartStore,
		Session:   sessionStore,
		Dashboard: dashboard.NewStore(client, sessionStore),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, cartStore, sessionStore
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestLoginSetsSessionAndCookie(t *testing.T) {
	ts, _, sessionStore := newTestServer(t, false)
	resp := postJSON(t, ts.URL+"/api/auth/login", map[string]string{"email": "a@b.c", "password": "good"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !sessionStore.IsAuthenticated() || sessionStore.Token() != "tok-1" {
		t.Fatal("expected session store to hold the login")
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "echomart_token" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "tok-1" {
		t.Fatalf("expected token mirror cookie, got %+v", resp.Cookies())
	}
}

func TestLoginValidatesBeforeBackendCall(t *testing.T) {
	ts, _, _ := newTestServer(t, false)
	resp := postJSON(t, ts.URL+"/api/auth/login", map[string]string{"email": ""})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", resp.StatusCode)
	}
}

func TestLoginPassesBackendErrorThrough(t *testing.T) {
	ts, _, sessionStore := newTestServer(t, false)
	resp := postJSON(t, ts.URL+"/api/auth/login", map[string]string{"email": "a@b.c", "password": "bad"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if sessionStore.IsAuthenticated() {
		t.Fatal("failed login must not create a session")
	}
}

func TestLogoutClearsSessionAndExpiresCookie(t *testing.T) {
	ts, _, sessionStore := newTestServer(t, false)
	sessionStore.Login("tok-1", domain.User{ID: "u1", Role: domain.RoleUser})
	resp := postJSON(t, ts.URL+"/api/auth/logout", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if sessionStore.IsAuthenticated() {
		t.Fatal("expected anonymous after logout")
	}
	for _, c := range resp.Cookies() {
		if c.Name == "echomart_token" && c.MaxAge >= 0 {
			t.Fatalf("expected expired cookie, got %+v", c)
		}
	}
}

func TestCheckoutRequiresSession(t *testing.T) {
	ts, cartStore, _ := newTestServer(t, false)
	cartStore.Add(domain.LineItem{ID: "1", Title: "Mug", Qty: 1})
	resp := postJSON(t, ts.URL+"/api/checkout", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCheckoutClearsCartOnSuccess(t *testing.T) {
	ts, cartStore, sessionStore := newTestServer(t, false)
	sessionStore.Login("tok-1", domain.User{ID: "u1", Role: domain.RoleUser})
	cartStore.Add(domain.LineItem{ID: "1", Title: "Mug", Price: 10, Qty: 2})

	resp := postJSON(t, ts.URL+"/api/checkout", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if cartStore.Len() != 0 {
		t.Fatal("expected cart cleared after successful checkout")
	}
}

func TestCheckoutKeepsCartOnFailure(t *testing.T) {
	ts, cartStore, sessionStore := newTestServer(t, true)
	sessionStore.Login("tok-1", domain.User{ID: "u1", Role: domain.RoleUser})
	cartStore.Add(domain.LineItem{ID: "1", Title: "Mug", Price: 10, Qty: 2})

	resp := postJSON(t, ts.URL+"/api/checkout", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected backend status passthrough, got %d", resp.StatusCode)
	}
	if cartStore.Len() != 1 {
		t.Fatal("cart must survive a failed checkout")
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	ts, _, sessionStore := newTestServer(t, false)
	sessionStore.Login("tok-1", domain.User{ID: "u1", Role: domain.RoleUser})
	resp := postJSON(t, ts.URL+"/api/checkout", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesGuardByRole(t *testing.T) {
	ts, _, sessionStore := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/admin/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous expected 401, got %d", resp.StatusCode)
	}

	sessionStore.Login("tok-1", domain.User{ID: "u1", Role: domain.RoleUser})
	resp, err = http.Get(ts.URL + "/api/admin/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin expected 403, got %d", resp.StatusCode)
	}

	sessionStore.Login("tok-1", domain.User{ID: "u2", Role: domain.RoleAdmin})
	resp, err = http.Get(ts.URL + "/api/admin/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin expected 200, got %d", resp.StatusCode)
	}
}

func TestCartEndpoints(t *testing.T) {
	ts, cartStore, _ := newTestServer(t, false)

	resp := postJSON(t, ts.URL+"/api/cart/items", map[string]any{"id": "1", "title": "Mug", "price": 9.5, "qty": 2})
	resp.Body.Close()
	if cartStore.Len() != 1 {
		t.Fatal("expected item added")
	}

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/cart/items/1", bytes.NewReader([]byte(`{"op":"increase"}`)))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	resp2.Body.Close()
	if got := cartStore.Items()[0].Qty; got != 3 {
		t.Fatalf("expected qty 3 after increase, got %d", got)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/cart/items/1", nil)
	resp3, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp3.Body.Close()
	if cartStore.Len() != 0 {
		t.Fatal("expected item removed")
	}

	resp4 := postJSON(t, ts.URL+"/api/cart/toggle", nil)
	var toggled struct {
		Open bool `json:"open"`
	}
	_ = json.NewDecoder(resp4.Body).Decode(&toggled)
	resp4.Body.Close()
	if !toggled.Open {
		t.Fatal("expected drawer open after toggle")
	}
}
