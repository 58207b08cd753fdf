package session

import (
	"testing"
	"time"
)

func TestNewCookieDefaults(t *testing.T) {
	c := NewCookie(CookieConfig{}, "tok")
	if c.Name != "echomart_token" || c.Value != "tok" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if c.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("expected 24h max age, got %d", c.MaxAge)
	}
	if !c.HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
}

func TestClearCookieExpiresImmediately(t *testing.T) {
	c := ClearCookie(CookieConfig{Name: "sess"})
	if c.Name != "sess" || c.Value != "" || c.MaxAge != -1 {
		t.Fatalf("unexpected clear cookie: %+v", c)
	}
}
