package session

import (
	"net/http"
	"time"
)

// CookieConfig describes the session cookie mirrored for route-guard and
// SSR checks. Defaults: name "echomart_token", 24 hour lifetime.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

const defaultCookieName = "echomart_token"

func (c CookieConfig) name() string {
	if c.Name == "" {
		return defaultCookieName
	}
	return c.Name
}

func (c CookieConfig) maxAge() time.Duration {
	if c.MaxAge <= 0 {
		return 24 * time.Hour
	}
	return c.MaxAge
}

// NewCookie builds the token mirror cookie set on login.
func NewCookie(cfg CookieConfig, token string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.maxAge().Seconds()),
		Expires:  time.Now().Add(cfg.maxAge()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds the expired cookie set on logout.
func ClearCookie(cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
