// Package session holds the authenticated session: the backend-issued token
// plus the user profile, set together or not at all.
package session

import (
	"log/slog"
	"sync"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

// State is the session lifecycle state.
// Uninitialized -> Loading -> {Authenticated | Anonymous};
// Authenticated -> Anonymous on logout; Anonymous -> Authenticated on login.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Repository persists the session across restarts.
// Load returns (nil, nil) when nothing has been persisted.
type Repository interface {
	Load() (*domain.Session, error)
	Save(sess domain.Session) error
	Clear() error
}

// Store holds the current session. A missing or corrupt persisted session
// is treated identically to "no session" and never surfaces an error.
type Store struct {
	mu      sync.RWMutex
	repo    Repository
	state   State
	current *domain.Session
}

// NewStore constructs a session store. A nil repository disables persistence.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, state: StateUninitialized}
}

// Hydrate loads the persisted session. While it runs the store reports
// Loading so route guards can wait. An expired JWT is discarded the same
// way as a corrupt value.
func (s *Store) Hydrate() {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	var loaded *domain.Session
	if s.repo != nil {
		sess, err := s.repo.Load()
		if err != nil {
			slog.Warn("session hydrate failed, treating as anonymous", "err", err)
		} else {
			loaded = sess
		}
	}
	if loaded != nil && (loaded.Token == "" || tokenExpired(loaded.Token)) {
		loaded = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded == nil {
		s.current = nil
		s.state = StateAnonymous
		return
	}
	s.current = loaded
	s.state = StateAuthenticated
}

// Login sets token and user atomically and persists them. It cannot fail;
// persistence errors are logged and the in-memory session stands.
func (s *Store) Login(token string, user domain.User) {
	sess := domain.Session{Token: token, User: user}
	s.mu.Lock()
	s.current = &sess
	s.state = StateAuthenticated
	s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.Save(sess); err != nil {
			slog.Warn("session persist failed", "err", err)
		}
	}
}

// Logout clears the in-memory session and the persisted copy.
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = nil
	s.state = StateAnonymous
	s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.Clear(); err != nil {
			slog.Warn("session clear persist failed", "err", err)
		}
	}
}

// Current returns a copy of the session, or nil when anonymous.
func (s *Store) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// Token returns the session token, empty when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// IsAuthenticated reports whether a session is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated
}

// Loading reports whether hydration is still in flight; route guards must
// not decide while this is true.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateLoading || s.state == StateUninitialized
}

// CurrentState returns the lifecycle state.
func (s *Store) CurrentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
