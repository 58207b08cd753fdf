// Package cart holds the in-session shopping cart and its drawer flag.
// The cart is purely local until checkout submits it as an order; no
// operation here performs a network call.
package cart

import (
	"log/slog"
	"sync"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

// DecrementPolicy controls Decrease behavior at Qty == 1.
type DecrementPolicy string

const (
	// ClampAtOne keeps the line item with Qty pinned at 1.
	ClampAtOne DecrementPolicy = "clamp"
	// RemoveAtZero deletes the line item instead.
	RemoveAtZero DecrementPolicy = "remove"
)

// ParsePolicy maps a config string to a policy, defaulting to ClampAtOne.
func ParsePolicy(value string) DecrementPolicy {
	if value == string(RemoveAtZero) {
		return RemoveAtZero
	}
	return ClampAtOne
}

// Store maintains the cart line items and the open/closed drawer flag.
// Mutations never fail; persistence errors are logged and the in-memory
// state stays authoritative for the session.
type Store struct {
	mu     sync.Mutex
	repo   Repository
	policy DecrementPolicy
	items  []domain.LineItem
	open   bool
}

// NewStore constructs a cart store. A nil repository disables persistence.
func NewStore(repo Repository, policy DecrementPolicy) *Store {
	if policy == "" {
		policy = ClampAtOne
	}
	return &Store{repo: repo, policy: policy}
}

// Hydrate loads the persisted cart. Missing or corrupt state yields an
// empty cart, never an error.
func (s *Store) Hydrate() {
	if s.repo == nil {
		return
	}
	items, err := s.repo.Load()
	if err != nil {
		slog.Warn("cart hydrate failed, starting empty", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

// Add merges by ID, summing quantities; a zero or negative incoming Qty
// counts as 1. Otherwise the item is appended.
func (s *Store) Add(item domain.LineItem) {
	if item.Qty < 1 {
		item.Qty = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Qty += item.Qty
			s.persistLocked()
			return
		}
	}
	s.items = append(s.items, item)
	s.persistLocked()
}

// Remove deletes the line item with the given ID. No-op if absent.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == len(s.items) {
		return
	}
	s.items = filtered
	s.persistLocked()
}

// Increase bumps the quantity by one. There is no upper bound.
func (s *Store) Increase(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Qty++
			s.persistLocked()
			return
		}
	}
}

// Decrease lowers the quantity by one. At Qty == 1 the configured policy
// decides: clamp keeps the line at 1, remove deletes it.
func (s *Store) Decrease(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Qty > 1 {
			s.items[i].Qty--
			s.persistLocked()
			return
		}
		if s.policy == RemoveAtZero {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked()
		}
		return
	}
}

// Clear empties the cart. Invoked after a successful order placement.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	if s.repo != nil {
		if err := s.repo.Clear(); err != nil {
			slog.Warn("cart clear persist failed", "err", err)
		}
	}
}

// Toggle flips the drawer visibility flag. Cart contents are untouched.
func (s *Store) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
}

// IsOpen reports the drawer visibility flag.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Items returns a copy of the current line items.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal sums Price * Qty over the cart.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, item := range s.items {
		total += item.Price * float64(item.Qty)
	}
	return total
}

// Len returns the number of distinct line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) persistLocked() {
	if s.repo == nil {
		return
	}
	snapshot := make([]domain.LineItem, len(s.items))
	copy(snapshot, s.items)
	if err := s.repo.Save(snapshot); err != nil {
		slog.Warn("cart persist failed", "err", err)
	}
}
