// Package dashboard caches admin-visible snapshots of remote collections.
// Consistency is "eventually correct after refresh": every mutation goes to
// the backend and then triggers a full re-fetch instead of local
// reconciliation.
package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jawad226/EchoMart-sub000/internal/backend"
	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

// TokenSource supplies the session token for token-gated fetches.
// The session store satisfies this.
type TokenSource interface {
	Token() string
}

// Store holds point-in-time copies of the remote collections. A failed
// fetch leaves the previous snapshot in place; the store never exposes a
// global error flag.
type Store struct {
	backend *backend.Client
	tokens  TokenSource

	mu         sync.RWMutex
	orders     []domain.Order
	products   []domain.Product
	categories []domain.Category
	customers  []domain.Customer
	stats      domain.Stats
}

// NewStore constructs the dashboard store.
func NewStore(client *backend.Client, tokens TokenSource) *Store {
	return &Store{backend: client, tokens: tokens}
}

// Refresh fetches all collections in parallel. Each fetch that succeeds
// fully replaces its collection; each that fails is logged and skipped.
// Concurrent Refresh calls are not de-duplicated: the later response wins
// per collection, which is safe because the backend is authoritative.
func (s *Store) Refresh(ctx context.Context) {
	token := s.tokens.Token()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		products, err := s.backend.Products(ctx)
		if err != nil {
			slog.Warn("refresh products failed", "err", err)
			return nil
		}
		s.mu.Lock()
		s.products = products
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		categories, err := s.backend.Categories(ctx)
		if err != nil {
			slog.Warn("refresh categories failed", "err", err)
			return nil
		}
		s.mu.Lock()
		s.categories = categories
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		orders, err := s.backend.Orders(ctx, token)
		if err != nil {
			slog.Warn("refresh orders failed", "err", err)
			return nil
		}
		s.mu.Lock()
		s.orders = orders
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		stats, err := s.backend.Stats(ctx, token)
		if err != nil {
			slog.Warn("refresh stats failed", "err", err)
			return nil
		}
		s.mu.Lock()
		s.stats = stats
		s.mu.Unlock()
		return nil
	})
	if token != "" {
		g.Go(func() error {
			customers, err := s.backend.Customers(ctx, token)
			if err != nil {
				slog.Warn("refresh customers failed", "err", err)
				return nil
			}
			s.mu.Lock()
			s.customers = customers
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// mutate runs a backend call; on success it refreshes everything and
// reports true. Transport and HTTP failures are logged and report false
// without touching local state.
func (s *Store) mutate(ctx context.Context, op string, call func(token string) error) bool {
	if err := call(s.tokens.Token()); err != nil {
		slog.Warn("dashboard mutation failed", "op", op, "err", err)
		return false
	}
	s.Refresh(ctx)
	return true
}

func (s *Store) AddProduct(ctx context.Context, in backend.ProductInput) bool {
	return s.mutate(ctx, "product.create", func(token string) error {
		return s.backend.CreateProduct(ctx, token, in)
	})
}

func (s *Store) UpdateProduct(ctx context.Context, id string, in backend.ProductInput) bool {
	return s.mutate(ctx, "product.update", func(token string) error {
		return s.backend.UpdateProduct(ctx, token, id, in)
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id string) bool {
	return s.mutate(ctx, "product.delete", func(token string) error {
		return s.backend.DeleteProduct(ctx, token, id)
	})
}

func (s *Store) AddCategory(ctx context.Context, in backend.CategoryInput) bool {
	return s.mutate(ctx, "category.create", func(token string) error {
		return s.backend.CreateCategory(ctx, token, in)
	})
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in backend.CategoryInput) bool {
	return s.mutate(ctx, "category.update", func(token string) error {
		return s.backend.UpdateCategory(ctx, token, id, in)
	})
}

func (s *Store) DeleteCategory(ctx context.Context, id string) bool {
	return s.mutate(ctx, "category.delete", func(token string) error {
		return s.backend.DeleteCategory(ctx, token, id)
	})
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) bool {
	return s.mutate(ctx, "order.status", func(token string) error {
		return s.backend.UpdateOrderStatus(ctx, token, id, status)
	})
}

// DeleteOrder filters the order out of the local snapshot only. The backend
// has no order delete endpoint; the removal does not survive the next
// refresh and is logged as unsupported.
func (s *Store) DeleteOrder(id string) bool {
	slog.Warn("order deletion is local-only; the backend does not support it", "order_id", id)
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if o.ID != id {
			filtered = append(filtered, o)
		}
	}
	removed := len(filtered) != len(s.orders)
	s.orders = filtered
	return removed
}

func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Store) Customers() []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
