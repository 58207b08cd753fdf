package cart

import "github.com/jawad226/EchoMart-sub000/pkg/domain"

// Repository persists the cart line items across restarts.
// Load returns (nil, nil) when nothing has been persisted yet.
type Repository interface {
	Load() ([]domain.LineItem, error)
	Save(items []domain.LineItem) error
	Clear() error
}
