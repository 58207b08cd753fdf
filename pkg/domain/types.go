package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// LineItem is one distinct product entry in the cart. Uniqueness key is ID.
type LineItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Qty      int     `json:"qty"`
	Category string  `json:"category,omitempty"`
}

type User struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Role    UserRole `json:"role"`
	Picture string   `json:"picture,omitempty"`
}

// Session is the authenticated user's token plus profile.
// Token and User are set together or not at all.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
}

type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customerId"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats are the admin dashboard aggregates reported by the backend.
type Stats struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalOrders    int     `json:"totalOrders"`
	TotalProducts  int     `json:"totalProducts"`
	TotalCustomers int     `json:"totalCustomers"`
}
