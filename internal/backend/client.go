// Package backend is the HTTP client for the remote commerce service.
// All catalog, order, and credential logic lives there; this client only
// shuttles JSON and maps wire shapes into display shapes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

// Client calls the commerce backend over HTTP. The base URL is a single
// configured value; there are no per-call fallback hosts.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a backend error response (non-2xx with a JSON body).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a backend client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (domain.User, string, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", payload, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", "", payload, nil)
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	payload := map[string]string{"token": resetToken, "password": newPassword}
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password", "", payload, nil)
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var resp []productResponse
	if err := c.doJSON(ctx, http.MethodGet, "/products", "", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(resp))
	for _, p := range resp {
		out = append(out, p.toDomain())
	}
	return out, nil
}

// ProductInput is the payload for product create/update calls.
type ProductInput struct {
	Title       string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"imageUrl,omitempty"`
	Category    string  `json:"category,omitempty"`
	Stock       int     `json:"stock"`
}

func (c *Client) CreateProduct(ctx context.Context, token string, in ProductInput) error {
	return c.doJSON(ctx, http.MethodPost, "/products", token, in, nil)
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, in ProductInput) error {
	return c.doJSON(ctx, http.MethodPatch, "/products/"+id, token, in, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/products/"+id, token, nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var resp []categoryResponse
	if err := c.doJSON(ctx, http.MethodGet, "/categories", "", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(resp))
	for _, cat := range resp {
		out = append(out, domain.Category{ID: cat.ID, Name: cat.Name, Image: cat.Image})
	}
	return out, nil
}

// CategoryInput is the payload for category create/update calls.
type CategoryInput struct {
	Name  string `json:"name"`
	Image string `json:"imageUrl,omitempty"`
}

func (c *Client) CreateCategory(ctx context.Context, token string, in CategoryInput) error {
	return c.doJSON(ctx, http.MethodPost, "/categories", token, in, nil)
}

func (c *Client) UpdateCategory(ctx context.Context, token, id string, in CategoryInput) error {
	return c.doJSON(ctx, http.MethodPatch, "/categories/"+id, token, in, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/categories/"+id, token, nil, nil)
}

func (c *Client) Orders(ctx context.Context, token string) ([]domain.Order, error) {
	var resp []orderResponse
	if err := c.doJSON(ctx, http.MethodGet, "/orders", token, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(resp))
	for _, o := range resp {
		out = append(out, o.toDomain())
	}
	return out, nil
}

// CreateOrder submits the cart as an order. The backend computes the
// authoritative total from its own prices.
func (c *Client) CreateOrder(ctx context.Context, token string, items []domain.LineItem) (domain.Order, error) {
	type orderLine struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	lines := make([]orderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, orderLine{ProductID: item.ID, Qty: item.Qty})
	}
	payload := map[string]any{"items": lines}
	var resp orderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders", token, payload, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.toDomain(), nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) error {
	payload := map[string]string{"status": string(status)}
	return c.doJSON(ctx, http.MethodPatch, "/orders/"+id+"/status", token, payload, nil)
}

func (c *Client) Stats(ctx context.Context, token string) (domain.Stats, error) {
	var resp statsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/stats/dashboard", token, nil, &resp); err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{
		TotalRevenue:   resp.Revenue,
		TotalOrders:    resp.Orders,
		TotalProducts:  resp.Products,
		TotalCustomers: resp.Customers,
	}, nil
}

func (c *Client) Customers(ctx context.Context, token string) ([]domain.Customer, error) {
	var resp []customerResponse
	if err := c.doJSON(ctx, http.MethodGet, "/user", token, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(resp))
	for _, u := range resp {
		out = append(out, domain.Customer{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      domain.UserRole(u.Role),
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Wire shapes. The backend names differ from the display shapes, so each
// response type carries its own mapping.

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"imageUrl"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p productResponse) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Title:       p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"imageUrl"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Items     []orderItemResponse `json:"items"`
	Total     float64             `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

func (o orderResponse) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Name,
			Price:     it.Price,
			Qty:       it.Qty,
		})
	}
	return domain.Order{
		ID:         o.ID,
		CustomerID: o.UserID,
		Items:      items,
		Total:      o.Total,
		Status:     domain.OrderStatus(o.Status),
		CreatedAt:  o.CreatedAt,
	}
}

type statsResponse struct {
	Revenue   float64 `json:"totalRevenue"`
	Orders    int     `json:"totalOrders"`
	Products  int     `json:"totalProducts"`
	Customers int     `json:"totalCustomers"`
}

type customerResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
