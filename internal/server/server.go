// Package server is the HTTP surface consumed by the storefront UI. Every
// handler delegates to one of the state stores; business decisions stay in
// the remote backend.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jawad226/EchoMart-sub000/internal/backend"
	"github.com/jawad226/EchoMart-sub000/internal/cart"
	"github.com/jawad226/EchoMart-sub000/internal/dashboard"
	"github.com/jawad226/EchoMart-sub000/internal/ratelimit"
	"github.com/jawad226/EchoMart-sub000/internal/session"
	"github.com/jawad226/EchoMart-sub000/internal/storage"
	"github.com/jawad226/EchoMart-sub000/internal/util"
	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Backend   *backend.Client
	Cart      *cart.Store
	Session   *session.Store
	Dashboard *dashboard.Store
	Images    storage.ObjectStore
	// UploadsDir, when set, is served at /uploads/ for the file-backed
	// image store.
	UploadsDir string
	Cookie     session.CookieConfig

	RedisAddr               string
	RedisPassword           string
	LoginRateLimitPerMinute int
}

// Server exposes the storefront state over HTTP.
type Server struct {
	backend   *backend.Client
	cart      *cart.Store
	session   *session.Store
	dashboard *dashboard.Store
	images    storage.ObjectStore
	cookie    session.CookieConfig
	mux       *http.ServeMux

	loginLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. The login limiter is
// only active when Redis is configured.
func New(cfg Config) (*Server, error) {
	if cfg.Backend == nil || cfg.Cart == nil || cfg.Session == nil || cfg.Dashboard == nil {
		return nil, errors.New("server requires backend, cart, session, and dashboard")
	}
	s := &Server{
		backend:   cfg.Backend,
		cart:      cfg.Cart,
		session:   cfg.Session,
		dashboard: cfg.Dashboard,
		images:    cfg.Images,
		cookie:    cfg.Cookie,
		mux:       http.NewServeMux(),
	}
	if cfg.RedisAddr != "" {
		limit := cfg.LoginRateLimitPerMinute
		if limit <= 0 {
			limit = 10
		}
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "echomart:ratelimit:login", limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
		s.loginLimiter = limiter
	}
	s.routes(cfg.UploadsDir)
	return s, nil
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes(uploadsDir string) {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/forgot-password", s.handleForgotPassword)
	s.mux.HandleFunc("/api/auth/reset-password", s.handleResetPassword)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/auth/session", s.handleSession)

	// cart (purely local)
	s.mux.HandleFunc("/api/cart", s.handleCart)
	s.mux.HandleFunc("/api/cart/items", s.handleCartItems)
	s.mux.HandleFunc("/api/cart/items/", s.handleCartItemByID)
	s.mux.HandleFunc("/api/cart/toggle", s.handleCartToggle)

	// checkout
	s.mux.Handle("/api/checkout", s.authenticated(s.handleCheckout))

	// admin dashboard
	s.mux.Handle("/api/admin/refresh", s.adminOnly(s.handleAdminRefresh))
	s.mux.Handle("/api/admin/stats", s.adminOnly(s.handleAdminStats))
	s.mux.Handle("/api/admin/products", s.adminOnly(s.handleAdminProducts))
	s.mux.Handle("/api/admin/products/", s.adminOnly(s.handleAdminProductByID))
	s.mux.Handle("/api/admin/categories", s.adminOnly(s.handleAdminCategories))
	s.mux.Handle("/api/admin/categories/", s.adminOnly(s.handleAdminCategoryByID))
	s.mux.Handle("/api/admin/orders", s.adminOnly(s.handleAdminOrders))
	s.mux.Handle("/api/admin/orders/", s.adminOnly(s.handleAdminOrderByID))
	s.mux.Handle("/api/admin/customers", s.adminOnly(s.handleAdminCustomers))
	s.mux.Handle("/api/admin/uploads", s.adminOnly(s.handleAdminUpload))

	if uploadsDir != "" {
		s.mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// guards

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.session.Loading() {
			writeError(w, http.StatusServiceUnavailable, "session is still loading")
			return
		}
		sess := s.session.Current()
		if sess == nil {
			s.audit(r, "storefront.authorize", "fail", "reason", "anonymous")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, sess.User)
	})
}

func (s *Server) adminOnly(next userHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			s.audit(r, "storefront.admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

// auth handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowLoginRate(w, r) {
		s.audit(r, "storefront.login", "rate_limited")
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, token, err := s.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.audit(r, "storefront.login", "fail", "reason", err.Error())
		writeBackendError(w, err)
		return
	}
	s.session.Login(token, user)
	http.SetCookie(w, session.NewCookie(s.cookie, token))
	s.audit(r, "storefront.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Validation failures are surfaced before any backend call.
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	user, token, err := s.backend.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.audit(r, "storefront.register", "fail", "reason", err.Error())
		writeBackendError(w, err)
		return
	}
	s.session.Login(token, user)
	http.SetCookie(w, session.NewCookie(s.cookie, token))
	s.audit(r, "storefront.register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := s.backend.ForgotPassword(r.Context(), req.Email); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "token and password are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if err := s.backend.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.session.Logout()
	http.SetCookie(w, session.ClearCookie(s.cookie))
	s.audit(r, "storefront.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	resp := map[string]any{"state": string(s.session.CurrentState())}
	if sess := s.session.Current(); sess != nil {
		resp["user"] = sess.User
	}
	writeJSON(w, http.StatusOK, resp)
}

// cart handlers

func (s *Server) cartSnapshot() map[string]any {
	items := s.cart.Items()
	return map[string]any{
		"items":    items,
		"count":    len(items),
		"subtotal": s.cart.Subtotal(),
		"open":     s.cart.IsOpen(),
	}
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.cartSnapshot())
}

func (s *Server) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var item domain.LineItem
	if err := decodeBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Title) == "" {
		writeError(w, http.StatusBadRequest, "id and title are required")
		return
	}
	s.cart.Add(item)
	writeJSON(w, http.StatusOK, s.cartSnapshot())
}

func (s *Server) handleCartItemByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/cart/items/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodDelete:
		s.cart.Remove(id)
		writeJSON(w, http.StatusOK, s.cartSnapshot())
	case http.MethodPatch:
		var req struct {
			Op string `json:"op"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		switch req.Op {
		case "increase":
			s.cart.Increase(id)
		case "decrease":
			s.cart.Decrease(id)
		default:
			writeError(w, http.StatusBadRequest, "op must be \"increase\" or \"decrease\"")
			return
		}
		writeJSON(w, http.StatusOK, s.cartSnapshot())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCartToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.cart.Toggle()
	writeJSON(w, http.StatusOK, map[string]bool{"open": s.cart.IsOpen()})
}

// checkout

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	items := s.cart.Items()
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}
	order, err := s.backend.CreateOrder(r.Context(), s.session.Token(), items)
	if err != nil {
		s.audit(r, "storefront.checkout", "fail", "user_id", user.ID, "reason", err.Error())
		writeBackendError(w, err)
		return
	}
	// The cart is cleared only after the backend accepted the order.
	s.cart.Clear()
	s.audit(r, "storefront.checkout", "success", "user_id", user.ID, "order_id", order.ID)
	writeJSON(w, http.StatusCreated, order)
}

// admin handlers

func (s *Server) handleAdminRefresh(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.dashboard.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.dashboard.Stats())
}

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request, _ domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeList(w, s.dashboard.Products())
	case http.MethodPost:
		var in backend.ProductInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(in.Title) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		writeMutation(w, s.dashboard.AddProduct(r.Context(), in), "product create failed")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminProductByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/products/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var in backend.ProductInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeMutation(w, s.dashboard.UpdateProduct(r.Context(), id, in), "product update failed")
	case http.MethodDelete:
		writeMutation(w, s.dashboard.DeleteProduct(r.Context(), id), "product delete failed")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminCategories(w http.ResponseWriter, r *http.Request, _ domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeList(w, s.dashboard.Categories())
	case http.MethodPost:
		var in backend.CategoryInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(in.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		writeMutation(w, s.dashboard.AddCategory(r.Context(), in), "category create failed")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminCategoryByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/categories/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var in backend.CategoryInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeMutation(w, s.dashboard.UpdateCategory(r.Context(), id, in), "category update failed")
	case http.MethodDelete:
		writeMutation(w, s.dashboard.DeleteCategory(r.Context(), id), "category delete failed")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeList(w, s.dashboard.Orders())
}

// /api/admin/orders/{id} or /api/admin/orders/{id}/status
func (s *Server) handleAdminOrderByID(w http.ResponseWriter, r *http.Request, _ domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/orders/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 {
		if parts[1] != "status" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		status, ok := parseOrderStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		writeMutation(w, s.dashboard.UpdateOrderStatus(r.Context(), id, status), "order status update failed")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	// Order deletion has no backend endpoint; the filter is local and
	// reverts on the next refresh.
	removed := s.dashboard.DeleteOrder(id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": removed, "localOnly": true})
}

func (s *Server) handleAdminCustomers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeList(w, s.dashboard.Customers())
}

func (s *Server) handleAdminUpload(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	key := util.NewID() + strings.ToLower(filepath.Ext(header.Filename))
	if err := s.images.Put(r.Context(), key, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		slog.Error("image upload failed", "err", err)
		writeError(w, http.StatusBadGateway, "image upload failed")
		return
	}
	url, err := s.images.URL(r.Context(), key)
	if err != nil {
		slog.Error("image url failed", "err", err)
		writeError(w, http.StatusBadGateway, "image upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": url})
}

// helpers

func decodeBody(r *http.Request, out any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out)
}

func parseOrderStatus(status string) (domain.OrderStatus, bool) {
	switch domain.OrderStatus(strings.ToLower(strings.TrimSpace(status))) {
	case domain.OrderPending:
		return domain.OrderPending, true
	case domain.OrderPaid:
		return domain.OrderPaid, true
	case domain.OrderShipped:
		return domain.OrderShipped, true
	case domain.OrderDelivered:
		return domain.OrderDelivered, true
	case domain.OrderCancelled:
		return domain.OrderCancelled, true
	default:
		return "", false
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// writeMutation maps the stores' boolean contract onto HTTP: the UI shows
// a toast either way and re-reads the snapshot.
func writeMutation(w http.ResponseWriter, ok bool, failMsg string) {
	if !ok {
		writeError(w, http.StatusBadGateway, failMsg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.Status, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "backend unavailable")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) allowLoginRate(w http.ResponseWriter, r *http.Request) bool {
	if s.loginLimiter == nil {
		return true
	}
	if s.loginLimiter.Allow(clientIP(r)) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many login attempts")
	return false
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("audit_event", logAttrs...)
		return
	}
	slog.Warn("audit_event", logAttrs...)
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
