package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jawad226/EchoMart-sub000/internal/backend"
	"github.com/jawad226/EchoMart-sub000/internal/cart"
	"github.com/jawad226/EchoMart-sub000/internal/config"
	"github.com/jawad226/EchoMart-sub000/internal/dashboard"
	"github.com/jawad226/EchoMart-sub000/internal/server"
	"github.com/jawad226/EchoMart-sub000/internal/session"
	"github.com/jawad226/EchoMart-sub000/internal/storage"
	"github.com/jawad226/EchoMart-sub000/internal/store"
	"github.com/jawad226/EchoMart-sub000/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	cookieCfg := session.CookieConfig{
		Name:   cfg.SessionCookieName,
		Secure: cfg.SessionCookieSecure,
		MaxAge: time.Duration(cfg.SessionCookieMaxAgeSecs) * time.Second,
	}

	cartRepo, sessionRepo, err := buildRepositories(cfg, dataDir)
	if err != nil {
		log.Fatalf("failed to init persistence: %v", err)
	}

	cartStore := cart.NewStore(cartRepo, cart.ParsePolicy(cfg.CartDecrementPolicy))
	cartStore.Hydrate()
	sessionStore := session.NewStore(sessionRepo)
	sessionStore.Hydrate()

	client := backend.NewClient(cfg.BackendBaseURL)
	dashboardStore := dashboard.NewStore(client, sessionStore)

	images, uploadsDir, err := buildImageStore(cfg, dataDir)
	if err != nil {
		log.Fatalf("failed to init image storage: %v", err)
	}

	httpServer, err := server.New(server.Config{
		Backend:                 client,
		Cart:                    cartStore,
		Session:                 sessionStore,
		Dashboard:               dashboardStore,
		Images:                  images,
		UploadsDir:              uploadsDir,
		Cookie:                  cookieCfg,
		RedisAddr:               cfg.RedisAddr,
		RedisPassword:           cfg.RedisPassword,
		LoginRateLimitPerMinute: cfg.LoginRateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	// Warm the dashboard snapshot; failures just leave it empty until the
	// next refresh.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	dashboardStore.Refresh(ctx)
	cancel()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("storefront listening", "addr", addr, "backend", cfg.BackendBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

// buildRepositories picks the persistence backend: postgres when a database
// URL is set, redis when an address is set, otherwise JSON files under the
// data directory.
func buildRepositories(cfg config.FileConfig, dataDir string) (cart.Repository, session.Repository, error) {
	if cfg.DatabaseURL != "" {
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return gs.CartRepository(), gs.SessionRepository(), nil
	}
	if cfg.RedisAddr != "" {
		ttl := 24 * time.Hour
		if cfg.SessionCookieMaxAgeSecs > 0 {
			ttl = time.Duration(cfg.SessionCookieMaxAgeSecs) * time.Second
		}
		return cart.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword),
			session.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, ttl), nil
	}
	cartRepo, err := cart.NewFileRepository(dataDir)
	if err != nil {
		return nil, nil, err
	}
	sessionRepo, err := session.NewFileRepository(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return cartRepo, sessionRepo, nil
}

// buildImageStore returns MinIO storage when configured, otherwise a local
// directory served at /uploads/.
func buildImageStore(cfg config.FileConfig, dataDir string) (storage.ObjectStore, string, error) {
	if cfg.MinioEndpoint != "" {
		ms, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, "", err
		}
		return ms, "", nil
	}
	uploadsDir := filepath.Join(dataDir, "uploads")
	fs, err := storage.NewFileStore(uploadsDir)
	if err != nil {
		return nil, "", err
	}
	return fs, uploadsDir, nil
}
