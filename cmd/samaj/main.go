// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/samajhub/samaj-go/internal/cache"
	"github.com/samajhub/samaj-go/internal/config"
	"github.com/samajhub/samaj-go/internal/geoip"
	"github.com/samajhub/samaj-go/internal/handler"
	"github.com/samajhub/samaj-go/internal/imaging"
	"github.com/samajhub/samaj-go/internal/logging"
	"github.com/samajhub/samaj-go/internal/middleware"
	"github.com/samajhub/samaj-go/internal/scheduler"
	"github.com/samajhub/samaj-go/internal/store"
	"github.com/samajhub/samaj-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Samaj - Community Platform API Server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SAMAJ_DB_PATH          SQLite database path (default: ./data/samaj.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SAMAJ_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SAMAJ_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SAMAJ_UPLOADS_DIR      Uploaded media directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SAMAJ_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SAMAJ_GEOIP_DB_PATH    GeoLite2-Country.mmdb path for login geo events (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("samaj %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	buildInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data and uploads directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Seed master data and the default admin account
	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// GeoIP lookup for login events (optional)
	var geo *geoip.Lookup
	if cfg.GeoIPEnabled() {
		geo = geoip.NewLookup()
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "path", cfg.GeoIPDBPath, "error", err)
			geo = nil
		} else {
			slog.Info("geoip lookup enabled", "path", cfg.GeoIPDBPath)
		}
	}

	// Master-data cache: redis when configured, memory otherwise
	cacheConfig := cache.CacheConfig{
		Type:            "memory",
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = "redis"
	}
	backend, err := cache.NewCache(cacheConfig)
	if err != nil {
		slog.Warn("cache backend unavailable, falling back to memory",
			"url", cache.SanitizeRedisURL(cfg.RedisURL), "error", err)
		backend = cache.NewDefaultCache()
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	master := cache.NewMasterDataCache(store.New(db), backend, cacheConfig.DefaultTTL)
	if err := master.Preload(ctx); err != nil {
		slog.Warn("master data preload failed", "error", err)
	}
	slog.Info("master data cache initialized", "backend", cacheConfig.Type)

	// Start maintenance jobs
	sched := scheduler.New(db, logger, geo)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Login protection: per-IP rate limit plus account lockout
	loginShield := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	h := handler.NewHandler(db, cfg, master, geo, imaging.NewProcessor(cfg.UploadsDir), loginShield)
	healthHandler := handler.NewHealthHandler(db, cfg.UploadsDir, buildInfo)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Compress())
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)

	// Health check routes (more detail for authenticated callers)
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalTokenAuth(db))
		r.Get("/health", healthHandler.Health)
	})
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Auth routes (public, rate limited)
	// Defense-in-depth: authRateLimiter plus loginShield lockout on credential posts
	authRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.With(loginShield.Middleware()).Post("/register", h.Register)
		r.With(loginShield.Middleware()).Post("/login", h.Login)
		r.Post("/store-phone", h.StorePhone)
		r.With(loginShield.Middleware()).Post("/complete-profile", h.CompleteProfile)
		r.Post("/refresh-token", h.RefreshToken)
		r.With(middleware.TokenAuth(db)).Post("/logout", h.Logout)
	})

	// Global API rate limit for everything below
	apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)

	// Profile routes (bearer token required, per-user rate limit on top
	// of the per-IP one)
	r.Route("/api/users", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(middleware.TokenAuth(db))
		r.Use(middleware.UserRateLimit(50, 100))
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Delete("/profile", h.DeleteProfile)
		r.Post("/profile/picture", h.UploadProfilePicture)
	})

	// Master data routes (public, cached)
	r.Route("/api/master-data", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Get("/states", h.ListStates)
		r.Get("/states/{id}/districts", h.ListDistricts)
		r.Get("/districts/{id}/tahsils", h.ListTahsils)
		r.Get("/professions", h.ListProfessions)
		r.Get("/location-hierarchy", h.LocationHierarchy)
	})
	r.With(apiRateLimiter.Middleware()).Get("/api/analytics", h.Analytics)

	// Blog routes: public reads, token-protected writes
	r.Route("/api/blog", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/search", h.SearchPosts)
		r.With(middleware.OptionalTokenAuth(db)).Get("/posts/{id}", h.GetPost)
		r.Get("/users/{id}/posts", h.ListUserPosts)
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(db))
			r.Use(middleware.UserRateLimit(50, 100))
			r.Post("/posts", h.CreatePost)
			r.Put("/posts/{id}", h.UpdatePost)
			r.Delete("/posts/{id}", h.DeletePost)
		})
	})

	// Admin and moderation routes (role gated)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(middleware.TokenAuth(db))
		r.Use(middleware.UserRateLimit(50, 100))
		r.With(middleware.RequireModerator()).Get("/events", h.ListEvents)
		r.With(middleware.RequireAdmin()).Post("/master-data/refresh", h.RefreshMasterData)
	})

	// Serve uploaded avatars
	uploadsHandler := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Handle("/uploads/*", uploadsHandler)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if geo != nil {
		if err := geo.Close(); err != nil {
			slog.Error("error closing geoip database", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}
