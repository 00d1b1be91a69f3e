// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
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

	"github.com/olegiv/muthawwif-go/internal/analytics"
	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/config"
	"github.com/olegiv/muthawwif-go/internal/handler"
	"github.com/olegiv/muthawwif-go/internal/handler/api"
	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/logging"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/scheduler"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/session"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/version"
	"github.com/olegiv/muthawwif-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// crudHandlers defines the standard admin CRUD handler methods.
type crudHandlers struct {
	List     http.HandlerFunc
	NewForm  http.HandlerFunc
	Create   http.HandlerFunc
	EditForm http.HandlerFunc
	Update   http.HandlerFunc
	Delete   http.HandlerFunc
	Bulk     http.HandlerFunc
}

// registerCRUD registers standard admin routes for a resource.
// Routes: GET /, GET /new, POST /, GET /{id}, POST /{id}, POST /{id}/delete, POST /bulk
func registerCRUD(r chi.Router, base string, h crudHandlers) {
	baseID := base + handler.RouteParamID
	r.Get(base, h.List)
	r.Get(base+handler.RouteSuffixNew, h.NewForm)
	r.Post(base, h.Create)
	r.Post(base+handler.RouteSuffixBulk, h.Bulk)
	r.Get(baseID, h.EditForm)
	r.Post(baseID, h.Update) // HTML forms can't send PUT
	r.Post(baseID+"/delete", h.Delete)
}

// registerFrontendRoutes registers the public marketing pages.
func registerFrontendRoutes(r chi.Router, h *handler.FrontendHandler) {
	r.Get(handler.RouteRoot, h.Home)
	r.Get(handler.RouteAbout, h.About)
	r.Get(handler.RouteBlog, h.Blog)
	r.Get(handler.RouteBlog+handler.RouteParamSlug, h.Post)
	r.Get(handler.RouteProducts, h.Products)
	r.Get(handler.RouteProducts+handler.RouteParamSlug, h.Product)
	r.Get(handler.RouteContact, h.Contact)
}

// registerAPIRoutes mounts the JSON API. Bearer tokens identify callers.
func registerAPIRoutes(r chi.Router, h *api.Handler, issuer *auth.TokenIssuer, queries *store.Queries) {
	r.Get(handler.RouteRoot, h.Status)

	r.Get("/posts", h.Posts)
	r.Get("/posts/{slug}", h.Post)
	r.Post("/posts/{id}/views", h.RecordPostView)
	r.Get("/products", h.Products)
	r.Get("/products/{slug}", h.Product)
	r.Get("/categories", h.Categories)
	r.Get("/settings/public", h.PublicSettings)

	r.Post("/auth/signin", h.SignIn)
	r.Post("/auth/signup", h.SignUp)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(issuer, queries))
		r.Get("/auth/session", h.Session)
		r.Get("/purchases", h.MyPurchases)
		r.Post("/purchases", h.CreatePurchase)
		r.Get("/purchases/check/{productID}", h.CheckPurchase)
	})
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "muthawwif - Hajj and Umrah guide site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_SESSION_SECRET     Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_DB_DRIVER          sqlite|sqlite3|mysql|postgres (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_DB_DSN             Database DSN (default: ./data/muthawwif.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_REDIS_URL          Redis URL for shared caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_TRUSTED_ORIGINS    Extra host[:port] origins allowed to post forms (comma separated)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MTW_JWT_SECRET         API token signing key (defaults to the session secret)\n")
	}

	flag.Parse()

	info := version.Resolve(version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime})

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if cfg.IsSQLite() && cfg.DBDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, store.DefaultDBConfig())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready", "dialect", db.Dialect)

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger = slog.New(logging.NewEventLogHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}), db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.DoSeed {
		if err := store.Seed(ctx, db, store.SeedOptions{
			AdminEmail:    cfg.OwnerEmail,
			AdminPassword: cfg.OwnerPassword,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	queries := store.New(db)

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized", "sqlite_store", db.Dialect == store.DialectSQLite)

	appCache := cache.Open(ctx, cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheDefaultTTL(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	defer func() { _ = appCache.Close() }()

	settingsCache := cache.NewSettingsCache(appCache, queries)
	if _, err := settingsCache.Public(ctx); err != nil {
		slog.Warn("failed to preload settings", "error", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		SessionManager: sessionManager,
		Settings:       settingsCache,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	eventService := service.NewEventService(queries)

	broker := auth.NewBroker(64)
	go eventService.RecordSessionEvents(ctx, broker.Subscribe(ctx))

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginPolicy())
	accounts := service.NewAccountService(queries, eventService, loginProtection, broker)
	issuer := auth.NewTokenIssuer(string(cfg.TokenSecret()), 24*time.Hour)

	analyticsService := analytics.NewService(queries, appCache, cfg.AnalyticsTTL(), logger)
	tracker := listing.NewTracker()

	// 10 requests per second with burst of 20 per IP
	publicRateLimiter := middleware.NewRateLimiter(10.0, 20)
	apiRateLimiter := middleware.NewRateLimiter(20.0, 40)

	sched := scheduler.New(queries, logger)
	if err := scheduler.RegisterCoreJobs(sched, scheduler.Deps{
		Queries:            queries,
		Events:             eventService,
		Analytics:          analyticsService,
		Tracker:            tracker,
		Limiter:            apiRateLimiter,
		LoginProtection:    loginProtection,
		PendingPurchaseTTL: time.Duration(cfg.PendingPurchaseTTL) * time.Hour,
		EventRetention:     time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
		Logger:             logger,
	}); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Handlers
	frontendHandler := handler.NewFrontendHandler(db, renderer)
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, accounts)
	adminHandler := handler.NewAdminHandler(db, renderer, analyticsService)
	postsHandler := handler.NewPostsHandler(db, renderer, eventService)
	productsHandler := handler.NewProductsHandler(db, renderer, eventService)
	usersHandler := handler.NewUsersHandler(db, renderer, eventService)
	purchasesHandler := handler.NewPurchasesHandler(db, renderer, eventService, analyticsService)
	consultationsHandler := handler.NewConsultationsHandler(db, renderer)
	settingsHandler := handler.NewSettingsHandler(db, renderer, settingsCache, eventService)
	eventsHandler := handler.NewEventsHandler(db, renderer)
	cacheHandler := handler.NewCacheHandler(renderer, appCache, settingsCache, analyticsService, eventService)
	schedulerHandler := handler.NewSchedulerHandler(renderer, sched.Registry(), eventService)
	healthHandler := handler.NewHealthHandler(db, appCache, info)
	apiHandler := api.NewHandler(api.Config{
		DB:       db,
		Accounts: accounts,
		Issuer:   issuer,
		Tracker:  tracker,
		Settings: settingsCache,
		Events:   eventService,
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadUser(sessionManager, queries))

	// CSRF protection is global; the bearer-token API is exempted first
	r.Use(middleware.SkipCSRF("/api/"))
	r.Use(middleware.CSRF([]byte(cfg.SessionSecret), middleware.CSRFOptions{
		TrustedOrigins: middleware.TrustedOrigins(cfg.IsDevelopment(), cfg.ServerPort, cfg.TrustedOrigins),
	}))
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Health check routes (details only for admins)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public pages
	registerFrontendRoutes(r, frontendHandler)
	r.With(publicRateLimiter.HTMLMiddleware()).Post(handler.RouteContact, frontendHandler.SubmitContact)

	// Auth routes
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.HTMLMiddleware())
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.Post(handler.RouteRegister, authHandler.Register)
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get(handler.RouteProfile, authHandler.Profile)
			r.Post(handler.RouteProfile, authHandler.UpdateProfile)
		})
	})

	// Admin routes
	r.Route(handler.RouteAdmin, func(r chi.Router) {
		r.Use(middleware.NoStore)

		// Content management (admin + owner)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireContentManager(eventService))

			r.Get(handler.RouteRoot, adminHandler.Dashboard)
			r.Get(handler.RouteAnalytics, adminHandler.Analytics)
			r.Get(handler.RouteAnalytics+".json", adminHandler.AnalyticsJSON)

			registerCRUD(r, handler.RoutePosts, crudHandlers{
				List: postsHandler.List, NewForm: postsHandler.NewForm, Create: postsHandler.Create,
				EditForm: postsHandler.EditForm, Update: postsHandler.Update, Delete: postsHandler.Delete,
				Bulk: postsHandler.Bulk,
			})
			r.Post(handler.RoutePosts+handler.RouteParamID+handler.RouteSuffixStatus, postsHandler.ToggleStatus)

			registerCRUD(r, handler.RouteProducts, crudHandlers{
				List: productsHandler.List, NewForm: productsHandler.NewForm, Create: productsHandler.Create,
				EditForm: productsHandler.EditForm, Update: productsHandler.Update, Delete: productsHandler.Delete,
				Bulk: productsHandler.Bulk,
			})
			r.Post(handler.RouteProducts+handler.RouteParamID+"/active", productsHandler.ToggleActive)
			r.Post(handler.RouteProducts+handler.RouteParamID+"/featured", productsHandler.ToggleFeatured)

			r.Get(handler.RoutePurchases, purchasesHandler.List)
			r.Post(handler.RoutePurchases+handler.RouteParamID+handler.RouteSuffixStatus, purchasesHandler.UpdateStatus)

			r.Get(handler.RouteConsultations, consultationsHandler.List)
			r.Post(handler.RouteConsultations+handler.RouteParamID+handler.RouteSuffixStatus, consultationsHandler.UpdateStatus)
		})

		// Account and system management (admin only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUserManager(eventService))

			r.Get(handler.RouteUsers, usersHandler.List)
			r.Post(handler.RouteUsers+handler.RouteSuffixBulk, usersHandler.Bulk)
			r.Post(handler.RouteUsers+handler.RouteParamID+"/role", usersHandler.ChangeRole)
			r.Post(handler.RouteUsers+handler.RouteParamID+"/active", usersHandler.SetActive)

			r.Get(handler.RouteSettings, settingsHandler.Edit)
			r.Post(handler.RouteSettings+"/{key}", settingsHandler.Save)

			r.Get(handler.RouteEvents, eventsHandler.List)

			r.Get(handler.RouteCache, cacheHandler.Stats)
			r.Post(handler.RouteCache+"/clear", cacheHandler.Clear)
			r.Post(handler.RouteCache+"/clear/settings", cacheHandler.ClearSettings)
			r.Post(handler.RouteCache+"/clear/analytics", cacheHandler.ClearAnalytics)

			r.Get(handler.RouteScheduler, schedulerHandler.List)
			r.Post(handler.RouteScheduler+"/{name}/schedule", schedulerHandler.UpdateSchedule)
			r.Post(handler.RouteScheduler+"/{name}/reset", schedulerHandler.ResetSchedule)
			r.Post(handler.RouteScheduler+"/{name}/trigger", schedulerHandler.TriggerNow)
		})
	})

	// JSON API (bearer tokens, no CSRF)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		registerAPIRoutes(r, apiHandler, issuer, queries)
	})

	// Static assets: cache for 1 year (31536000 seconds)
	staticHandler := middleware.StaticCache(31536000)(http.StripPrefix("/static/dist/", http.FileServer(http.FS(web.Static()))))
	r.Handle("/static/dist/*", staticHandler)

	r.NotFound(renderer.NotFound)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second, // Reduced from 120s to mitigate slowloris attacks
		MaxHeaderBytes:    1 << 20,          // 1MB max header size
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
