package main

import (
	"blogicum/internal/auth"
	"blogicum/internal/config"
	"blogicum/internal/data"
	"blogicum/internal/handler"
	"blogicum/internal/logger"
	"blogicum/internal/metrics"
	"blogicum/internal/middleware"
	"blogicum/internal/service"
	"blogicum/internal/view"
	"blogicum/web"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	if err := cfg.Validate(); err != nil {
		log.Fatal(err, "Please set a secure BLOG_SESSION_SECRETKEY environment variable.")
	}

	// --- Database Initialization and Migration ---
	log.Info(fmt.Sprintf("Connecting to the %s database...", cfg.DB.Driver))
	db, err := data.NewDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	poolStats := metrics.NewPoolStatsCollector(db)
	poolStats.Start(15 * time.Second)
	defer poolStats.Stop()

	// --- Session Management Setup ---
	sessionManager := scs.New()
	if cfg.DB.Driver == data.DriverMySQL {
		sessionManager.Store = mysqlstore.New(db.DB)
	} else {
		sessionManager.Store = sqlite3store.New(db.DB)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	var provider handler.IdentityProvider
	if cfg.OIDC.Enabled() {
		authenticator, err := auth.NewAuthenticator(context.Background(), &cfg.OIDC)
		if err != nil {
			log.Fatal(err, "Failed to initialize authenticator")
		}
		provider = authenticator
	} else {
		log.Info("OIDC issuer not configured; single sign-on disabled.")
	}
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)
	log.Info("Auth components initialized and policies seeded.")

	// --- View Template Initialization ---
	log.Info("Initializing view templates...")
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		log.Fatal(err, "Failed to open static assets")
	}
	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		log.Fatal(err, "Failed to create media directory")
	}

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	postRepository := data.NewPostRepository(db)
	categoryRepository := data.NewCategoryRepository(db)
	locationRepository := data.NewLocationRepository(db)
	userRepository := data.NewUserRepository(db)
	commentRepository := data.NewCommentRepository(db)

	postService := service.NewPostService(postRepository, categoryRepository, locationRepository,
		userRepository, commentRepository, service.NewDiskImageStore(cfg.Media.Dir))
	commentService := service.NewCommentService(postRepository, commentRepository)
	accountService := service.NewAccountService(userRepository)

	// --- Router Setup ---
	router := handler.NewRouter(handler.RouterDeps{
		Blog:       handler.NewBlogHandler(postService, viewService, log, cfg.Media.MaxUploadMB),
		Comments:   handler.NewCommentHandler(commentService, postService, viewService, log),
		Auth:       handler.NewAuthHandler(accountService, sessionManager, provider, viewService, log),
		Seo:        handler.NewSeoHandler(postService, cfg.Server.BaseURL),
		Session:    sessionManager,
		LoadViewer: middleware.LoadViewer(sessionManager, accountService, log),
		Authorizer: middleware.Authorizer(enforcer, log),
		Errors:     middleware.Error(log, viewService),
		Log:        log,
		StaticFS:   staticFS,
		MediaDir:   cfg.Media.Dir,
	})

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
