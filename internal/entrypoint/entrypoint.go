package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/cache"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	auditrepo "github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/database/reports"
	"github.com/mrlokans/locallibrary/internal/database/users"
	"github.com/mrlokans/locallibrary/internal/demo"
	http_controllers "github.com/mrlokans/locallibrary/internal/http"
	"github.com/mrlokans/locallibrary/internal/scheduler"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, plain kill sends SIGTERM; SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Local Library v%s", version)

	var demoMiddleware *demo.Middleware
	var demoCleanup func()
	if cfg.Demo.Enabled {
		log.Printf("Demo mode: the catalog is read-only")
		demoMiddleware = demo.NewMiddleware(true)
		demoCleanup = prepareDemoDatabase(cfg)
	}

	db, err := database.Open(cfg.Database, logger.Info)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB: %v", err)
	}

	authorsRepo := authors.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	loansRepo := loans.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)
	reportsRepo := reports.NewRepository(sqlDB, db.Driver)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	statsCache, err := cache.NewStatsCache(cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		// The index falls back to live counts
		log.Printf("WARNING: Redis cache unavailable: %v", err)
		statsCache = nil
	} else if statsCache != nil {
		log.Printf("Index counts cached in Redis for %v", cfg.Cache.TTL)
		defer statsCache.Close()
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var overdueScheduler *scheduler.OverdueScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(taskQueueBasePath(cfg), taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueScanQueue(loansRepo, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Overdue.Enabled {
			overdueScheduler = scheduler.NewOverdueScheduler(taskClient, cfg.Overdue.Schedule, cfg.Audit.RetentionDays)
			if err := overdueScheduler.Start(taskCtx); err != nil {
				log.Fatalf("Failed to start overdue scheduler: %v", err)
			}
		}
	} else if cfg.Overdue.Enabled {
		log.Printf("WARNING: overdue scan needs the task queue; set TASKS_ENABLED=true to enable it")
	}

	// Sessions also carry the visit counter, so they run in every auth mode
	sessionManager, err := auth.NewSessionManager(sqlDB, db.Driver, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(usersRepo, cfg.Auth)
		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. Visit /setup to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (every visitor is a librarian)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:           db,
		Authors:            authorsRepo,
		Books:              booksRepo,
		Loans:              loansRepo,
		Reports:            reportsRepo,
		StatsCache:         statsCache,
		Audit:              auditService,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		AuthService:        authService,
		AuthMiddleware:     authMiddleware,
		SessionManager:     sessionManager,
		AuthConfig:         cfg.Auth,
		CSRFSecret:         csrfSecret,
		SecureCookies:      cfg.Auth.SecureCookies,
		DemoMiddleware:     demoMiddleware,
		APIRateLimit:       cfg.API.RateLimit,
		APIRateBurst:       cfg.API.RateBurst,
		TemplatesPath:      cfg.UI.TemplatesPath,
		StaticPath:         cfg.UI.StaticPath,
		PageSize:           cfg.Catalog.PageSize,
		Version:            version,
	}
	// A nil *tasks.Client must not become a non-nil interface
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if overdueScheduler != nil {
			overdueScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
		if demoCleanup != nil {
			demoCleanup()
		}
	}

	Serve(router, cfg, onShutdown)
}

// taskQueueBasePath names the SQLite file the queue database sits next to.
// A Postgres catalog has no file, so the configured SQLite path is used.
func taskQueueBasePath(cfg *config.Config) string {
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	return config.DefaultDatabasePath
}

// prepareDemoDatabase builds a seeded SQLite catalog in a temporary directory
// and points cfg at it. Postgres catalogs are served as they are.
func prepareDemoDatabase(cfg *config.Config) func() {
	if cfg.Database.Driver == config.DatabaseDriverPostgres {
		return nil
	}

	tempDir, err := os.MkdirTemp("", "locallibrary-demo-*")
	if err != nil {
		log.Fatalf("Failed to create temp directory for demo database: %v", err)
	}

	dbPath := filepath.Join(tempDir, "demo.db")
	result, err := demo.BuildDatabase(dbPath, cfg.Auth.BcryptCost, time.Now())
	if err != nil {
		os.RemoveAll(tempDir)
		log.Fatalf("Failed to build demo database: %v", err)
	}

	log.Printf("Demo catalog at %s: %d books, %d copies, %d on loan",
		dbPath, result.Books, result.Instances, result.Loans)
	log.Printf("Sign in as %q or %q with password %q",
		demo.LibrarianUsername, demo.ReaderUsername, demo.AccountPassword)

	cfg.Database.Path = dbPath

	return func() {
		log.Printf("Cleaning up demo database from %s", tempDir)
		os.RemoveAll(tempDir)
	}
}
