package http

import (
	"time"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/cache"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/demo"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Catalog storage
	Database *database.Database
	Authors  AuthorStore
	Books    BookStore
	Loans    LoanStore
	Reports  ReportStore

	// Optional Redis cache for the index counts
	StatsCache *cache.StatsCache

	// Audit log (optional)
	Audit AuditLogger

	// Task queue client (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Demo mode
	DemoMiddleware *demo.Middleware

	// Per-client API throttling; a zero rate disables it
	APIRateLimit float64
	APIRateBurst int

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Items per list page
	PageSize int

	// Application info
	Version string

	// Today returns the current calendar day; defaults to entities.Today
	Today func() time.Time
}
