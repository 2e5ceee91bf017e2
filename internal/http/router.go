package http

import (
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gedex/inflector"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/forms"
)

const hstsMaxAge = 365 * 24 * 60 * 60

// templateFuncs are available to every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": forms.FormatDate,
		"day": func(t time.Time) string {
			return t.Format(forms.DateLayout)
		},
		"dueIn": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return humanize.Time(*t)
		},
		"timeAgo": humanize.Time,
		"comma":   humanize.Comma,
		"pluralize": pluralize,
		"statusClass": func(s entities.LoanStatus) string {
			switch s {
			case entities.LoanStatusAvailable:
				return "text-success"
			case entities.LoanStatusMaintenance:
				return "text-danger"
			default:
				return "text-warning"
			}
		},
		"add":      func(a, b int) int { return a + b },
		"subtract": func(a, b int) int { return a - b },
	}
}

// pluralize renders "1 copy" or "3 copies". n is any integer type.
func pluralize(n any, singular string) string {
	var count int64
	switch v := n.(type) {
	case int:
		count = int64(v)
	case int64:
		count = v
	case uint:
		count = int64(v)
	}
	if count == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%s %s", humanize.Comma(count), inflector.Pluralize(singular))
}

// routeGuard wraps the auth middleware's per-route checks. Without an auth
// middleware every route is open.
type routeGuard struct {
	middleware *auth.Middleware
}

func (g routeGuard) signedIn() gin.HandlerFunc {
	if g.middleware == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return g.middleware.RequireAuth()
}

func (g routeGuard) permission(perm entities.Permission) gin.HandlerFunc {
	if g.middleware == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return g.middleware.RequirePermission(perm)
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = config.DefaultPageSize
	}
	if cfg.Today == nil {
		cfg.Today = entities.Today
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Sessions carry the login and the home page visit counter
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	router.Use(AuthContextMiddleware(cfg.AuthConfig.Mode))

	if cfg.DemoMiddleware != nil && cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.InjectContext())
		router.Use(cfg.DemoMiddleware.Handler())
	}

	tmpl := template.Must(template.New("").Funcs(templateFuncs()).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	router.Static("/static", cfg.StaticPath)

	guard := routeGuard{middleware: cfg.AuthMiddleware}
	canEdit := guard.permission(entities.PermissionEditCatalog)
	canReturn := guard.permission(entities.PermissionMarkReturned)

	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() && cfg.SessionManager != nil {
		var events auth.EventLogger
		if cfg.Audit != nil {
			events = cfg.Audit
		}
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.TemplatesPath, cfg.AuthConfig, events)
		authController.RegisterRoutes(router)

		profile := NewProfileController(cfg.AuthService, cfg.Loans)
		router.GET("/profile", guard.signedIn(), profile.ProfilePage)
		router.POST("/profile/password", guard.signedIn(), profile.ChangePassword)
		router.POST("/profile/token", guard.signedIn(), profile.GenerateToken)
		router.POST("/profile/token/revoke", guard.signedIn(), profile.RevokeToken)
	}

	stats := catalogStats{
		books:   cfg.Books,
		authors: cfg.Authors,
		loans:   cfg.Loans,
		cache:   cfg.StatsCache,
	}

	health := NewHealthController(cfg.Database, cfg.StatsCache, cfg.Version)
	index := NewIndexController(stats, cfg.Books, cfg.SessionManager)
	books := NewBooksController(cfg.Books, cfg.Authors, cfg.Audit, stats, cfg.PageSize)
	authors := NewAuthorsController(cfg.Authors, cfg.Audit, stats, cfg.PageSize)
	loans := NewLoansController(cfg.Loans, cfg.Audit, stats, cfg.PageSize, cfg.Today)
	api := NewAPIController(stats, cfg.Books, cfg.Reports, cfg.Today)
	demoController := NewDemoController(cfg.DemoMiddleware)

	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	router.GET("/", index.Index)

	router.GET("/books", books.List)
	router.GET("/book/create", canEdit, books.CreatePage)
	router.POST("/book/create", canEdit, books.Create)
	router.GET("/book/:id", books.Detail)
	router.GET("/book/:id/update", canEdit, books.UpdatePage)
	router.POST("/book/:id/update", canEdit, books.Update)
	router.GET("/book/:id/delete", canEdit, books.DeletePage)
	router.POST("/book/:id/delete", canEdit, books.Delete)
	router.GET("/book/:id/renew", canReturn, loans.RenewPage)
	router.POST("/book/:id/renew", canReturn, loans.Renew)

	router.GET("/authors", authors.List)
	router.GET("/author/create", canEdit, authors.CreatePage)
	router.POST("/author/create", canEdit, authors.Create)
	router.GET("/author/:id", authors.Detail)
	router.GET("/author/:id/update", canEdit, authors.UpdatePage)
	router.POST("/author/:id/update", canEdit, authors.Update)
	router.GET("/author/:id/delete", canEdit, authors.DeletePage)
	router.POST("/author/:id/delete", canEdit, authors.Delete)

	router.GET("/mybooks", guard.signedIn(), loans.MyBooks)
	router.GET("/borrowed", canReturn, loans.Borrowed)
	router.POST("/bookinstance/:id/return", canReturn, loans.Return)

	apiGroup := router.Group("/api")
	apiGroup.Use(auth.NewClientLimiter(cfg.APIRateLimit, cfg.APIRateBurst).Middleware())
	apiGroup.GET("/stats", api.Stats)
	apiGroup.GET("/books", api.SearchBooks)
	apiGroup.GET("/loans/overdue", canReturn, api.OverdueLoans)
	apiGroup.GET("/demo/status", demoController.GetStatus)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		router.GET("/audit", canReturn, auditController.AuditLogPage)
		apiGroup.GET("/audit", canReturn, auditController.GetAuditEvents)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		apiGroup.GET("/tasks/types", canReturn, tasksController.ListTaskTypes)
		apiGroup.GET("/tasks/:id", canReturn, tasksController.GetTaskStatus)
		apiGroup.POST("/tasks/:id/run", canReturn, tasksController.RunTask)
	}

	router.NoRoute(renderNotFound)

	return router
}
