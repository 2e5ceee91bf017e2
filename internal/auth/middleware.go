package auth

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone      AuthType = "none"      // auth disabled, every permission granted
	AuthTypeAnonymous AuthType = "anonymous" // auth enabled, no credentials presented
	AuthTypeSession   AuthType = "session"
	AuthTypeBearer    AuthType = "bearer"
)

// DefaultUserID is used when authentication is disabled
const DefaultUserID = uint(0)

// catalogPagePattern matches book and author detail pages, which anyone may browse.
var catalogPagePattern = regexp.MustCompile(`^/(book|author)/[^/]+$`)

// Middleware identifies the caller of every request and keeps anonymous
// visitors on the public catalog pages.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
}

func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{service: service, sessionManager: sessionManager, config: cfg}
}

// Handler returns the middleware for the configured auth mode.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return func(c *gin.Context) {
			c.Set(ContextKeyUserID, DefaultUserID)
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if user, authType := m.resolveCaller(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
			c.Set(ContextKeyRole, user.Role)
			c.Set(ContextKeyAuthType, authType)
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, DefaultUserID)
		c.Set(ContextKeyAuthType, AuthTypeAnonymous)
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		m.rejectAnonymous(c)
	}
}

// resolveCaller prefers a valid bearer token over the session cookie.
func (m *Middleware) resolveCaller(c *gin.Context) (*entities.User, AuthType) {
	if token, ok := bearerToken(c); ok {
		if user, err := m.service.ValidateToken(token); err == nil {
			return user, AuthTypeBearer
		}
	}

	if m.sessionManager == nil {
		return nil, AuthTypeAnonymous
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil, AuthTypeAnonymous
	}
	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil, AuthTypeAnonymous
	}
	return user, AuthTypeSession
}

func (m *Middleware) rejectAnonymous(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
	c.Abort()
}

// LoginURL builds the login page address that returns to next afterwards.
func LoginURL(next string) string {
	return "/login?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

func isPublicPath(path string) bool {
	switch path {
	case "/", "/books", "/authors", "/health", "/ping", "/login", "/setup", "/favicon.ico":
		return true
	}
	return strings.HasPrefix(path, "/static/") || catalogPagePattern.MatchString(path)
}

func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// isAPIRequest tells JSON clients from browsers. Any Authorization header
// counts, so a rejected token gets JSON rather than the login page.
func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json") ||
		c.GetHeader("Authorization") != ""
}

// RequireAuth admits any signed-in user.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			m.rejectAnonymous(c)
			return
		}
		c.Next()
	}
}

// RequirePermission sends anonymous callers to login and answers 403 to
// signed-in users whose role lacks perm.
func (m *Middleware) RequirePermission(perm entities.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch {
		case !IsAuthenticated(c):
			m.rejectAnonymous(c)
			return
		case HasPermission(c, perm):
			c.Next()
			return
		case isAPIRequest(c):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		default:
			c.AbortWithStatus(http.StatusForbidden)
		}
	}
}

func contextValue[T any](c *gin.Context, key string, fallback T) T {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	return fallback
}

// GetUserID returns DefaultUserID for anonymous callers and with auth disabled.
func GetUserID(c *gin.Context) uint {
	return contextValue(c, ContextKeyUserID, DefaultUserID)
}

func GetUsername(c *gin.Context) string {
	return contextValue(c, ContextKeyUsername, "")
}

func GetUserRole(c *gin.Context) entities.UserRole {
	return contextValue(c, ContextKeyRole, entities.UserRole(""))
}

// GetAuthType treats requests that never passed through Handler as anonymous.
func GetAuthType(c *gin.Context) AuthType {
	return contextValue(c, ContextKeyAuthType, AuthTypeAnonymous)
}

func IsAuthenticated(c *gin.Context) bool {
	return GetAuthType(c) != AuthTypeAnonymous
}

// HasPermission reports whether the caller holds perm. With auth disabled
// every permission is granted.
func HasPermission(c *gin.Context, perm entities.Permission) bool {
	switch GetAuthType(c) {
	case AuthTypeNone:
		return true
	case AuthTypeAnonymous:
		return false
	}
	return GetUserRole(c).HasPermission(perm)
}
