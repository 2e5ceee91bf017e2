package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyDemoMode holds the read-only flag for the layout banner.
	ContextKeyDemoMode = "demo_mode"

	blockedMessage = "The demo catalog is read-only: loans, renewals and edits are disabled"
)

// Visitors may still sign in and out of the seeded accounts.
var signInPaths = map[string]bool{
	"/login":  true,
	"/logout": true,
	"/setup":  true,
}

// Middleware keeps the demo catalog read-only.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled is safe on a nil Middleware.
func (m *Middleware) IsEnabled() bool {
	return m != nil && m.enabled
}

// Handler rejects every request that could change the catalog or a loan.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.IsEnabled() && changesState(c.Request) {
			respondBlocked(c)
			return
		}
		c.Next()
	}
}

// InjectContext exposes the flag to templates.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyDemoMode, m.IsEnabled())
		c.Next()
	}
}

func changesState(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	return !signInPaths[path]
}

func respondBlocked(c *gin.Context) {
	r := c.Request
	if strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("Authorization") != "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": blockedMessage, "demo_mode": true})
		return
	}
	c.String(http.StatusForbidden, blockedMessage)
	c.Abort()
}
