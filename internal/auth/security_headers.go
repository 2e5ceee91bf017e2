package auth

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// Pages load their styles and scripts from /static only. Inline styles stay
// allowed for the catalog templates.
var cspDirectives = []string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data:",
	"font-src 'self'",
	"connect-src 'self'",
	"object-src 'none'",
	"base-uri 'self'",
	"frame-ancestors 'none'",
}

// The catalog uses no device APIs.
var permissionsPolicy = strings.Join([]string{
	"accelerometer=()",
	"camera=()",
	"geolocation=()",
	"gyroscope=()",
	"magnetometer=()",
	"microphone=()",
	"payment=()",
	"usb=()",
}, ", ")

var fixedSecurityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"X-XSS-Protection":       "1; mode=block",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     permissionsPolicy,
}

// contentSecurityPolicy restricts form posts to this site. Behind a TLS
// proxy 'self' alone can reject the renewal and editor forms, so the
// request host is named as well.
func contentSecurityPolicy(host string) string {
	formAction := "form-action 'self'"
	if host != "" {
		formAction += " https://" + host
	}
	return strings.Join(append(cspDirectives[:len(cspDirectives):len(cspDirectives)], formAction), "; ")
}

// SecurityHeadersMiddleware sets the browser hardening headers on every response.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range fixedSecurityHeaders {
			c.Header(name, value)
		}
		c.Header("Content-Security-Policy", contentSecurityPolicy(c.Request.Host))
		c.Next()
	}
}

// StrictTransportSecurityMiddleware sends HSTS on requests that arrived over
// TLS, directly or through a proxy. Enable it only for HTTPS deployments.
func StrictTransportSecurityMiddleware(maxAge int) gin.HandlerFunc {
	value := fmt.Sprintf("max-age=%d; includeSubDomains", maxAge)
	return func(c *gin.Context) {
		if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
			c.Header("Strict-Transport-Security", value)
		}
		c.Next()
	}
}
