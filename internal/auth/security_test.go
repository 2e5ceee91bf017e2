package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSanitizeRedirectPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "/"},
		{"/", "/"},
		{"/mybooks", "/mybooks"},
		{"/borrowed?page=2", "/borrowed?page=2"},
		{"/book/7/renew", "/book/7/renew"},
		{"/catalog/book/3", "/catalog/book/3"},
		{"//evil.example", "/"},
		{"https://evil.example/books", "/"},
		{"/https://evil.example", "/"},
		{"/books\\..\\admin", "/"},
		{"\\evil.example", "/"},
		{"javascript:alert(1)", "/"},
		{"books", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeRedirectPath(tt.input); got != tt.want {
				t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if local := isLocalPath(tt.input); local != (tt.want == tt.input) {
				t.Errorf("isLocalPath(%q) = %v", tt.input, local)
			}
		})
	}
}

func TestRateLimiter_LoginAttempts(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
	})
	defer rl.Stop()

	const desk = "10.0.0.5"
	for i := 0; i < 3; i++ {
		if allowed, _ := rl.Allow(desk, "reader"); !allowed {
			t.Fatalf("attempt %d blocked", i+1)
		}
		rl.RecordFailure(desk, "reader")
	}

	allowed, retryAfter := rl.Allow(desk, "reader")
	if allowed || retryAfter <= 0 {
		t.Errorf("after 3 failures Allow() = %v, %v; want blocked with a retry delay", allowed, retryAfter)
	}
	if allowed, _ := rl.Allow(desk, "librarian"); !allowed {
		t.Error("a lockout for one account must not block another")
	}
	if allowed, _ := rl.Allow("10.0.0.6", "reader"); !allowed {
		t.Error("a lockout from one address must not block another")
	}
}

func TestRateLimiter_SuccessClearsFailures(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
	})
	defer rl.Stop()

	rl.RecordFailure("10.0.0.5", "librarian")
	rl.RecordSuccess("10.0.0.5", "librarian")
	rl.RecordFailure("10.0.0.5", "librarian")

	if allowed, _ := rl.Allow("10.0.0.5", "librarian"); !allowed {
		t.Error("a successful login must reset the failure count")
	}
}

func serveHeaders(t *testing.T, handler gin.HandlerFunc, req *http.Request) http.Header {
	t.Helper()
	router := gin.New()
	router.Use(handler)
	router.GET("/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr.Header()
}

func TestSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Host = "library.example"
	headers := serveHeaders(t, SecurityHeadersMiddleware(), req)

	for name, want := range fixedSecurityHeaders {
		if got := headers.Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if !strings.Contains(headers.Get("Permissions-Policy"), "camera=()") {
		t.Errorf("Permissions-Policy = %q", headers.Get("Permissions-Policy"))
	}

	csp := headers.Get("Content-Security-Policy")
	for _, directive := range []string{
		"default-src 'self'",
		"frame-ancestors 'none'",
		"object-src 'none'",
		"form-action 'self' https://library.example",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("Content-Security-Policy %q lacks %q", csp, directive)
		}
	}
}

func TestContentSecurityPolicy_WithoutHost(t *testing.T) {
	csp := contentSecurityPolicy("")
	if !strings.HasSuffix(csp, "form-action 'self'") {
		t.Errorf("contentSecurityPolicy(\"\") = %q", csp)
	}
	if again := contentSecurityPolicy("a.example"); strings.Count(again, "form-action") != 1 {
		t.Errorf("directives leaked between calls: %q", again)
	}
}

func TestStrictTransportSecurity(t *testing.T) {
	const want = "max-age=31536000; includeSubDomains"

	tests := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{"plain http", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/books", nil)
		}, ""},
		{"direct tls", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/books", nil)
			req.TLS = &tls.ConnectionState{}
			return req
		}, want},
		{"tls proxy", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/books", nil)
			req.Header.Set("X-Forwarded-Proto", "HTTPS")
			return req
		}, want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := serveHeaders(t, StrictTransportSecurityMiddleware(31536000), tt.req())
			if got := headers.Get("Strict-Transport-Security"); got != tt.want {
				t.Errorf("Strict-Transport-Security = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccountFieldPatterns(t *testing.T) {
	usernames := []struct {
		value string
		valid bool
	}{
		{"librarian", true},
		{"front_desk-2", true},
		{"ab", false},
		{"reader.one", false},
		{"reader one", false},
		{strings.Repeat("r", 64), true},
		{strings.Repeat("r", 65), false},
	}
	for _, tt := range usernames {
		if got := usernamePattern.MatchString(tt.value); got != tt.valid {
			t.Errorf("username %q valid = %v, want %v", tt.value, got, tt.valid)
		}
	}

	emails := []struct {
		value string
		valid bool
	}{
		{"reader@library.example", true},
		{"front.desk+loans@city.example", true},
		{"reader", false},
		{"@library.example", false},
		{"reader@", false},
		{"reader@.example", false},
		{"reader@library", false},
	}
	for _, tt := range emails {
		if got := emailPattern.MatchString(tt.value); got != tt.valid {
			t.Errorf("email %q valid = %v, want %v", tt.value, got, tt.valid)
		}
	}
}
