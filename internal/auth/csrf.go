package auth

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const (
	CSRFTemplateField = "csrfField"
	CSRFTokenHeader   = "X-CSRF-Token"

	csrfFormField       = "gorilla.csrf.Token"
	contextKeyCSRFToken = "csrf_token"
	csrfExpiredMessage  = "This form has expired. Please submit it again."
)

// CSRFMiddleware guards every unsafe request made with the session cookie:
// checkouts, renewals, returns and catalog edits. API clients that present a
// valid bearer token are exempt. Without secure the request is treated as
// plain HTTP and the Referer check is skipped. A nil authService accepts any
// bearer header unchecked.
func CSRFMiddleware(secret []byte, secure bool, authService *Service) gin.HandlerFunc {
	protect := csrf.Protect(secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.FieldName(csrfFormField),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if hasValidBearer(c, authService) {
			c.Next()
			return
		}
		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Set(contextKeyCSRFToken, csrf.Token(r))
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, req)
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"missing or invalid CSRF token"}`))
		return
	}

	if back, ok := withErrorParam(r.Referer(), csrfExpiredMessage); ok {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Form expired</title></head>
<body>
<h1>Form expired</h1>
<p>` + csrfExpiredMessage + `</p>
<p><a href="/">Back to the library</a></p>
</body>
</html>`))
}

// withErrorParam sends a rejected form back to the page it came from, with
// the message the page renders from its error query parameter.
func withErrorParam(referer, message string) (string, bool) {
	if referer == "" {
		return "", false
	}
	u, err := url.Parse(referer)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set("error", message)
	u.RawQuery = q.Encode()
	return u.String(), true
}

func hasValidBearer(c *gin.Context, authService *Service) bool {
	token, ok := bearerToken(c)
	switch {
	case !ok:
		return false
	case authService == nil:
		return true
	}
	_, err := authService.ValidateToken(token)
	return err == nil
}

// GetCSRFToken returns the token for the current request, or "" outside
// CSRFMiddleware.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(contextKeyCSRFToken)
}

func CSRFTokenField(c *gin.Context) template.HTML {
	token := GetCSRFToken(c)
	if token == "" {
		return ""
	}
	return template.HTML(`<input type="hidden" name="` + csrfFormField + `" value="` + template.HTMLEscapeString(token) + `">`)
}
