package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const contextKeyAuthTemplateData = "auth_template_data"

// AuthTemplateData holds authentication info for templates.
type AuthTemplateData struct {
	Enabled         bool   // Whether auth is enabled (AuthModeLocal)
	LoggedIn        bool   // Whether user is logged in
	Username        string // Current user's username (empty if not logged in)
	Role            string
	CSRFToken       string // CSRF token for forms (empty when CSRF is off)
	CanMarkReturned bool
	CanEditCatalog  bool
}

// AuthContextMiddleware injects authentication data into Gin context for templates.
// Templates can access auth data via .Auth in the template data.
func AuthContextMiddleware(authMode config.AuthMode) gin.HandlerFunc {
	authEnabled := authMode == config.AuthModeLocal

	return func(c *gin.Context) {
		authData := AuthTemplateData{
			Enabled:         authEnabled,
			CSRFToken:       auth.GetCSRFToken(c),
			CanMarkReturned: auth.HasPermission(c, entities.PermissionMarkReturned),
			CanEditCatalog:  auth.HasPermission(c, entities.PermissionEditCatalog),
		}

		if authEnabled && auth.IsAuthenticated(c) {
			authData.LoggedIn = true
			authData.Username = auth.GetUsername(c)
			authData.Role = string(auth.GetUserRole(c))
		}

		c.Set(contextKeyAuthTemplateData, authData)
		c.Next()
	}
}

// GetAuthTemplateData retrieves auth data from context for use in templates.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	if data, exists := c.Get(contextKeyAuthTemplateData); exists {
		if authData, ok := data.(AuthTemplateData); ok {
			return authData
		}
	}
	return AuthTemplateData{}
}
