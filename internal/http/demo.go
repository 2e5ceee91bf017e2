package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/demo"
)

// DemoTemplateData drives the read-only banner in base.html.
type DemoTemplateData struct {
	Enabled bool
}

func GetDemoTemplateData(c *gin.Context) DemoTemplateData {
	return DemoTemplateData{Enabled: c.GetBool(demo.ContextKeyDemoMode)}
}

type DemoController struct {
	middleware *demo.Middleware
}

func NewDemoController(middleware *demo.Middleware) *DemoController {
	return &DemoController{middleware: middleware}
}

type DemoStatusResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// GetStatus answers GET /api/demo/status.
func (dc *DemoController) GetStatus(c *gin.Context) {
	resp := DemoStatusResponse{Message: "The catalog accepts loans and edits"}
	if dc.middleware.IsEnabled() {
		resp = DemoStatusResponse{Enabled: true, Message: "The demo catalog is read-only"}
	}
	c.JSON(http.StatusOK, resp)
}
