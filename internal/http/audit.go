package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	auditrepo "github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const auditPageSize = 25

var auditEventTypes = []entities.AuditEventType{
	entities.AuditEventCreate,
	entities.AuditEventUpdate,
	entities.AuditEventDelete,
	entities.AuditEventLoan,
	entities.AuditEventOverdue,
	entities.AuditEventAuth,
}

// AuditController shows librarians who changed the catalog.
type AuditController struct {
	audit AuditLogger
}

func NewAuditController(auditLog AuditLogger) *AuditController {
	return &AuditController{audit: auditLog}
}

// auditFilter reads ?type= and ?entity= into a repository filter. Unknown
// event types are ignored.
func auditFilter(c *gin.Context) auditrepo.Filter {
	filter := auditrepo.Filter{EntityType: c.Query("entity")}
	if eventType := entities.AuditEventType(c.Query("type")); lo.Contains(auditEventTypes, eventType) {
		filter.EventType = eventType
	}
	return filter
}

// AuditLogPage renders the audit log UI.
// GET /audit
func (ac *AuditController) AuditLogPage(c *gin.Context) {
	filter := auditFilter(c)
	events, page, ok := listPage(c, auditPageSize, func(limit, offset int) ([]entities.AuditEvent, int64, error) {
		return ac.audit.ListEvents(filter, limit, offset)
	}, "list audit events")
	if !ok {
		return
	}

	render(c, http.StatusOK, "audit", gin.H{
		"Title":      "Audit log",
		"Events":     events,
		"Pagination": page,
		"EventType":  string(filter.EventType),
		"EntityType": filter.EntityType,
		"EventTypes": auditEventTypes,
	})
}

// GetAuditEvents returns paginated audit events as JSON.
// GET /api/audit?limit=&offset=&type=&entity=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit := parseLimitQuery(c, auditPageSize, 100)
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		respondBadRequest(c, "invalid offset")
		return
	}

	events, total, err := ac.audit.ListEvents(auditFilter(c), limit, offset)
	if err != nil {
		respondInternalError(c, err, "api audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}
