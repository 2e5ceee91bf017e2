// Package audit records who changed the catalog and when.
package audit

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// Entity types recorded on events.
const (
	EntityAuthor       = "author"
	EntityBook         = "book"
	EntityBookInstance = "book_instance"
	EntityUser         = "user"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event %s: %v", event.Action, err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync is written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCreate records the creation of a catalog entity.
func (s *Service) LogCreate(userID uint, entityType, entityID, name string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCreate,
		Action:      entityType + "_create",
		Description: truncate("Created "+entityType+": "+name, 500),
		EntityType:  entityType,
		EntityID:    entityID,
	})
}

// LogUpdate records an edit of a catalog entity.
func (s *Service) LogUpdate(userID uint, entityType, entityID, name string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventUpdate,
		Action:      entityType + "_update",
		Description: truncate("Updated "+entityType+": "+name, 500),
		EntityType:  entityType,
		EntityID:    entityID,
	})
}

// LogDelete records a deletion. A non-nil err marks the attempt as failed.
func (s *Service) LogDelete(userID uint, entityType, entityID, name string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: truncate("Deleted "+entityType+": "+name, 500),
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogRenew records a librarian extending a loan.
func (s *Service) LogRenew(userID uint, instanceID uuid.UUID, title string, dueBack time.Time) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLoan,
		Action:      "book_instance_renew",
		Description: truncate("Renewed "+title+" until "+dueBack.Format("2006-01-02"), 500),
		EntityType:  EntityBookInstance,
		EntityID:    instanceID.String(),
		Metadata:    encodeMetadata(map[string]any{"due_back": dueBack.Format("2006-01-02")}),
	})
}

// LogReturn records a borrowed copy being marked as returned.
func (s *Service) LogReturn(userID uint, instanceID uuid.UUID, title string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLoan,
		Action:      "book_instance_return",
		Description: truncate("Returned "+title, 500),
		EntityType:  EntityBookInstance,
		EntityID:    instanceID.String(),
	})
}

// OverdueAction is the action recorded by LogOverdue.
const OverdueAction = "book_instance_overdue"

// LogOverdue synchronously records that a copy was found overdue.
func (s *Service) LogOverdue(instance entities.BookInstance, daysOverdue int) error {
	var borrowerID uint
	if instance.BorrowerID != nil {
		borrowerID = *instance.BorrowerID
	}
	return s.repo.LogEvent(&entities.AuditEvent{
		UserID:      borrowerID,
		EventType:   entities.AuditEventOverdue,
		Action:      OverdueAction,
		Description: truncate(instance.Book.Title+" is overdue", 500),
		EntityType:  EntityBookInstance,
		EntityID:    instance.ID.String(),
		Metadata: encodeMetadata(map[string]any{
			"days_overdue": daysOverdue,
			"due_back":     formatDay(instance.DueBack),
		}),
	})
}

// WasOverdueLoggedSince reports whether LogOverdue already ran for the
// copy at or after since.
func (s *Service) WasOverdueLoggedSince(instanceID uuid.UUID, since time.Time) (bool, error) {
	return s.repo.HasEventSince(OverdueAction, instanceID.String(), since)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: EntityUser,
		IPAddress:  ipAddr,
		UserAgent:  truncate(userAgent, 500),
		Status:     entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// ListEvents retrieves paginated audit events.
func (s *Service) ListEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func encodeMetadata(fields map[string]any) string {
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(fields)
	if err != nil {
		return ""
	}
	return truncate(string(raw), 2000)
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
