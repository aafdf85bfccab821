package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

// Actor identifies who performed an audited operation and through which request.
type Actor struct {
	AdminID       uint
	IPAddress     string
	UserAgent     string
	CorrelationID string
}

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

// Wait blocks until every event passed to LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCatalog records a change to the book catalog.
func (s *Service) LogCatalog(actor Actor, action string, bookID uint, description string, err error) {
	s.LogAsync(s.newEvent(actor, entities.AuditEventCatalog, action, "book", &bookID, description, nil, err))
}

// LogMembership records a change to a member record.
func (s *Service) LogMembership(actor Actor, action string, memberID uint, description string, err error) {
	s.LogAsync(s.newEvent(actor, entities.AuditEventMembership, action, "member", &memberID, description, nil, err))
}

// LogCirculation records a borrow or return. bookID and memberID go into the metadata.
func (s *Service) LogCirculation(actor Actor, action string, loanID uint, bookID, memberID uint, description string, err error) {
	metadata := map[string]any{
		"book_id": bookID,
	}
	if memberID > 0 {
		metadata["member_id"] = memberID
	}
	var entityID *uint
	if loanID > 0 {
		entityID = &loanID
	}
	s.LogAsync(s.newEvent(actor, entities.AuditEventCirculation, action, "loan", entityID, description, metadata, err))
}

// LogAuth records a login or logout attempt.
func (s *Service) LogAuth(actor Actor, action, username string, success bool) {
	event := s.newEvent(actor, entities.AuditEventAuth, action, "admin", nil, "", map[string]any{"username": username}, nil)
	if actor.AdminID > 0 {
		event.EntityID = &actor.AdminID
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogAccount records a change to the admin's own account.
func (s *Service) LogAccount(actor Actor, action, description string, err error) {
	s.LogAsync(s.newEvent(actor, entities.AuditEventAccount, action, "admin", &actor.AdminID, description, nil, err))
}

// LogMaintenance records a background housekeeping run.
func (s *Service) LogMaintenance(action string, affected int64, err error) {
	description := fmt.Sprintf("%d rows affected", affected)
	s.LogAsync(s.newEvent(Actor{}, entities.AuditEventMaintenance, action, "", nil, description, nil, err))
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func (s *Service) newEvent(actor Actor, eventType entities.AuditEventType, action, entityType string, entityID *uint, description string, metadata map[string]any, err error) *entities.AuditEvent {
	event := &entities.AuditEvent{
		AdminID:       actor.AdminID,
		EventType:     eventType,
		Action:        action,
		Description:   truncate(description, 500),
		EntityType:    entityType,
		EntityID:      entityID,
		CorrelationID: actor.CorrelationID,
		IPAddress:     actor.IPAddress,
		UserAgent:     truncate(actor.UserAgent, 500),
		Status:        entities.AuditStatusSuccess,
	}

	if len(metadata) > 0 {
		if mdBytes, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(mdBytes)
		}
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	return event
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
