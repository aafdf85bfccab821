package entities

import "time"

type AuditEventType string

const (
	AuditEventCatalog     AuditEventType = "catalog"
	AuditEventMembership  AuditEventType = "membership"
	AuditEventCirculation AuditEventType = "circulation"
	AuditEventAuth        AuditEventType = "auth"
	AuditEventAccount     AuditEventType = "account"
	AuditEventMaintenance AuditEventType = "maintenance"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AdminID       uint           `gorm:"index" json:"admin_id"`
	EventType     AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action        string         `gorm:"size:100" json:"action"`      // e.g., "book_add", "loan_return"
	Description   string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType    string         `gorm:"size:50" json:"entity_type"`  // "book", "member", "loan"
	EntityID      *uint          `gorm:"index" json:"entity_id,omitempty"`
	Metadata      string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	CorrelationID string         `gorm:"index;size:36" json:"correlation_id,omitempty"`
	IPAddress     string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent     string         `gorm:"size:500" json:"user_agent,omitempty"`
	Status        AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg      string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
