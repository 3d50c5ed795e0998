package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"gorm.io/gorm"
)

// Publish statuses for OutboxMessage.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

const (
	EventAuditPlanCreated          = "AuditPlanCreated"
	EventAuditPlanCompleted        = "AuditPlanCompleted"
	EventCorrectiveActionAssigned  = "CorrectiveActionAssigned"
	EventCorrectiveActionCompleted = "CorrectiveActionCompleted"
)

// OutboxMessage is written in the same transaction as the change it announces
// and published to Pub/Sub afterwards by the dispatcher.
type OutboxMessage struct {
	ID               int        `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	BusinessId       string     `gorm:"size:64;not null;index" json:"business_id"`
	EventType        string     `gorm:"size:64;not null;index" json:"event_type"`
	ReferenceType    string     `gorm:"size:64;not null" json:"reference_type"`
	ReferenceId      int        `gorm:"not null" json:"reference_id"`
	Payload          []byte     `gorm:"type:blob" json:"payload"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func writeOutbox(ctx context.Context, tx *gorm.DB, businessId string, eventType string, referenceType string, referenceId int, payload any) error {
	if !config.OutboxEnabled() {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := OutboxMessage{
		BusinessId:    businessId,
		EventType:     eventType,
		ReferenceType: referenceType,
		ReferenceId:   referenceId,
		Payload:       data,
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}
	return tx.Create(&msg).Error
}

// actorName is the display name of the session user, then the login name.
func actorName(ctx context.Context) string {
	if name, ok := utils.GetUserNameFromContext(ctx); ok && name != "" {
		return name
	}
	name, _ := utils.GetUsernameFromContext(ctx)
	return name
}

func ConvertToAuditEvent(record OutboxMessage) config.AuditEvent {
	return config.AuditEvent{
		ID:            record.ID,
		BusinessId:    record.BusinessId,
		EventType:     record.EventType,
		ReferenceType: record.ReferenceType,
		ReferenceId:   record.ReferenceId,
		OccurredAt:    record.CreatedAt,
		Payload:       json.RawMessage(record.Payload),
		CorrelationId: record.CorrelationId,
	}
}

// ReplayOutboxMessages puts FAILED and DEAD rows of a business back to PENDING.
func ReplayOutboxMessages(ctx context.Context, db *gorm.DB, businessId string, includeDead bool) (int64, error) {
	statuses := []string{OutboxPublishStatusFailed}
	if includeDead {
		statuses = append(statuses, OutboxPublishStatusDead)
	}
	res := db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("business_id = ? AND publish_status IN ?", businessId, statuses).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusPending,
			"publish_attempts":   0,
			"next_attempt_at":    nil,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	return res.RowsAffected, res.Error
}
