package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"gorm.io/gorm"
)

// Outbox publish statuses for OutboxRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

const (
	OutboxEventOrderLineCommitted = "OrderLineCommitted"
	OutboxEventOrderLineRemoved   = "OrderLineRemoved"
	OutboxEventOrderStatusChanged = "OrderStatusChanged"
)

const (
	OutboxReferenceOrder     = "Order"
	OutboxReferenceOrderItem = "OrderItem"
)

// OutboxRecord is written in the same transaction as the change it
// describes. The dispatcher publishes it after commit.
type OutboxRecord struct {
	ID               int        `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventType        string     `gorm:"size:64;not null;index" json:"event_type"`
	ReferenceType    string     `gorm:"size:32;not null" json:"reference_type"`
	ReferenceId      int        `gorm:"not null;index" json:"reference_id"`
	Payload          []byte     `gorm:"type:blob" json:"payload"`
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnqueueOutbox writes the message record inside the caller's transaction but
// does NOT publish to Pub/Sub.
func EnqueueOutbox(ctx context.Context, tx *gorm.DB, eventType string, refType string, refId int, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := OutboxRecord{
		EventType:     eventType,
		ReferenceType: refType,
		ReferenceId:   refId,
		Payload:       data,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToPubSubMessage(record OutboxRecord) config.PubSubMessage {
	return config.PubSubMessage{
		ID:            record.ID,
		EventType:     record.EventType,
		OccurredAt:    record.CreatedAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: record.ReferenceType,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// RequeueDeadOutboxRecords moves DEAD rows back to PENDING with a fresh
// attempt budget. Returns the number of rows requeued.
func RequeueDeadOutboxRecords(ctx context.Context) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&OutboxRecord{}).
		Where("publish_status = ?", OutboxPublishStatusDead).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusPending,
			"publish_attempts":   0,
			"next_attempt_at":    nil,
			"last_publish_error": nil,
			"locked_at":          nil,
			"locked_by":          nil,
		})
	if result.Error != nil {
		return 0, utils.WrapDBError("requeue dead outbox records", "OutboxRecord", result.Error)
	}
	return result.RowsAffected, nil
}
