package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentEvent records a processed provider notification so redeliveries can be skipped.
type PaymentEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Provider  string `gorm:"type:text;not null;uniqueIndex:idx_payment_events_provider_key,priority:1"` // Payment provider name.
	EventKey  string `gorm:"type:text;not null;uniqueIndex:idx_payment_events_provider_key,priority:2"` // Provider event or payment identifier.
	EventType string `gorm:"type:text;not null"`                                                        // Provider event type.

	UserID  *uint64        `gorm:"index"` // Affected user, when resolved.
	Payload datatypes.JSON // Raw notification body.

	ProcessedAt time.Time `gorm:"not null"` // Processing timestamp.
}
