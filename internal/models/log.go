package models

import (
	"time"

	"gorm.io/datatypes"
)

// Log is an append-only audit record. Rows are never updated or deleted.
type Log struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID *uint64 `gorm:"index"` // Scoped user, nil for global entries.

	Message string `gorm:"type:text;not null"`     // Human-readable summary.
	Global  bool   `gorm:"not null;default:false"` // Visible outside the user's scope.
	Debug   bool   `gorm:"not null;default:false"` // Diagnostic-only entry.

	Details   datatypes.JSON `gorm:"type:jsonb"` // Structured payload (targets, rolls, deltas).
	RequestID string         `gorm:"type:text"`  // Correlates entries from one request.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// SystemMessage is a broadcast notification.
type SystemMessage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title   string `gorm:"type:text;not null"` // Short subject line.
	Content string `gorm:"type:text"`          // Body text.

	Reads []SystemMessageRead `gorm:"foreignKey:MessageID"` // Per-user acknowledgements.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// SystemMessageRead marks a message as read by one user.
type SystemMessageRead struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	MessageID uint64 `gorm:"not null;uniqueIndex:idx_message_reader"` // Acknowledged message.
	UserID    uint64 `gorm:"not null;uniqueIndex:idx_message_reader"` // Acknowledging user.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Read timestamp.
}
