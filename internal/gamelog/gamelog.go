// Package gamelog appends audit entries and emits best-effort notifications.
package gamelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one audit log record before persistence.
type Entry struct {
	UserID    *uint64
	Message   string
	Global    bool
	Debug     bool
	RequestID string
	Details   map[string]any
}

// Append writes an audit entry using the provided handle.
//
// Callers pass their transaction handle so the entry commits or rolls back
// with the state change it documents.
func Append(tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("gamelog: nil transaction")
	}

	row := models.Log{
		UserID:    entry.UserID,
		Message:   entry.Message,
		Global:    entry.Global,
		Debug:     entry.Debug,
		RequestID: entry.RequestID,
		CreatedAt: time.Now().UTC(),
	}
	if len(entry.Details) > 0 {
		payload, errMarshal := json.Marshal(entry.Details)
		if errMarshal != nil {
			return fmt.Errorf("gamelog: marshal details: %w", errMarshal)
		}
		row.Details = datatypes.JSON(payload)
	}

	if errCreate := tx.Create(&row).Error; errCreate != nil {
		return fmt.Errorf("gamelog: append: %w", errCreate)
	}
	return nil
}

// Notifier broadcasts system messages outside the engine's transactions.
type Notifier struct {
	db *gorm.DB
}

// NewNotifier constructs a Notifier.
func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// Broadcast creates a SystemMessage. Emission is best-effort: failures are
// logged and never propagated, so they cannot turn a committed state change
// into a reported failure.
func (n *Notifier) Broadcast(ctx context.Context, title, content string) {
	if n == nil || n.db == nil {
		return
	}
	row := models.SystemMessage{Title: title, Content: content}
	if errCreate := n.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithField("title", title).Warn("gamelog: failed to broadcast system message")
	}
}

// MarkRead records that a user acknowledged a message. Repeated calls are
// no-ops thanks to the unique (message_id, user_id) index.
func (n *Notifier) MarkRead(ctx context.Context, messageID, userID uint64) error {
	if n == nil || n.db == nil {
		return fmt.Errorf("gamelog: notifier not initialized")
	}
	row := models.SystemMessageRead{MessageID: messageID, UserID: userID}
	errCreate := n.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		FirstOrCreate(&row).Error
	if errCreate != nil {
		return fmt.Errorf("gamelog: mark read: %w", errCreate)
	}
	return nil
}

// Unread returns the messages the user has not acknowledged yet.
func (n *Notifier) Unread(ctx context.Context, userID uint64) ([]models.SystemMessage, error) {
	if n == nil || n.db == nil {
		return nil, fmt.Errorf("gamelog: notifier not initialized")
	}
	var rows []models.SystemMessage
	errFind := n.db.WithContext(ctx).
		Where("id NOT IN (?)", n.db.Model(&models.SystemMessageRead{}).
			Select("message_id").
			Where("user_id = ?", userID)).
		Order("id ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("gamelog: unread: %w", errFind)
	}
	return rows, nil
}
