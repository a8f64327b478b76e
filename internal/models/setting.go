package models

import "time"

// Setting stores one key/value tunable.
type Setting struct {
	Key   string `gorm:"primaryKey;type:text"` // Setting key.
	Value string `gorm:"type:text;not null"`   // Serialized value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
