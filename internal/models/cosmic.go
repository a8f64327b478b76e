package models

import "time"

// CosmicEvent is a catalog row describing a periodic global modifier.
//
// At most one row has SelectedForVg1 set at a time, and likewise for
// SelectedForVg2; the selector maintains the invariant transactionally.
type CosmicEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null;uniqueIndex"` // Unique event name.
	Description string `gorm:"type:text"`                      // Display text.

	Recommended    bool `gorm:"not null;default:false"` // Advisory flag, non-exclusive.
	Selected       bool `gorm:"not null;default:false"` // Selected for any group.
	SelectedForVg1 bool `gorm:"not null;default:false"` // Active for the Vg1 group.
	SelectedForVg2 bool `gorm:"not null;default:false"` // Active for the Vg2 group.

	GrantsAbilityID *uint64 // Ability granted to affected users, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
