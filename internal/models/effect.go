package models

import "time"

// Passive scopes. Cosmic-scoped passives are cleared when the event rotates.
const (
	PassiveScopePermanent = "permanent"
	PassiveScopeCosmic    = "cosmic"
)

// Well-known passive kinds.
const (
	PassiveEvaded      = "evaded"
	PassiveTwistOfFate = "twist_of_fate"
)

// EffectOnUser is a timed effect instance created by a cast.
//
// Expiry is lazy: read paths sweep expired rows before querying, there is no
// background timer.
type EffectOnUser struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID     uint64 `gorm:"not null;index"`     // Affected user.
	AbilityID  uint64 `gorm:"not null"`           // Ability that created the effect.
	EffectType string `gorm:"type:text;not null"` // Behavior tag of the source ability.

	EndTime time.Time `gorm:"not null;index"` // Instant the effect stops applying.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// UserPassive is a flag-style marker gating reuse of one-per-period abilities.
//
// The unique (user_id, kind) index makes Set idempotent and lets the store
// serialize concurrent check-then-set races.
type UserPassive struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_user_passive"`           // Marked user.
	Kind   string `gorm:"type:text;not null;uniqueIndex:idx_user_passive"` // Passive kind.

	CosmicEvent bool `gorm:"not null;default:false"` // Scoped to the current cosmic event.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
