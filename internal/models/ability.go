package models

import "time"

// Ability behavior tags. The engine dispatches on these.
const (
	AbilityTypeHeal        = "heal"
	AbilityTypeDamage      = "damage"
	AbilityTypeBuff        = "buff"
	AbilityTypeXP          = "xp"
	AbilityTypeGold        = "gold"
	AbilityTypeTurns       = "turns"
	AbilityTypeEvade       = "evade"
	AbilityTypeTwistOfFate = "twist_of_fate"
)

// Resources an ability can cost.
const (
	ResourceMana  = "mana"
	ResourceTurns = "turns"
	ResourceGold  = "gold"
)

// Target cardinalities.
const (
	TargetSelf   = "self"
	TargetSingle = "single"
	TargetGuild  = "guild"
	TargetAll    = "all"
)

// Ability is an immutable catalog entry describing one castable ability.
type Ability struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null;uniqueIndex"` // Unique ability name.
	Category string `gorm:"type:text"`                      // Display grouping.
	Type     string `gorm:"type:text;not null"`             // Behavior tag (AbilityType*).

	Value        *int    `gorm:"type:integer"` // Static effect value; wins over DiceNotation.
	DiceNotation *string `gorm:"type:text"`    // Dice grammar, e.g. "2d8+3".

	Cost         int    `gorm:"not null;default:0"`                 // Resource cost.
	CostResource string `gorm:"type:text;not null;default:'mana'"`  // Which resource the cost deducts.
	XPGiven      int    `gorm:"not null;default:0"`                 // XP awarded on cast.
	Duration     int    `gorm:"not null;default:0"`                 // Effect duration in minutes, 0 = instant.
	Target       string `gorm:"type:text;not null;default:'self'"`  // Target cardinality.
	IsDungeon    bool   `gorm:"not null;default:false"`             // Usable only against guild enemies.
	GuildOnly    bool   `gorm:"not null;default:false"`             // Targets must share the actor's guild.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// UserAbility records ownership of an ability by a user.
type UserAbility struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID    uint64 `gorm:"not null;index;uniqueIndex:idx_user_ability"` // Owning user.
	AbilityID uint64 `gorm:"not null;uniqueIndex:idx_user_ability"`       // Owned ability.

	Ability *Ability `gorm:"foreignKey:AbilityID"` // Catalog row.

	FromCosmic bool `gorm:"not null;default:false"` // Granted by a cosmic event, removable en masse.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
