package models

import "time"

// SchoolClass identifies the class group a user belongs to.
const (
	SchoolClassVg1 = "vg1"
	SchoolClassVg2 = "vg2"
)

// User represents a player account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Name     string `gorm:"type:text"`                      // Display name.

	HP      int `gorm:"not null;default:40"` // Current hit points.
	HPMax   int `gorm:"not null;default:40"` // Hit point cap.
	Mana    int `gorm:"not null;default:40"` // Current mana.
	ManaMax int `gorm:"not null;default:40"` // Mana cap.

	Gold        int `gorm:"not null;default:0"` // Gold balance.
	Gemstones   int `gorm:"not null;default:0"` // Gemstone balance.
	ArenaTokens int `gorm:"not null;default:0"` // Arena token balance.

	XP    int `gorm:"not null;default:0"` // Accumulated experience.
	Level int `gorm:"not null;default:1"` // Current level.
	Turns int `gorm:"not null;default:0"` // Remaining game actions today.

	LastMana time.Time // Last daily mana/turn regeneration.

	GuildName   *string `gorm:"type:text;index"`          // Guild membership, nil when guildless.
	Guild       *Guild  `gorm:"foreignKey:GuildName"`     // Guild row.
	Class       string  `gorm:"type:text"`                // Role-playing class.
	SchoolClass string  `gorm:"type:text;not null;index"` // Class group (vg1/vg2).
	Title       string  `gorm:"type:text"`                // Earned title.
	TitleRarity string  `gorm:"type:text"`                // Rarity tier of the title.

	Abilities []UserAbility `gorm:"foreignKey:UserID"` // Owned abilities.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Alive reports whether the user can act.
func (u *User) Alive() bool { return u.HP > 0 }
