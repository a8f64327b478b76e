package models

import "time"

// Guild groups users for shared combat and shared consequences.
type Guild struct {
	Name string `gorm:"primaryKey;type:text"` // Guild name, primary key.

	GuildLeader     *uint64 `gorm:"index"` // Current leader user ID.
	NextGuildLeader *uint64 // Designated successor, promoted on the next transition.

	Archived bool `gorm:"not null;default:false"` // Hidden from play when true.

	Members []User       `gorm:"foreignKey:GuildName"` // Member rows.
	Enemies []GuildEnemy `gorm:"foreignKey:GuildName"` // Dungeon combat targets.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// GuildEnemy is a dungeon combat target owned by a guild.
type GuildEnemy struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GuildName string `gorm:"type:text;not null;index"` // Owning guild.
	Name      string `gorm:"type:text;not null"`       // Enemy name.

	Health int `gorm:"not null"` // Remaining health.
	Attack int `gorm:"not null"` // Damage dealt per retaliation.
	XP     int `gorm:"not null"` // XP paid out on defeat.
	Gold   int `gorm:"not null"` // Gold paid out on defeat.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
