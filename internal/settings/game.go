package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/jonp-h/TillerQuest-sub003/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GameConfig is a snapshot of the game tunables.
type GameConfig struct {
	XPMultiplier       int
	LevelXPStep        int
	GemstonesOnLevelUp int
	MinResurrectionHP  int
	ResurrectionDamage int
	GuildMaxMembers    int
	DailyMana          int
	DailyTurns         int
}

// DefaultGameConfig returns the built-in defaults.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		XPMultiplier:       DefaultXPMultiplier,
		LevelXPStep:        DefaultLevelXPStep,
		GemstonesOnLevelUp: DefaultGemstonesOnLevelUp,
		MinResurrectionHP:  DefaultMinResurrectionHP,
		ResurrectionDamage: DefaultResurrectionDamage,
		GuildMaxMembers:    DefaultGuildMaxMembers,
		DailyMana:          DefaultDailyMana,
		DailyTurns:         DefaultDailyTurns,
	}
}

// LoadGameConfig reads the game tunables from the settings table, falling back
// to defaults for missing or unparseable rows.
func LoadGameConfig(ctx context.Context, db *gorm.DB) GameConfig {
	cfg := DefaultGameConfig()
	if db == nil {
		return cfg
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Warn("settings: failed to load game config, using defaults")
		return cfg
	}

	for _, row := range rows {
		value, okParse := parsePositiveInt(row.Value)
		if !okParse {
			continue
		}
		switch row.Key {
		case XPMultiplierKey:
			cfg.XPMultiplier = value
		case LevelXPStepKey:
			cfg.LevelXPStep = value
		case GemstonesOnLevelUpKey:
			cfg.GemstonesOnLevelUp = value
		case MinResurrectionHPKey:
			cfg.MinResurrectionHP = value
		case ResurrectionDamageKey:
			cfg.ResurrectionDamage = value
		case GuildMaxMembersKey:
			cfg.GuildMaxMembers = value
		case DailyManaKey:
			cfg.DailyMana = value
		case DailyTurnsKey:
			cfg.DailyTurns = value
		}
	}
	return cfg
}

// SettingValue reads a single raw setting value.
func SettingValue(ctx context.Context, db *gorm.DB, key string) (string, bool) {
	if db == nil || strings.TrimSpace(key) == "" {
		return "", false
	}
	var row models.Setting
	if errFind := db.WithContext(ctx).Where("key = ?", key).Take(&row).Error; errFind != nil {
		return "", false
	}
	return row.Value, true
}

func parsePositiveInt(raw string) (int, bool) {
	parsed, errParse := strconv.Atoi(strings.TrimSpace(raw))
	if errParse != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
