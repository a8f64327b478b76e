package db

import (
	"fmt"
	"strconv"

	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	internalsettings "github.com/jonp-h/TillerQuest-sub003/internal/settings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema and seeds default settings.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Guild{},
		&models.GuildEnemy{},
		&models.User{},
		&models.Ability{},
		&models.UserAbility{},
		&models.EffectOnUser{},
		&models.UserPassive{},
		&models.CosmicEvent{},
		&models.Log{},
		&models.SystemMessage{},
		&models.SystemMessageRead{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}
	warnAmbiguousAbilities(conn)
	return nil
}

// ensureDefaultSettings inserts missing tunables without touching existing rows.
func ensureDefaultSettings(conn *gorm.DB) error {
	defaults := map[string]int{
		internalsettings.XPMultiplierKey:       internalsettings.DefaultXPMultiplier,
		internalsettings.LevelXPStepKey:        internalsettings.DefaultLevelXPStep,
		internalsettings.GemstonesOnLevelUpKey: internalsettings.DefaultGemstonesOnLevelUp,
		internalsettings.MinResurrectionHPKey:  internalsettings.DefaultMinResurrectionHP,
		internalsettings.ResurrectionDamageKey: internalsettings.DefaultResurrectionDamage,
		internalsettings.GuildMaxMembersKey:    internalsettings.DefaultGuildMaxMembers,
		internalsettings.DailyManaKey:          internalsettings.DefaultDailyMana,
		internalsettings.DailyTurnsKey:         internalsettings.DefaultDailyTurns,
	}
	for key, value := range defaults {
		var count int64
		if errCount := conn.Model(&models.Setting{}).Where("key = ?", key).Count(&count).Error; errCount != nil {
			return fmt.Errorf("db: check setting %s: %w", key, errCount)
		}
		if count > 0 {
			continue
		}
		row := models.Setting{Key: key, Value: strconv.Itoa(value)}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: seed setting %s: %w", key, errCreate)
		}
	}
	return nil
}

// warnAmbiguousAbilities flags catalog rows carrying both a static value and a
// dice notation. The static value wins at cast time; both being set is likely
// a data entry mistake.
func warnAmbiguousAbilities(conn *gorm.DB) {
	var rows []models.Ability
	if errFind := conn.
		Where("value IS NOT NULL AND dice_notation IS NOT NULL AND dice_notation <> ''").
		Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Warn("db: ability catalog check failed")
		return
	}
	for _, row := range rows {
		log.WithField("ability", row.Name).Warn("db: ability has both value and dice notation; value takes precedence")
	}
}
