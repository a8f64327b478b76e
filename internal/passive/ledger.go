// Package passive tracks per-user passive flags and timed effects.
package passive

import (
	"fmt"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger reads and writes passive markers and timed effects.
//
// Every method takes the caller's handle, which may be a transaction, so
// check-then-set sequences inherit the surrounding transaction's isolation.
type Ledger struct{}

// NewLedger constructs a Ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Has reports whether the user carries the passive.
func (l *Ledger) Has(tx *gorm.DB, userID uint64, kind string) (bool, error) {
	var count int64
	errCount := tx.Model(&models.UserPassive{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Count(&count).Error
	if errCount != nil {
		return false, fmt.Errorf("passive: has: %w", errCount)
	}
	return count > 0, nil
}

// Set marks the passive and reports whether this call created it.
//
// Setting an already-set passive is a no-op, not an error. The unique
// (user_id, kind) index resolves concurrent setters: exactly one insert wins
// and the loser observes created=false.
func (l *Ledger) Set(tx *gorm.DB, userID uint64, kind, scope string) (bool, error) {
	row := models.UserPassive{
		UserID:      userID,
		Kind:        kind,
		CosmicEvent: scope == models.PassiveScopeCosmic,
	}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("passive: set: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Clear removes the user's passives in the given scope.
func (l *Ledger) Clear(tx *gorm.DB, userID uint64, scope string) error {
	query := tx.Where("user_id = ?", userID)
	switch scope {
	case models.PassiveScopeCosmic:
		query = query.Where("cosmic_event = ?", true)
	case models.PassiveScopePermanent:
		query = query.Where("cosmic_event = ?", false)
	default:
		return fmt.Errorf("passive: unknown scope %q", scope)
	}
	if errDelete := query.Delete(&models.UserPassive{}).Error; errDelete != nil {
		return fmt.Errorf("passive: clear: %w", errDelete)
	}
	return nil
}

// AddEffect records a timed effect ending after the given duration.
func (l *Ledger) AddEffect(tx *gorm.DB, userID, abilityID uint64, effectType string, duration time.Duration) error {
	row := models.EffectOnUser{
		UserID:     userID,
		AbilityID:  abilityID,
		EffectType: effectType,
		EndTime:    time.Now().UTC().Add(duration),
	}
	if errCreate := tx.Create(&row).Error; errCreate != nil {
		return fmt.Errorf("passive: add effect: %w", errCreate)
	}
	return nil
}

// PurgeExpired deletes effect rows whose end time has passed.
//
// Expiry is lazy: there is no background timer, read paths call this first.
func (l *Ledger) PurgeExpired(tx *gorm.DB, now time.Time) error {
	if errDelete := tx.Where("end_time <= ?", now.UTC()).
		Delete(&models.EffectOnUser{}).Error; errDelete != nil {
		return fmt.Errorf("passive: purge expired: %w", errDelete)
	}
	return nil
}

// ActiveEffects returns the user's unexpired effects after sweeping out the
// expired ones.
func (l *Ledger) ActiveEffects(tx *gorm.DB, userID uint64) ([]models.EffectOnUser, error) {
	if errPurge := l.PurgeExpired(tx, time.Now()); errPurge != nil {
		return nil, errPurge
	}
	var rows []models.EffectOnUser
	errFind := tx.Where("user_id = ?", userID).
		Order("end_time ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("passive: active effects: %w", errFind)
	}
	return rows, nil
}

// ClearCosmicGrants removes cosmic-scoped passives and cosmic-granted
// abilities for the user in one sweep. Evade and event rotation both use it.
func (l *Ledger) ClearCosmicGrants(tx *gorm.DB, userID uint64) error {
	if errClear := l.Clear(tx, userID, models.PassiveScopeCosmic); errClear != nil {
		return errClear
	}
	if errDelete := tx.Where("user_id = ? AND from_cosmic = ?", userID, true).
		Delete(&models.UserAbility{}).Error; errDelete != nil {
		return fmt.Errorf("passive: clear cosmic abilities: %w", errDelete)
	}
	return nil
}
