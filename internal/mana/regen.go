// Package mana implements the daily turn and mana regeneration.
package mana

import (
	"context"
	"fmt"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/settings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Regenerator applies the daily resource top-up. It is invoked by an
// external scheduler; the engine runs no timers of its own.
type Regenerator struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewRegenerator constructs a Regenerator.
func NewRegenerator(db *gorm.DB) *Regenerator {
	return &Regenerator{db: db, nowFn: time.Now}
}

// WithNow overrides the clock, used by tests.
func (r *Regenerator) WithNow(nowFn func() time.Time) *Regenerator {
	if nowFn != nil {
		r.nowFn = nowFn
	}
	return r
}

// RegenerateDaily tops up every user who has not regenerated today: mana is
// clamp-added up to the cap, turns reset to the daily allowance, and the
// LastMana stamp moves forward. Running it twice in one day is a no-op.
func (r *Regenerator) RegenerateDaily(ctx context.Context) (int, error) {
	now := r.nowFn().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	regenerated := 0
	errTx := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg := settings.LoadGameConfig(ctx, tx)

		var users []models.User
		if errFind := tx.Where("last_mana < ?", startOfDay).Find(&users).Error; errFind != nil {
			return fmt.Errorf("load stale users: %w", errFind)
		}

		for i := range users {
			user := &users[i]
			user.Mana = min(user.Mana+cfg.DailyMana, user.ManaMax)
			user.Turns = cfg.DailyTurns
			user.LastMana = now
			if errSave := tx.Save(user).Error; errSave != nil {
				return fmt.Errorf("save user %d: %w", user.ID, errSave)
			}
			regenerated++
		}

		if regenerated == 0 {
			return nil
		}
		return gamelog.Append(tx, gamelog.Entry{
			Message: fmt.Sprintf("Daily regeneration restored %d player(s)", regenerated),
			Global:  true,
			Debug:   true,
			Details: map[string]any{"count": regenerated, "mana": cfg.DailyMana, "turns": cfg.DailyTurns},
		})
	})
	if errTx != nil {
		log.WithError(errTx).Error("mana: daily regeneration failed")
		return 0, fmt.Errorf("mana: regenerate: %w", errTx)
	}
	return regenerated, nil
}
