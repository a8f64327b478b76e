// Package cosmic selects the periodic cosmic event for each class group.
package cosmic

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/passive"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Validation failures for event selection.
var (
	// ErrEventNotFound indicates the event does not exist.
	ErrEventNotFound = errors.New("cosmic event not found")
	// ErrUnknownGroup indicates an unrecognized class group.
	ErrUnknownGroup = errors.New("unknown class group")
	// ErrNoRecommended indicates rotation found no recommended events.
	ErrNoRecommended = errors.New("no recommended cosmic events")
)

// Selector maintains the one-selected-event-per-group invariant.
type Selector struct {
	db     *gorm.DB
	ledger *passive.Ledger
}

// NewSelector constructs a Selector.
func NewSelector(db *gorm.DB) *Selector {
	return &Selector{db: db, ledger: passive.NewLedger()}
}

// groupColumn maps a class group to its selection column.
func groupColumn(group string) (string, error) {
	switch group {
	case models.SchoolClassVg1:
		return "selected_for_vg1", nil
	case models.SchoolClassVg2:
		return "selected_for_vg2", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
}

// SelectForGroup makes the event the active one for the group.
//
// The previous selection for the group is unset in the same transaction, so
// at most one row per group ever has its selection flag set. Selecting a new
// event clears the group's cosmic-scoped passives and cosmic-granted
// abilities, and grants the event's ability to every member of the group.
func (s *Selector) SelectForGroup(ctx context.Context, eventID uint64, group string) error {
	column, errColumn := groupColumn(group)
	if errColumn != nil {
		return errColumn
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.CosmicEvent
		if errFind := tx.Where("id = ?", eventID).Take(&event).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("load event: %w", errFind)
		}

		// Unset the previous selection for this group first; the invariant
		// holds at commit regardless of which row was selected before.
		if errUnset := tx.Model(&models.CosmicEvent{}).
			Where(column+" = ?", true).
			Updates(map[string]any{column: false, "selected": false}).Error; errUnset != nil {
			return fmt.Errorf("unset previous selection: %w", errUnset)
		}

		if errSet := tx.Model(&models.CosmicEvent{}).
			Where("id = ?", event.ID).
			Updates(map[string]any{column: true, "selected": true}).Error; errSet != nil {
			return fmt.Errorf("set selection: %w", errSet)
		}

		if errReset := s.resetGroupPassives(tx, group, &event); errReset != nil {
			return errReset
		}

		return gamelog.Append(tx, gamelog.Entry{
			Message: fmt.Sprintf("Cosmic event %q selected for %s", event.Name, group),
			Global:  true,
			Details: map[string]any{"event": event.Name, "group": group},
		})
	})
	if errTx != nil {
		if errors.Is(errTx, ErrEventNotFound) {
			return errTx
		}
		log.WithError(errTx).WithField("event_id", eventID).WithField("group", group).Error("cosmic: selection failed")
		return fmt.Errorf("cosmic: select: %w", errTx)
	}
	return nil
}

// resetGroupPassives clears per-event state for the group's users and grants
// the new event's ability when it has one.
func (s *Selector) resetGroupPassives(tx *gorm.DB, group string, event *models.CosmicEvent) error {
	var users []models.User
	if errFind := tx.Where("school_class = ?", group).Find(&users).Error; errFind != nil {
		return fmt.Errorf("load group users: %w", errFind)
	}
	for i := range users {
		if errClear := s.ledger.ClearCosmicGrants(tx, users[i].ID); errClear != nil {
			return errClear
		}
		if event.GrantsAbilityID != nil {
			grant := models.UserAbility{
				UserID:     users[i].ID,
				AbilityID:  *event.GrantsAbilityID,
				FromCosmic: true,
			}
			errGrant := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "ability_id"}},
				DoNothing: true,
			}).Create(&grant).Error
			if errGrant != nil {
				return fmt.Errorf("grant event ability: %w", errGrant)
			}
		}
	}
	return nil
}

// Rotate picks a random recommended event for the group and selects it.
// External schedulers call this daily; the engine keeps no timer of its own.
func (s *Selector) Rotate(ctx context.Context, group string, rng *rand.Rand) (uint64, error) {
	if _, errColumn := groupColumn(group); errColumn != nil {
		return 0, errColumn
	}

	var candidates []models.CosmicEvent
	errFind := s.db.WithContext(ctx).
		Where("recommended = ?", true).
		Order("id ASC").
		Find(&candidates).Error
	if errFind != nil {
		return 0, fmt.Errorf("cosmic: load recommended: %w", errFind)
	}
	if len(candidates) == 0 {
		return 0, ErrNoRecommended
	}

	chosen := candidates[rng.Intn(len(candidates))]
	if errSelect := s.SelectForGroup(ctx, chosen.ID, group); errSelect != nil {
		return 0, errSelect
	}
	return chosen.ID, nil
}
