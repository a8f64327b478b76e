package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/settings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CastDungeonAbility resolves a dungeon ability against one of the actor's
// guild enemies. Defeating the enemy pays its gold and XP bounty to every
// living guild member; a surviving enemy retaliates against the actor.
func (e *Engine) CastDungeonAbility(ctx context.Context, actorID uint64, abilityName string, enemyID uint64) (CastResult, error) {
	rng, errRand := e.newRand()
	if errRand != nil {
		log.WithError(errRand).Error("engine: failed to seed random source")
		return CastResult{}, ErrInfrastructure
	}

	state := &castState{rng: rng, requestID: uuid.NewString()}

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		state.cfg = settings.LoadGameConfig(ctx, tx)

		if errLoad := e.loadCast(state, actorID, abilityName); errLoad != nil {
			return errLoad
		}
		if errValidate := e.validateCast(state); errValidate != nil {
			return errValidate
		}
		if !state.ability.IsDungeon {
			return ErrInvalidTarget
		}
		if state.actor.GuildName == nil {
			return ErrNoGuild
		}

		var enemy models.GuildEnemy
		if errFind := lockForUpdate(tx).Where("id = ? AND guild_name = ?", enemyID, *state.actor.GuildName).
			Take(&enemy).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrInvalidTarget
			}
			return fmt.Errorf("load enemy: %w", errFind)
		}

		damage, errResolve := e.resolveValue(state)
		if errResolve != nil {
			return errResolve
		}
		if damage < 0 {
			damage = 0
		}

		enemy.Health = max(enemy.Health-damage, 0)
		defeated := enemy.Health == 0

		state.targets = []*models.User{state.actor}
		if defeated {
			if errPayout := e.payoutEnemyBounty(state, &enemy); errPayout != nil {
				return errPayout
			}
			if errDelete := tx.Delete(&enemy).Error; errDelete != nil {
				return fmt.Errorf("delete enemy: %w", errDelete)
			}
			state.message = fmt.Sprintf("%s defeated %s! The guild claims %d gold and %d XP",
				state.actor.Username, enemy.Name, enemy.Gold, enemy.XP)
		} else {
			if errSave := tx.Save(&enemy).Error; errSave != nil {
				return fmt.Errorf("save enemy: %w", errSave)
			}
			// Retaliation happens in the same transaction, so a cast that
			// kills the actor still commits atomically.
			state.actor.HP = max(state.actor.HP-enemy.Attack, 0)
			state.message = fmt.Sprintf("%s hit %s for %d; %s struck back for %d",
				state.actor.Username, enemy.Name, damage, enemy.Name, enemy.Attack)
		}

		return e.finalizeCast(state)
	})
	if errTx != nil {
		if IsValidation(errTx) {
			return CastResult{}, errTx
		}
		log.WithError(errTx).
			WithField("actor_id", actorID).
			WithField("ability", abilityName).
			WithField("enemy_id", enemyID).
			Error("engine: dungeon cast failed")
		return CastResult{}, ErrInfrastructure
	}

	e.emitAfterCast(ctx, state)
	return CastResult{Message: state.message, DiceRoll: state.diceRoll}, nil
}

// payoutEnemyBounty distributes a defeated enemy's gold and XP to every
// living member of the guild, actor included.
func (e *Engine) payoutEnemyBounty(state *castState, enemy *models.GuildEnemy) error {
	var members []models.User
	errFind := lockForUpdate(state.tx).
		Where("guild_name = ? AND hp > 0", *state.actor.GuildName).
		Order("username ASC").
		Find(&members).Error
	if errFind != nil {
		return fmt.Errorf("load guild members: %w", errFind)
	}

	for i := range members {
		member := &members[i]
		if member.ID == state.actor.ID {
			member = state.actor
		}
		member.Gold += enemy.Gold
		levels := AwardXP(member, enemy.XP, state.cfg)
		if member.ID == state.actor.ID {
			state.levelUps += levels
		}
		if member != state.actor {
			if errSave := state.tx.Save(member).Error; errSave != nil {
				return fmt.Errorf("save member %d: %w", member.ID, errSave)
			}
		}
	}

	actorID := state.actor.ID
	return gamelog.Append(state.tx, gamelog.Entry{
		UserID:    &actorID,
		Message:   fmt.Sprintf("%s fell to %s", enemy.Name, *state.actor.GuildName),
		Global:    true,
		RequestID: state.requestID,
		Details:   map[string]any{"enemy": enemy.Name, "gold": enemy.Gold, "xp": enemy.XP},
	})
}
