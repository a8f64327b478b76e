// Package engine validates and applies ability casts against shared game state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	dbutil "github.com/jonp-h/TillerQuest-sub003/internal/db"
	"github.com/jonp-h/TillerQuest-sub003/internal/dice"
	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/passive"
	"github.com/jonp-h/TillerQuest-sub003/internal/settings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CastResult is the success payload of a cast.
type CastResult struct {
	Message  string `json:"message"`
	DiceRoll string `json:"diceRoll"`
}

// RandFactory produces the random source for one cast.
type RandFactory func() (*rand.Rand, error)

// Engine resolves ability casts. Construct it once at startup and thread it
// through; it holds no mutable game state of its own.
type Engine struct {
	db       *gorm.DB
	ledger   *passive.Ledger
	notifier *gamelog.Notifier
	newRand  RandFactory
}

// New constructs an Engine over the given store handle.
func New(db *gorm.DB, notifier *gamelog.Notifier) *Engine {
	return &Engine{
		db:       db,
		ledger:   passive.NewLedger(),
		notifier: notifier,
		newRand:  dice.NewRand,
	}
}

// WithRandFactory overrides the random source, used by tests to fix seeds.
func (e *Engine) WithRandFactory(factory RandFactory) *Engine {
	if factory != nil {
		e.newRand = factory
	}
	return e
}

// lockForUpdate applies a row lock on dialects that support it. SQLite
// serializes writers natively.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if dbutil.IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// castState carries the per-cast working set through the handler steps.
type castState struct {
	tx      *gorm.DB
	cfg     settings.GameConfig
	actor   *models.User
	ability *models.Ability
	targets []*models.User
	rng     *rand.Rand

	requestID string
	message   string
	diceRoll  string
	levelUps  int
}

// CastAbility validates and applies one ability cast inside a single
// transaction. It either commits fully or mutates nothing.
func (e *Engine) CastAbility(ctx context.Context, actorID uint64, abilityName string, targetIDs []uint64) (CastResult, error) {
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
		if errTargets := e.resolveTargets(state, targetIDs); errTargets != nil {
			return errTargets
		}
		if errApply := e.applyAbility(state); errApply != nil {
			return errApply
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
			Error("engine: cast failed")
		return CastResult{}, ErrInfrastructure
	}

	e.emitAfterCast(ctx, state)
	return CastResult{Message: state.message, DiceRoll: state.diceRoll}, nil
}

// loadCast loads the ability catalog entry and the locked actor row.
func (e *Engine) loadCast(state *castState, actorID uint64, abilityName string) error {
	var ability models.Ability
	if errFind := state.tx.Where("name = ?", abilityName).Take(&ability).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrAbilityNotFound
		}
		return fmt.Errorf("load ability: %w", errFind)
	}
	state.ability = &ability

	var actor models.User
	if errFind := lockForUpdate(state.tx).Where("id = ?", actorID).Take(&actor).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrActorNotFound
		}
		return fmt.Errorf("load actor: %w", errFind)
	}
	state.actor = &actor

	// Lazy expiry: sweep expired effects before any state is read.
	return e.ledger.PurgeExpired(state.tx, nowUTC())
}

// validateCast checks liveness, ownership, and resource cost. Nothing has
// been mutated yet, so any failure here rejects the cast cleanly.
func (e *Engine) validateCast(state *castState) error {
	if !state.actor.Alive() {
		return ErrActorDead
	}

	var owned int64
	errCount := state.tx.Model(&models.UserAbility{}).
		Where("user_id = ? AND ability_id = ?", state.actor.ID, state.ability.ID).
		Count(&owned).Error
	if errCount != nil {
		return fmt.Errorf("check ownership: %w", errCount)
	}
	if owned == 0 {
		return ErrAbilityNotOwned
	}

	if state.ability.Cost > 0 {
		available, errPool := resourcePool(state.actor, state.ability.CostResource)
		if errPool != nil {
			return errPool
		}
		if available < state.ability.Cost {
			return ErrInsufficientResource
		}
	}
	return nil
}

// resolveTargets loads and validates the cast's targets per the ability's
// cardinality. Non-self targets are locked alongside the actor.
func (e *Engine) resolveTargets(state *castState, targetIDs []uint64) error {
	switch state.ability.Target {
	case models.TargetSelf:
		if len(targetIDs) > 1 || (len(targetIDs) == 1 && targetIDs[0] != state.actor.ID) {
			return ErrInvalidTarget
		}
		state.targets = []*models.User{state.actor}
		return nil

	case models.TargetSingle:
		if len(targetIDs) != 1 {
			return ErrInvalidTarget
		}
		return e.loadTargets(state, targetIDs)

	case models.TargetGuild:
		if state.actor.GuildName == nil {
			return ErrNoGuild
		}
		if len(targetIDs) == 0 {
			return e.loadGuildTargets(state)
		}
		return e.loadTargets(state, targetIDs)

	case models.TargetAll:
		if len(targetIDs) == 0 {
			return e.loadAllTargets(state)
		}
		return e.loadTargets(state, targetIDs)

	default:
		return fmt.Errorf("unknown target cardinality %q", state.ability.Target)
	}
}

// loadTargets fetches explicit target rows and enforces guild restrictions.
func (e *Engine) loadTargets(state *castState, targetIDs []uint64) error {
	guildRestricted := state.ability.GuildOnly || state.ability.Target == models.TargetGuild

	state.targets = make([]*models.User, 0, len(targetIDs))
	for _, targetID := range targetIDs {
		if targetID == state.actor.ID {
			state.targets = append(state.targets, state.actor)
			continue
		}
		var target models.User
		if errFind := lockForUpdate(state.tx).Where("id = ?", targetID).Take(&target).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrInvalidTarget
			}
			return fmt.Errorf("load target %d: %w", targetID, errFind)
		}
		if guildRestricted {
			if state.actor.GuildName == nil {
				return ErrNoGuild
			}
			if target.GuildName == nil || *target.GuildName != *state.actor.GuildName {
				return ErrInvalidTarget
			}
		}
		state.targets = append(state.targets, &target)
	}
	return nil
}

// loadGuildTargets fetches every member of the actor's guild.
func (e *Engine) loadGuildTargets(state *castState) error {
	var members []models.User
	errFind := lockForUpdate(state.tx).
		Where("guild_name = ?", *state.actor.GuildName).
		Order("username ASC").
		Find(&members).Error
	if errFind != nil {
		return fmt.Errorf("load guild members: %w", errFind)
	}
	state.targets = make([]*models.User, 0, len(members))
	for i := range members {
		if members[i].ID == state.actor.ID {
			state.targets = append(state.targets, state.actor)
			continue
		}
		member := members[i]
		state.targets = append(state.targets, &member)
	}
	return nil
}

// loadAllTargets fetches the entire user roster for all-targeting casts with
// no explicit target list.
func (e *Engine) loadAllTargets(state *castState) error {
	var users []models.User
	errFind := lockForUpdate(state.tx).
		Order("username ASC").
		Find(&users).Error
	if errFind != nil {
		return fmt.Errorf("load roster: %w", errFind)
	}
	state.targets = make([]*models.User, 0, len(users))
	for i := range users {
		if users[i].ID == state.actor.ID {
			state.targets = append(state.targets, state.actor)
			continue
		}
		user := users[i]
		state.targets = append(state.targets, &user)
	}
	return nil
}

// applyAbility branches on the ability's behavior tag.
func (e *Engine) applyAbility(state *castState) error {
	switch state.ability.Type {
	case models.AbilityTypeTurns:
		return e.applyTurns(state)
	case models.AbilityTypeEvade:
		return e.applyEvade(state)
	case models.AbilityTypeTwistOfFate:
		return e.applyTwistOfFate(state)
	case models.AbilityTypeHeal,
		models.AbilityTypeDamage,
		models.AbilityTypeBuff,
		models.AbilityTypeXP,
		models.AbilityTypeGold:
		return e.applyValueAbility(state)
	default:
		return fmt.Errorf("unknown ability type %q", state.ability.Type)
	}
}

// finalizeCast deducts the declared cost, awards cast XP, and writes the
// audit entry, all inside the same transaction.
func (e *Engine) finalizeCast(state *castState) error {
	if state.ability.Cost > 0 {
		if errSpend := spendResource(state.actor, state.ability.CostResource, state.ability.Cost); errSpend != nil {
			return errSpend
		}
	}
	state.levelUps += AwardXP(state.actor, state.ability.XPGiven, state.cfg)

	if errSave := saveUsers(state.tx, state.targets, state.actor); errSave != nil {
		return errSave
	}

	if state.message == "" {
		state.message = fmt.Sprintf("%s cast %s", state.actor.Username, state.ability.Name)
	}

	targetIDs := make([]uint64, len(state.targets))
	for i, target := range state.targets {
		targetIDs[i] = target.ID
	}
	actorID := state.actor.ID
	return gamelog.Append(state.tx, gamelog.Entry{
		UserID:    &actorID,
		Message:   state.message,
		RequestID: state.requestID,
		Details: map[string]any{
			"ability":  state.ability.Name,
			"type":     state.ability.Type,
			"targets":  targetIDs,
			"xp_given": state.ability.XPGiven,
			"dice":     state.diceRoll,
		},
	})
}

// emitAfterCast sends best-effort notifications once the transaction has
// committed. Failures are logged inside the notifier, never returned.
func (e *Engine) emitAfterCast(ctx context.Context, state *castState) {
	if state.levelUps > 0 && e.notifier != nil {
		e.notifier.Broadcast(ctx,
			fmt.Sprintf("%s reached level %d", state.actor.Username, state.actor.Level),
			fmt.Sprintf("%s leveled up %d time(s) and earned gemstones.", state.actor.Username, state.levelUps),
		)
	}
}

// saveUsers persists every touched user exactly once.
func saveUsers(tx *gorm.DB, targets []*models.User, actor *models.User) error {
	seen := make(map[uint64]bool, len(targets)+1)
	for _, user := range append(targets, actor) {
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		if errSave := tx.Save(user).Error; errSave != nil {
			return fmt.Errorf("save user %d: %w", user.ID, errSave)
		}
	}
	return nil
}

// resourcePool returns the actor's balance for the named resource.
func resourcePool(user *models.User, resource string) (int, error) {
	switch resource {
	case models.ResourceMana:
		return user.Mana, nil
	case models.ResourceTurns:
		return user.Turns, nil
	case models.ResourceGold:
		return user.Gold, nil
	default:
		return 0, fmt.Errorf("unknown cost resource %q", resource)
	}
}

// spendResource deducts an already-validated cost. Balances never go
// negative: validation ran against the same locked row.
func spendResource(user *models.User, resource string, cost int) error {
	pool, errPool := resourcePool(user, resource)
	if errPool != nil {
		return errPool
	}
	if pool < cost {
		return ErrInsufficientResource
	}
	switch resource {
	case models.ResourceMana:
		user.Mana -= cost
	case models.ResourceTurns:
		user.Turns -= cost
	case models.ResourceGold:
		user.Gold -= cost
	}
	return nil
}
