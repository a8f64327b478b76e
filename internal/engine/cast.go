package engine

import (
	"fmt"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/dice"
	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
)

func nowUTC() time.Time { return time.Now().UTC() }

// resolveValue resolves the ability's effect value. A static value wins over
// dice notation; dice rolls record their breakdown on the cast state.
func (e *Engine) resolveValue(state *castState) (int, error) {
	ability := state.ability
	if ability.Value != nil {
		return *ability.Value, nil
	}
	if ability.DiceNotation == nil || *ability.DiceNotation == "" {
		return 0, fmt.Errorf("ability %q has neither value nor dice notation", ability.Name)
	}
	spec, errParse := dice.Parse(*ability.DiceNotation)
	if errParse != nil {
		return 0, fmt.Errorf("ability %q: %w", ability.Name, errParse)
	}
	result := spec.Roll(state.rng)
	state.diceRoll = result.Breakdown()
	return result.Total, nil
}

// applyTurns increments every target's turn balance by the static value.
// Turns abilities never roll dice.
func (e *Engine) applyTurns(state *castState) error {
	if state.ability.Value == nil {
		return fmt.Errorf("turns ability %q has no static value", state.ability.Name)
	}
	value := *state.ability.Value
	for _, target := range state.targets {
		target.Turns += value
	}
	state.message = fmt.Sprintf("Granted %d turn(s) to %d player(s)", value, len(state.targets))
	return nil
}

// applyEvade clears the actor's cosmic grants and marks the evade passive.
// Self-only; at most once per cosmic event.
func (e *Engine) applyEvade(state *castState) error {
	if state.ability.Target != models.TargetSelf {
		return fmt.Errorf("evade ability %q must be self-targeted", state.ability.Name)
	}

	evaded, errHas := e.ledger.Has(state.tx, state.actor.ID, models.PassiveEvaded)
	if errHas != nil {
		return errHas
	}
	if evaded {
		return ErrAlreadyEvaded
	}

	if errClear := e.ledger.ClearCosmicGrants(state.tx, state.actor.ID); errClear != nil {
		return errClear
	}

	created, errSet := e.ledger.Set(state.tx, state.actor.ID, models.PassiveEvaded, models.PassiveScopeCosmic)
	if errSet != nil {
		return errSet
	}
	// A concurrent evade won the insert between our check and set; the unique
	// index turns the race into a clean rejection.
	if !created {
		return ErrAlreadyEvaded
	}

	state.message = fmt.Sprintf("%s evaded the cosmic event", state.actor.Username)
	return nil
}

// Messages returned by twist of fate casts.
const (
	twistEscalationMessage  = "The die shows its highest face! Find your game master to claim your twist of fate."
	twistConsolationMessage = "The die was not with you. Better luck next time."
)

// applyTwistOfFate rolls the ability's dice and reports whether the result
// warrants escalation to a human operator. Single use per cosmic event; the
// literal roll is always audited.
func (e *Engine) applyTwistOfFate(state *castState) error {
	created, errSet := e.ledger.Set(state.tx, state.actor.ID, models.PassiveTwistOfFate, models.PassiveScopeCosmic)
	if errSet != nil {
		return errSet
	}
	if !created {
		return ErrAlreadyUsed
	}

	notation := "1d20"
	if state.ability.DiceNotation != nil && *state.ability.DiceNotation != "" {
		notation = *state.ability.DiceNotation
	}
	spec, errParse := dice.Parse(notation)
	if errParse != nil {
		return fmt.Errorf("ability %q: %w", state.ability.Name, errParse)
	}
	result := spec.Roll(state.rng)
	state.diceRoll = result.Breakdown()

	if result.MaxFace() {
		state.message = twistEscalationMessage
	} else {
		state.message = twistConsolationMessage
	}

	actorID := state.actor.ID
	return gamelog.Append(state.tx, gamelog.Entry{
		UserID:    &actorID,
		Message:   fmt.Sprintf("%s rolled %d on twist of fate", state.actor.Username, result.Total),
		Debug:     true,
		RequestID: state.requestID,
		Details:   map[string]any{"roll": result.Total, "faces": result.Rolls},
	})
}

// applyValueAbility handles plain heal/damage/buff/xp/gold effects.
func (e *Engine) applyValueAbility(state *castState) error {
	value, errResolve := e.resolveValue(state)
	if errResolve != nil {
		return errResolve
	}
	if value < 0 {
		value = 0
	}

	for _, target := range state.targets {
		switch state.ability.Type {
		case models.AbilityTypeHeal:
			// Reviving the dead is guild economy territory, not a heal.
			if !target.Alive() {
				return ErrInvalidTarget
			}
			target.HP = min(target.HP+value, target.HPMax)
		case models.AbilityTypeDamage:
			target.HP = max(target.HP-value, 0)
		case models.AbilityTypeBuff:
			// No immediate stat change; the timed effect below carries it.
		case models.AbilityTypeXP:
			levels := AwardXP(target, value, state.cfg)
			if target.ID == state.actor.ID {
				state.levelUps += levels
			}
		case models.AbilityTypeGold:
			target.Gold += value
		}

		if state.ability.Duration > 0 {
			errEffect := e.ledger.AddEffect(state.tx, target.ID, state.ability.ID,
				state.ability.Type, time.Duration(state.ability.Duration)*time.Minute)
			if errEffect != nil {
				return errEffect
			}
		}
	}

	state.message = fmt.Sprintf("%s resolved %s for %d on %d target(s)",
		state.actor.Username, state.ability.Name, value, len(state.targets))
	return nil
}
