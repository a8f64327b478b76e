package engine

import (
	"errors"

	"github.com/jonp-h/TillerQuest-sub003/internal/dice"
)

// Validation failures. These are expected outcomes, surfaced to the caller as
// a typed failure result with no state mutated.
var (
	// ErrActorNotFound indicates the casting user does not exist.
	ErrActorNotFound = errors.New("actor not found")
	// ErrAbilityNotFound indicates the ability name is not in the catalog.
	ErrAbilityNotFound = errors.New("ability not found")
	// ErrAbilityNotOwned indicates the actor does not own the ability.
	ErrAbilityNotOwned = errors.New("ability not owned")
	// ErrActorDead indicates a dead actor tried to cast.
	ErrActorDead = errors.New("actor is dead")
	// ErrInsufficientResource indicates the actor cannot pay the ability cost.
	ErrInsufficientResource = errors.New("insufficient resource")
	// ErrInvalidTarget indicates missing, extra, or out-of-scope targets.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrAlreadyEvaded indicates the actor already evaded this cosmic event.
	ErrAlreadyEvaded = errors.New("already evaded")
	// ErrAlreadyUsed indicates a one-per-event ability was already used.
	ErrAlreadyUsed = errors.New("ability already used this event")
	// ErrNoGuild indicates a guild operation on a guildless user.
	ErrNoGuild = errors.New("user has no guild")
)

// ErrInfrastructure indicates a store or timeout failure. The original cause
// is logged; callers surface this generically.
var ErrInfrastructure = errors.New("infrastructure error")

// IsValidation reports whether the error is an expected validation failure
// rather than an infrastructure fault.
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrActorNotFound,
		ErrAbilityNotFound,
		ErrAbilityNotOwned,
		ErrActorDead,
		ErrInsufficientResource,
		ErrInvalidTarget,
		ErrAlreadyEvaded,
		ErrAlreadyUsed,
		ErrNoGuild,
		dice.ErrInvalidNotation,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
