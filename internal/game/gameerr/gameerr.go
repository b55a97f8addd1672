// Package gameerr defines the error taxonomy shared by every zenbeasts rule.
//
// Each rule failure is a sentinel *Error carrying a Kind and a stable Code.
// Callers add context with Wrap and match with errors.Is; KindOf classifies
// any error chain.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies a rule failure.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = iota
	// KindValidation is a malformed or out-of-range request field.
	KindValidation
	// KindAuthorization is an ownership, participant, or admin mismatch.
	KindAuthorization
	// KindState is a precondition on mutable state that does not hold.
	KindState
	// KindArithmetic is an overflow or underflow in a checked computation.
	KindArithmetic
	// KindInsufficientResource is a balance too small for the requested transfer.
	KindInsufficientResource
	// KindNotFound is a registry miss.
	KindNotFound
)

// String returns the lower-case kind label.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindArithmetic:
		return "arithmetic"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified rule failure.
type Error struct {
	Kind Kind
	// Code is a stable snake_case identifier, safe to expose to clients.
	Code string
	Msg  string
}

// Error implements error.
func (e *Error) Error() string { return e.Msg }

func newErr(k Kind, code, msg string) *Error {
	return &Error{Kind: k, Code: code, Msg: msg}
}

// Validation errors.
var (
	ErrNameTooLong          = newErr(KindValidation, "name_too_long", "name is too long")
	ErrURITooLong           = newErr(KindValidation, "uri_too_long", "uri is too long")
	ErrInvalidTraitIndex    = newErr(KindValidation, "invalid_trait_index", "invalid trait index")
	ErrInvalidActivityType  = newErr(KindValidation, "invalid_activity_type", "invalid activity type")
	ErrInvalidAbility       = newErr(KindValidation, "invalid_ability", "invalid ability id")
	ErrInvalidBurnPercent   = newErr(KindValidation, "invalid_burn_percentage", "invalid burn percentage (must be 0-100)")
	ErrInvalidConfiguration = newErr(KindValidation, "invalid_configuration", "invalid configuration parameters")
	ErrInvalidParents       = newErr(KindValidation, "invalid_parents", "invalid parent beasts")
	ErrWagerOutOfBounds     = newErr(KindValidation, "wager_out_of_bounds", "wager amount is outside the configured bounds")
	ErrSameBeast            = newErr(KindValidation, "same_beast", "challenger and opponent must be different beasts")
	ErrOwnerUnchanged       = newErr(KindValidation, "owner_unchanged", "new owner is the same as current owner")
	ErrSessionMismatch      = newErr(KindValidation, "session_mismatch", "beast does not belong to this combat session")
	ErrInvalidAccount       = newErr(KindValidation, "invalid_account", "malformed token account")
)

// Authorization errors.
var (
	ErrNotOwner       = newErr(KindAuthorization, "not_owner", "not the owner of this beast")
	ErrUnauthorized   = newErr(KindAuthorization, "unauthorized", "caller is not the program authority")
	ErrNotParticipant = newErr(KindAuthorization, "not_combat_participant", "caller is not a participant in this combat")
	ErrSelfCombat     = newErr(KindAuthorization, "self_combat", "cannot initiate combat with your own beast")
)

// State errors.
var (
	ErrCooldownActive         = newErr(KindState, "cooldown_active", "beast is in cooldown period")
	ErrBreedingCooldownActive = newErr(KindState, "breeding_cooldown_active", "beast is in breeding cooldown")
	ErrCombatCooldownActive   = newErr(KindState, "combat_cooldown_active", "beast is in combat cooldown period")
	ErrOpponentNotAvailable   = newErr(KindState, "opponent_not_available", "opponent beast is not available for combat")
	ErrMaxBreedingReached     = newErr(KindState, "max_breeding_reached", "beast has reached maximum breeding count")
	ErrTraitMaxReached        = newErr(KindState, "trait_max_reached", "trait has reached maximum value (255)")
	ErrAbilityAlreadyUnlocked = newErr(KindState, "ability_already_unlocked", "ability is already unlocked for this trait slot")
	ErrAbilityNotUnlocked     = newErr(KindState, "ability_not_unlocked", "ability has not been unlocked for this trait slot")
	ErrAbilityMaxLevel        = newErr(KindState, "ability_max_level", "ability has reached maximum level (10)")
	ErrBeastInCombat          = newErr(KindState, "beast_in_combat", "beast is currently in an active combat session")
	ErrSessionNotActive       = newErr(KindState, "session_not_active", "combat session is not active")
	ErrSessionNotFinished     = newErr(KindState, "session_not_finished", "combat session has not finished")
	ErrSessionSettled         = newErr(KindState, "session_settled", "combat session has already been settled")
	ErrTurnTimeout            = newErr(KindState, "combat_turn_timeout", "combat turn has timed out")
	ErrInvalidTurn            = newErr(KindState, "invalid_combat_turn", "not this participant's turn")
	ErrNoRewards              = newErr(KindState, "no_rewards", "no rewards to claim")
	ErrAlreadyInitialized     = newErr(KindState, "already_initialized", "program is already initialized")
	ErrNotInitialized         = newErr(KindState, "not_initialized", "program is not initialized")
	ErrTranscriptMismatch     = newErr(KindState, "transcript_mismatch", "recorded turn does not match its recomputation")
	ErrBeastExists            = newErr(KindState, "beast_exists", "a beast with this id already exists")
)

// Arithmetic errors.
var (
	ErrOverflow  = newErr(KindArithmetic, "arithmetic_overflow", "arithmetic overflow occurred")
	ErrUnderflow = newErr(KindArithmetic, "arithmetic_underflow", "arithmetic underflow occurred")
)

// Insufficient resource errors.
var (
	ErrInsufficientFunds    = newErr(KindInsufficientResource, "insufficient_funds", "insufficient funds for this operation")
	ErrInsufficientTreasury = newErr(KindInsufficientResource, "insufficient_treasury", "insufficient treasury balance")
)

// Not found errors.
var (
	ErrBeastNotFound   = newErr(KindNotFound, "beast_not_found", "beast not found")
	ErrSessionNotFound = newErr(KindNotFound, "session_not_found", "combat session not found")
)

// Wrap annotates err with a formatted context message, keeping err matchable
// with errors.Is and classifiable with KindOf.
//
// Postcondition: errors.Is(Wrap(err, ...), err) is true.
func Wrap(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain.
//
// Postcondition: Returns KindUnknown when err is nil or carries no *Error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// CodeOf returns the Code of the first *Error in err's chain, or "internal".
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "internal"
}
