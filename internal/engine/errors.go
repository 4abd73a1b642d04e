package engine

import "errors"

// Errors returned by the stage transitions in this package. Handlers in
// internal/wsserver log these and drop the request; they are never decoded
// back into a protocol message for the client.
var (
	ErrNotFound             = errors.New("not found")
	ErrFull                 = errors.New("game is full")
	ErrWrongStage           = errors.New("operation not valid in current stage")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrNotOwner             = errors.New("only the owner may do that")
	ErrBadCombo             = errors.New("cards do not form a legal combo")
	ErrDoesNotBeat          = errors.New("combo does not beat the table")
	ErrMustFulfillWish      = errors.New("must play the wished-for card")
	ErrAlreadyDecided       = errors.New("tichu status already decided")
	ErrAlreadySubmitted     = errors.New("trade already submitted")
	ErrInvalidTargets       = errors.New("trade targets must be the three other participants")
	ErrCardsNotHeld         = errors.New("cards are not held by the user")
	ErrInvalidName          = errors.New("name is empty after trimming")
	ErrTeamFull             = errors.New("team already has two members")
	ErrUnbalanced           = errors.New("both teams must have two members")
	ErrAlreadyOnTeam        = errors.New("user is already on that team")
	ErrNotOnTeam            = errors.New("user does not belong to that team")
	ErrCannotPassOnLead     = errors.New("cannot pass while leading an empty table")
	ErrMissingDragonRecipient = errors.New("dragon single requires an opponent recipient")
	ErrPastFirstPlay        = errors.New("cannot call small tichu after playing a card")
)
