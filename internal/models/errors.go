package models

import "errors"

// StateError reports an operation that is invalid for the round's current state.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// ValidationError reports malformed input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// FairnessError reports a revealed seed or published stream that does not
// match its commitment.
type FairnessError struct {
	Msg string
}

func (e *FairnessError) Error() string { return e.Msg }

var (
	ErrRoundNotOpen   = &StateError{Msg: "round not open"}
	ErrRoundNotClosed = &StateError{Msg: "round not closed"}
	ErrRoundActive    = &StateError{Msg: "a round is already open"}
	ErrNoOpenRound    = &StateError{Msg: "no open round"}
	ErrAlreadyDrawn   = &StateError{Msg: "already drawn"}
	ErrNotDrawn       = &StateError{Msg: "not drawn yet"}

	ErrZeroAmount          = &ValidationError{Msg: "amount must be positive"}
	ErrMissingID           = &ValidationError{Msg: "depositor and beneficiary ids are required"}
	ErrWeightOverflow      = &ValidationError{Msg: "total weight overflow"}
	ErrPositionOutOfRange  = &ValidationError{Msg: "position out of range"}
	ErrNoEntries           = &ValidationError{Msg: "no entries"}
	ErrDrawIndexOutOfRange = &ValidationError{Msg: "draw index out of range"}
	ErrZeroCommitment      = &ValidationError{Msg: "commitment hash must not be zero"}
	ErrEndTimeNotFuture    = &ValidationError{Msg: "end time must be in the future"}
	ErrNegativeCount       = &ValidationError{Msg: "count must not be negative"}
	ErrZeroSnapshot        = &ValidationError{Msg: "snapshot value must not be zero"}
	ErrEmptyStream         = &ValidationError{Msg: "no published numbers to verify"}

	ErrInvalidSeed    = &FairnessError{Msg: "invalid seed"}
	ErrStreamMismatch = &FairnessError{Msg: "random stream does not match"}

	ErrRoundNotFound = errors.New("round not found")
)

func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsFairnessError(err error) bool {
	var target *FairnessError
	return errors.As(err, &target)
}
