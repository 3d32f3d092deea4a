package engine

import (
	"errors"

	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
)

var ErrPhaseViolation = errors.New("action not allowed in this phase")
var ErrTerminalState = errors.New("game is over")
var ErrInvalidAmount = errors.New("bid amount must be positive")
var ErrMustExceedPreviousBid = errors.New("bid must exceed the previous bid")
var ErrInsufficientFunds = errors.New("insufficient balance")
var ErrEmptySquareMove = errors.New("move from empty square")
var ErrNotYourPiece = errors.New("cannot move opponent's piece")
var ErrIllegalDestination = chess.ErrIllegalDestination
var ErrPieceTooExpensive = errors.New("piece too expensive to move")
var ErrClockDisabled = errors.New("clock disabled")
var ErrInvalidElapsed = errors.New("elapsed time must not be negative")
var ErrInternalInvariant = errors.New("internal invariant violated")
var ErrInvalidConfig = errors.New("invalid game config")
var ErrUnsupportedCommand = errors.New("unsupported command")

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrPhaseViolation, "phase_violation"},
	{ErrTerminalState, "terminal_state"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrMustExceedPreviousBid, "must_exceed_previous_bid"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrEmptySquareMove, "empty_square_move"},
	{ErrNotYourPiece, "not_your_piece"},
	{ErrIllegalDestination, "illegal_destination"},
	{ErrPieceTooExpensive, "piece_too_expensive"},
	{ErrClockDisabled, "clock_disabled"},
	{ErrInvalidElapsed, "invalid_elapsed"},
	{ErrInternalInvariant, "internal"},
	{ErrInvalidConfig, "invalid_config"},
	{ErrUnsupportedCommand, "unsupported_command"},
}

// Kind maps an engine error to a stable code for clients. Internal invariant
// errors are checked first so they never leak as a user error.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInternalInvariant) {
		return "internal"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "unknown"
}

// IsUserError reports whether err was caused by the caller's input rather
// than an engine bug.
func IsUserError(err error) bool {
	k := Kind(err)
	return k != "internal" && k != "unknown" && k != ""
}
