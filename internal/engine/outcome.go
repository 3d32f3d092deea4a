package engine

import "github.com/DoyleJ11/auction-chess-backend/internal/board"

type Reason string

const (
	ReasonMate    Reason = "mate"
	ReasonTimeout Reason = "timeout"
	// Forfeit, stalemate and draw are part of the wire format but no
	// transition produces them yet.
	ReasonForfeit   Reason = "forfeit"
	ReasonStalemate Reason = "stalemate"
	ReasonDraw      Reason = "draw"
)

// Outcome marks a finished game. It is either Decisive or Drawn.
type Outcome interface {
	Cause() Reason
	Victor() (board.Color, bool)
	isOutcome()
}

type Decisive struct {
	Winner board.Color
	Reason Reason
}

func (o Decisive) Cause() Reason               { return o.Reason }
func (o Decisive) Victor() (board.Color, bool) { return o.Winner, true }
func (Decisive) isOutcome()                    {}

type Drawn struct {
	Reason Reason
}

func (o Drawn) Cause() Reason             { return o.Reason }
func (Drawn) Victor() (board.Color, bool) { return board.White, false }
func (Drawn) isOutcome()                  {}

// OutcomeRecord is the wire form of an Outcome; Winner is null for draws.
type OutcomeRecord struct {
	Winner *board.Color `json:"winner"`
	Reason Reason       `json:"reason"`
}

func RecordOf(o Outcome) OutcomeRecord {
	rec := OutcomeRecord{Reason: o.Cause()}
	if w, ok := o.Victor(); ok {
		rec.Winner = &w
	}
	return rec
}

func (r OutcomeRecord) Outcome() Outcome {
	if r.Winner == nil {
		return Drawn{Reason: r.Reason}
	}
	return Decisive{Winner: *r.Winner, Reason: r.Reason}
}
