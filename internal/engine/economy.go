package engine

import (
	"iter"
	"math"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
)

func (s State) feeFor(r board.Role) int64 {
	if s.PieceFee == nil {
		return 0
	}
	return s.PieceFee.Of(r)
}

func (s State) canAfford(c board.Color, r board.Role) bool {
	return s.feeFor(r) <= s.Auction.Balance.Of(c)
}

// Income returns what each side earns from the pieces it owns.
func Income(b board.Board, values RoleValues) PerColor[int64] {
	var out PerColor[int64]
	for _, c := range board.Colors {
		for _, r := range board.Roles {
			out[c] += int64(b.Pieces(c, r).Count()) * values.Of(r)
		}
	}
	return out
}

// Interest returns floor(balance * rate) for each side.
func Interest(balance PerColor[int64], rate float64) PerColor[int64] {
	var out PerColor[int64]
	for _, c := range board.Colors {
		out[c] = int64(math.Floor(float64(balance[c]) * rate))
	}
	return out
}

func (t *transition) credit(amounts PerColor[int64]) {
	for _, c := range board.Colors {
		t.s.Auction.Balance[c] += amounts[c]
	}
}

func (t *transition) earnIncome() {
	if t.s.PieceIncome == nil {
		return
	}
	amounts := Income(t.s.Position.Board, *t.s.PieceIncome)
	t.credit(amounts)
	t.emit(Event{Type: EvtIncomeEarned, Color: t.s.Turn, Amounts: &amounts})
}

func (t *transition) earnInterest() {
	if t.s.Auction.InterestRate <= 0 {
		return
	}
	amounts := Interest(t.s.Auction.Balance, t.s.Auction.InterestRate)
	t.credit(amounts)
	t.emit(Event{Type: EvtInterestEarned, Color: t.s.Turn, Amounts: &amounts})
}

// LegalMovesFor yields the moves the side holding the turn can play and pay
// for. It is empty outside the move phase.
func LegalMovesFor(s State) iter.Seq[chess.Move] {
	return func(yield func(chess.Move) bool) {
		if s.Terminal() || s.Phase != PhaseMove {
			return
		}
		for m := range chess.LegalMoves(s.Position, s.Turn) {
			p, _ := s.Position.Board.PieceAt(m.From)
			if !s.canAfford(s.Turn, p.Role) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// LegalDestinationsFor returns where c may move the piece on from. It is
// empty unless c holds the move and can pay the piece's fee.
func LegalDestinationsFor(s State, c board.Color, from board.Square) board.SquareSet {
	if s.Terminal() || s.Phase != PhaseMove || s.Turn != c {
		return board.EmptySet
	}
	p, ok := s.Position.Board.PieceAt(from)
	if !ok || p.Color != c || !s.canAfford(c, p.Role) {
		return board.EmptySet
	}
	return chess.LegalDestinations(s.Position, from)
}
