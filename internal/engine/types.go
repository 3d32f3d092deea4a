package engine

import (
	"encoding/json"
	"slices"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
)

type Phase string

const (
	PhaseBid  Phase = "bid"
	PhaseMove Phase = "move"
)

// PerColor holds one value per side. It encodes as {"white": .., "black": ..}.
type PerColor[T any] [2]T

func Both[T any](v T) PerColor[T] { return PerColor[T]{v, v} }

func (p PerColor[T]) Of(c board.Color) T { return p[c] }

func (p PerColor[T]) With(c board.Color, v T) PerColor[T] {
	p[c] = v
	return p
}

func (p PerColor[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		White T `json:"white"`
		Black T `json:"black"`
	}{p[board.White], p[board.Black]})
}

func (p *PerColor[T]) UnmarshalJSON(data []byte) error {
	var w struct {
		White T `json:"white"`
		Black T `json:"black"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p[board.White], p[board.Black] = w.White, w.Black
	return nil
}

// RoleValues maps each role to an amount, used for both fees and income.
type RoleValues struct {
	Pawn   int64 `json:"pawn"`
	Knight int64 `json:"knight"`
	Bishop int64 `json:"bishop"`
	Rook   int64 `json:"rook"`
	Queen  int64 `json:"queen"`
	King   int64 `json:"king"`
}

func (v RoleValues) Of(r board.Role) int64 {
	switch r {
	case board.Pawn:
		return v.Pawn
	case board.Knight:
		return v.Knight
	case board.Bishop:
		return v.Bishop
	case board.Rook:
		return v.Rook
	case board.Queen:
		return v.Queen
	case board.King:
		return v.King
	}
	return 0
}

func (v RoleValues) anyNegative() bool {
	for _, r := range board.Roles {
		if v.Of(r) < 0 {
			return true
		}
	}
	return false
}

type Auction struct {
	Balance PerColor[int64] `json:"balance"`
	// BidHistory always holds at least one stack; the last one is the open
	// round.
	BidHistory   []BidStack `json:"bidHistory"`
	MinBid       int64      `json:"minBid"`
	InterestRate float64    `json:"interestRate"`
}

// OpenStack returns the bids of the current round.
func (a Auction) OpenStack() BidStack {
	if len(a.BidHistory) == 0 {
		return nil
	}
	return a.BidHistory[len(a.BidHistory)-1]
}

// Clock keeps remaining milliseconds per side. LastResumedAt is the unix
// millisecond timestamp the running clock was last resumed, nil when paused.
type Clock struct {
	Remaining     PerColor[int64] `json:"remaining"`
	LastResumedAt *int64          `json:"lastResumedAt"`
}

func (c Clock) Running() bool { return c.LastResumedAt != nil }

// State is the whole game. Values are never shared between states: every
// transition works on a Clone.
type State struct {
	HostColor   board.Color
	Position    chess.Position
	Auction     Auction
	Clock       *Clock
	Turn        board.Color
	Phase       Phase
	Outcome     Outcome
	PieceIncome *RoleValues
	PieceFee    *RoleValues
}

func (s State) Terminal() bool { return s.Outcome != nil }

func (s State) Clone() State {
	out := s
	out.Auction.BidHistory = make([]BidStack, len(s.Auction.BidHistory))
	for i, stack := range s.Auction.BidHistory {
		out.Auction.BidHistory[i] = slices.Clone(stack)
	}
	if s.Clock != nil {
		c := *s.Clock
		if s.Clock.LastResumedAt != nil {
			at := *s.Clock.LastResumedAt
			c.LastResumedAt = &at
		}
		out.Clock = &c
	}
	if s.PieceIncome != nil {
		v := *s.PieceIncome
		out.PieceIncome = &v
	}
	if s.PieceFee != nil {
		v := *s.PieceFee
		out.PieceFee = &v
	}
	return out
}

// FEN returns the piece placement of the current position.
func (s State) FEN() string { return s.Position.Board.FEN() }

type stateJSON struct {
	HostColor   board.Color    `json:"hostColor"`
	Position    chess.Position `json:"chessState"`
	Auction     Auction        `json:"auctionState"`
	Clock       *Clock         `json:"timeState,omitempty"`
	Turn        board.Color    `json:"turn"`
	Phase       Phase          `json:"phase"`
	Outcome     *OutcomeRecord `json:"outcome,omitempty"`
	PieceIncome *RoleValues    `json:"pieceIncome,omitempty"`
	PieceFee    *RoleValues    `json:"pieceFee,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	w := stateJSON{
		HostColor:   s.HostColor,
		Position:    s.Position,
		Auction:     s.Auction,
		Clock:       s.Clock,
		Turn:        s.Turn,
		Phase:       s.Phase,
		PieceIncome: s.PieceIncome,
		PieceFee:    s.PieceFee,
	}
	if s.Outcome != nil {
		rec := RecordOf(s.Outcome)
		w.Outcome = &rec
	}
	return json.Marshal(w)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var w stateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = State{
		HostColor:   w.HostColor,
		Position:    w.Position,
		Auction:     w.Auction,
		Clock:       w.Clock,
		Turn:        w.Turn,
		Phase:       w.Phase,
		PieceIncome: w.PieceIncome,
		PieceFee:    w.PieceFee,
	}
	if len(s.Auction.BidHistory) == 0 {
		s.Auction.BidHistory = []BidStack{{}}
	}
	if w.Outcome != nil {
		s.Outcome = w.Outcome.Outcome()
	}
	return nil
}
