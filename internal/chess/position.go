package chess

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
)

var (
	ErrIllegalDestination = errors.New("illegal destination")
	// ErrBrokenEnPassant means the en passant target does not line up with a
	// capturable pawn. Legal destinations never produce it on a consistent
	// position.
	ErrBrokenEnPassant = errors.New("en passant victim missing")
)

// Position is a board plus the rights that do not show on it. Turn is kept
// by the game state, not here.
type Position struct {
	Board board.Board
	// CastlingRights holds the rook corners still eligible for castling.
	CastlingRights board.SquareSet
	// EPSquare is the square skipped by the last two-square pawn advance, or
	// board.NoSquare.
	EPSquare board.Square
}

func Standard() Position {
	return Position{
		Board:          board.Standard(),
		CastlingRights: board.Corners,
		EPSquare:       board.NoSquare,
	}
}

// FromFEN builds a position from a piece placement. Castling rights are
// granted to every corner still holding a rook; there is no en passant
// square.
func FromFEN(fen string) (Position, error) {
	b, err := board.ParseFEN(fen)
	if err != nil {
		return Position{}, err
	}
	return Position{
		Board:          b,
		CastlingRights: board.Corners.Intersect(b.Rook),
		EPSquare:       board.NoSquare,
	}, nil
}

type positionJSON struct {
	Board          board.Board     `json:"board"`
	CastlingRights board.SquareSet `json:"castlingRights"`
	EPSquare       *board.Square   `json:"epSquare,omitempty"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	w := positionJSON{Board: p.Board, CastlingRights: p.CastlingRights}
	if p.EPSquare.Valid() {
		ep := p.EPSquare
		w.EPSquare = &ep
	}
	return json.Marshal(w)
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var w positionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Board = w.Board
	p.CastlingRights = w.CastlingRights
	p.EPSquare = board.NoSquare
	if w.EPSquare != nil {
		if !w.EPSquare.Valid() {
			return fmt.Errorf("epSquare out of range: %d", *w.EPSquare)
		}
		p.EPSquare = *w.EPSquare
	}
	return nil
}

// Move is a normal move. Promotion is board.NoRole unless a pawn reaches a
// back rank.
type Move struct {
	From      board.Square `json:"from"`
	To        board.Square `json:"to"`
	Promotion board.Role   `json:"promotion,omitempty"`
}

// String renders the move in UCI form, e.g. "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != board.NoRole {
		s += string(board.Piece{Color: board.Black, Role: m.Promotion}.Char())
	}
	return s
}

// ParseMove reads UCI notation such as "e2e4" or "a7a8q".
func ParseMove(uci string) (Move, error) {
	if len(uci) != 4 && len(uci) != 5 {
		return Move{}, fmt.Errorf("invalid move %q", uci)
	}
	from, err := board.ParseSquare(uci[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := board.ParseSquare(uci[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{From: from, To: to}
	if len(uci) == 5 {
		switch uci[4] {
		case 'n':
			m.Promotion = board.Knight
		case 'b':
			m.Promotion = board.Bishop
		case 'r':
			m.Promotion = board.Rook
		case 'q':
			m.Promotion = board.Queen
		default:
			return Move{}, fmt.Errorf("invalid promotion in %q", uci)
		}
	}
	return m, nil
}
