package board

import (
	"errors"
	"fmt"
)

var ErrUnknownColor = errors.New("unknown color")
var ErrUnknownRole = errors.New("unknown role")

type Color uint8

const (
	White Color = iota
	Black
)

var Colors = [2]Color{White, Black}

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white":
		*c = White
	case "black":
		*c = Black
	default:
		return fmt.Errorf("%w: %q", ErrUnknownColor, text)
	}
	return nil
}

// Role is a colorless piece kind. NoRole is the zero value so an absent
// promotion can be omitted from JSON.
type Role uint8

const (
	NoRole Role = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var Roles = [6]Role{Pawn, Knight, Bishop, Rook, Queen, King}

func (r Role) String() string {
	switch r {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return fmt.Sprintf("role(%d)", r)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if r < Pawn || r > King {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	for _, role := range Roles {
		if role.String() == string(text) {
			*r = role
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownRole, text)
}

type Piece struct {
	Color    Color `json:"color"`
	Role     Role  `json:"role"`
	Promoted bool  `json:"promoted,omitempty"`
}

// Char returns the FEN letter for the piece, uppercase for white.
func (p Piece) Char() byte {
	var c byte
	switch p.Role {
	case Pawn:
		c = 'p'
	case Knight:
		c = 'n'
	case Bishop:
		c = 'b'
	case Rook:
		c = 'r'
	case Queen:
		c = 'q'
	case King:
		c = 'k'
	default:
		return '?'
	}
	if p.Color == White {
		c -= 'a' - 'A'
	}
	return c
}

func pieceFromChar(ch rune) (Piece, bool) {
	color := White
	if ch >= 'a' && ch <= 'z' {
		color = Black
		ch -= 'a' - 'A'
	}
	var role Role
	switch ch {
	case 'P':
		role = Pawn
	case 'N':
		role = Knight
	case 'B':
		role = Bishop
	case 'R':
		role = Rook
	case 'Q':
		role = Queen
	case 'K':
		role = King
	default:
		return Piece{}, false
	}
	return Piece{Color: color, Role: role}, true
}

// Square indexes the board a1=0 .. h8=63. NoSquare marks an absent square.
type Square int8

const NoSquare Square = -1

func SquareFromCoords(file, rank int) (Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, false
	}
	return Square(rank*8 + file), true
}

func (s Square) Valid() bool { return s >= 0 && s < 64 }
func (s Square) Rank() int   { return int(s) >> 3 }
func (s Square) File() int   { return int(s) & 7 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{'a' + byte(s.File()), '1' + byte(s.Rank())})
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(name string) (Square, error) {
	if len(name) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", name)
	}
	sq, ok := SquareFromCoords(int(name[0]-'a'), int(name[1]-'1'))
	if !ok {
		return NoSquare, fmt.Errorf("invalid square %q", name)
	}
	return sq, nil
}
