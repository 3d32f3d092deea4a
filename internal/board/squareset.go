package board

import (
	"encoding/json"
	"iter"
	"math/bits"
)

// SquareSet is a 64-bit set of squares, bit i standing for square i.
type SquareSet uint64

const (
	EmptySet SquareSet = 0
	FullSet  SquareSet = ^EmptySet

	Rank1 SquareSet = 0xff
	Rank8 SquareSet = Rank1 << 56

	// Corners are the four rook home squares that can carry castling rights.
	Corners SquareSet = 1<<0 | 1<<7 | 1<<56 | 1<<63
)

// Backranks holds both first and last ranks, where pawns promote.
var Backranks = Rank1 | Rank8

func SquareSetOf(squares ...Square) SquareSet {
	var s SquareSet
	for _, sq := range squares {
		s = s.With(sq)
	}
	return s
}

// Backrank returns the home rank of a color.
func Backrank(c Color) SquareSet {
	if c == White {
		return Rank1
	}
	return Rank8
}

func (s SquareSet) Has(sq Square) bool {
	return sq.Valid() && s&(1<<uint(sq)) != 0
}

func (s SquareSet) With(sq Square) SquareSet {
	if !sq.Valid() {
		return s
	}
	return s | 1<<uint(sq)
}

func (s SquareSet) Without(sq Square) SquareSet {
	if !sq.Valid() {
		return s
	}
	return s &^ (1 << uint(sq))
}

func (s SquareSet) Union(o SquareSet) SquareSet     { return s | o }
func (s SquareSet) Intersect(o SquareSet) SquareSet { return s & o }
func (s SquareSet) Diff(o SquareSet) SquareSet      { return s &^ o }
func (s SquareSet) IsEmpty() bool                   { return s == 0 }
func (s SquareSet) Count() int                      { return bits.OnesCount64(uint64(s)) }
func (s SquareSet) MoreThanOne() bool               { return s&(s-1) != 0 }

func (s SquareSet) First() (Square, bool) {
	if s == 0 {
		return NoSquare, false
	}
	return Square(bits.TrailingZeros64(uint64(s))), true
}

func (s SquareSet) Last() (Square, bool) {
	if s == 0 {
		return NoSquare, false
	}
	return Square(63 - bits.LeadingZeros64(uint64(s))), true
}

// All yields the squares of the set in ascending order.
func (s SquareSet) All() iter.Seq[Square] {
	return func(yield func(Square) bool) {
		for rest := s; rest != 0; rest &= rest - 1 {
			if !yield(Square(bits.TrailingZeros64(uint64(rest)))) {
				return
			}
		}
	}
}

// Lo and Hi split the set into two 32-bit halves for the wire format.
func (s SquareSet) Lo() uint32 { return uint32(s) }
func (s SquareSet) Hi() uint32 { return uint32(s >> 32) }

func SquareSetFromHalves(lo, hi uint32) SquareSet {
	return SquareSet(uint64(hi)<<32 | uint64(lo))
}

type squareSetJSON struct {
	Lo uint32 `json:"lo"`
	Hi uint32 `json:"hi"`
}

func (s SquareSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(squareSetJSON{Lo: s.Lo(), Hi: s.Hi()})
}

func (s *SquareSet) UnmarshalJSON(data []byte) error {
	var w squareSetJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = SquareSetFromHalves(w.Lo, w.Hi)
	return nil
}
