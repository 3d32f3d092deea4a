package chess

import (
	"math/bits"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
)

type direction int

// Positive directions grow the square index, negative ones shrink it.
const (
	dirN direction = iota
	dirE
	dirNE
	dirNW
	dirS
	dirW
	dirSW
	dirSE
	numDirections
)

var directionDelta = [numDirections][2]int{
	dirN:  {0, 1},
	dirE:  {1, 0},
	dirNE: {1, 1},
	dirNW: {-1, 1},
	dirS:  {0, -1},
	dirW:  {-1, 0},
	dirSW: {-1, -1},
	dirSE: {1, -1},
}

var (
	knightAttacks [64]board.SquareSet
	kingAttacks   [64]board.SquareSet
	pawnAttacks   [2][64]board.SquareSet
	rays          [numDirections][64]board.SquareSet
)

func init() {
	initLeaperTables()
	initRays()
}

func initLeaperTables() {
	knightOffsets := [8][2]int{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
	kingOffsets := [8][2]int{
		{0, 1}, {1, 1}, {1, 0}, {1, -1},
		{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	}

	for s := board.Square(0); s < 64; s++ {
		file, rank := s.File(), s.Rank()
		for _, off := range knightOffsets {
			if to, ok := board.SquareFromCoords(file+off[0], rank+off[1]); ok {
				knightAttacks[s] = knightAttacks[s].With(to)
			}
		}
		for _, off := range kingOffsets {
			if to, ok := board.SquareFromCoords(file+off[0], rank+off[1]); ok {
				kingAttacks[s] = kingAttacks[s].With(to)
			}
		}
		for _, df := range [2]int{-1, 1} {
			if to, ok := board.SquareFromCoords(file+df, rank+1); ok {
				pawnAttacks[board.White][s] = pawnAttacks[board.White][s].With(to)
			}
			if to, ok := board.SquareFromCoords(file+df, rank-1); ok {
				pawnAttacks[board.Black][s] = pawnAttacks[board.Black][s].With(to)
			}
		}
	}
}

func initRays() {
	for d := direction(0); d < numDirections; d++ {
		for s := board.Square(0); s < 64; s++ {
			file, rank := s.File(), s.Rank()
			for {
				file += directionDelta[d][0]
				rank += directionDelta[d][1]
				to, ok := board.SquareFromCoords(file, rank)
				if !ok {
					break
				}
				rays[d][s] = rays[d][s].With(to)
			}
		}
	}
}

// slide returns the ray from sq in direction d cut after the first blocker.
func slide(d direction, sq board.Square, occupied board.SquareSet) board.SquareSet {
	ray := rays[d][sq]
	blockers := uint64(ray & occupied)
	if blockers == 0 {
		return ray
	}
	var first int
	if d < dirS {
		first = bits.TrailingZeros64(blockers)
	} else {
		first = 63 - bits.LeadingZeros64(blockers)
	}
	return ray.Diff(rays[d][first])
}

func RookAttacks(sq board.Square, occupied board.SquareSet) board.SquareSet {
	return slide(dirN, sq, occupied) | slide(dirE, sq, occupied) |
		slide(dirS, sq, occupied) | slide(dirW, sq, occupied)
}

func BishopAttacks(sq board.Square, occupied board.SquareSet) board.SquareSet {
	return slide(dirNE, sq, occupied) | slide(dirNW, sq, occupied) |
		slide(dirSE, sq, occupied) | slide(dirSW, sq, occupied)
}

func QueenAttacks(sq board.Square, occupied board.SquareSet) board.SquareSet {
	return RookAttacks(sq, occupied) | BishopAttacks(sq, occupied)
}

func KnightAttacks(sq board.Square) board.SquareSet { return knightAttacks[sq] }
func KingAttacks(sq board.Square) board.SquareSet   { return kingAttacks[sq] }

func PawnAttacks(c board.Color, sq board.Square) board.SquareSet {
	return pawnAttacks[c][sq]
}

// Attacks returns the squares a piece standing on sq attacks.
func Attacks(p board.Piece, sq board.Square, occupied board.SquareSet) board.SquareSet {
	if !sq.Valid() {
		return board.EmptySet
	}
	switch p.Role {
	case board.Pawn:
		return PawnAttacks(p.Color, sq)
	case board.Knight:
		return KnightAttacks(sq)
	case board.Bishop:
		return BishopAttacks(sq, occupied)
	case board.Rook:
		return RookAttacks(sq, occupied)
	case board.Queen:
		return QueenAttacks(sq, occupied)
	case board.King:
		return KingAttacks(sq)
	}
	return board.EmptySet
}

// Between returns the squares strictly between a and b when they share a
// rank, file or diagonal, and the empty set otherwise.
func Between(a, b board.Square) board.SquareSet {
	if !a.Valid() || !b.Valid() {
		return board.EmptySet
	}
	for d := direction(0); d < dirS; d++ {
		if rays[d][a].Has(b) {
			return rays[d][a].Intersect(rays[d+dirS][b])
		}
		if rays[d][b].Has(a) {
			return rays[d][b].Intersect(rays[d+dirS][a])
		}
	}
	return board.EmptySet
}

// AttackersTo returns the pieces of color attacker that attack sq.
func AttackersTo(sq board.Square, attacker board.Color, b board.Board) board.SquareSet {
	occ := b.Occupied
	attackers := RookAttacks(sq, occ).Intersect(b.Queen.Union(b.Rook)).
		Union(BishopAttacks(sq, occ).Intersect(b.Queen.Union(b.Bishop))).
		Union(KnightAttacks(sq).Intersect(b.Knight)).
		Union(KingAttacks(sq).Intersect(b.King)).
		Union(PawnAttacks(attacker.Opposite(), sq).Intersect(b.Pawn))
	return attackers.Intersect(b.ByColor(attacker))
}
