package chess

import (
	"iter"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
)

// Kings start on the e-file; castling lands them on c or g.
const (
	kingFile        = 4
	queenSideFile   = 2
	kingSideFile    = 6
	queenRookFile   = 0
	kingRookFile    = 7
	queenRookTarget = 3
	kingRookTarget  = 5
)

var promotionRoles = [4]board.Role{board.Queen, board.Rook, board.Bishop, board.Knight}

func pawnDelta(c board.Color) board.Square {
	if c == board.White {
		return 8
	}
	return -8
}

// epRank is the rank (0-based) an en passant target must sit on for c to
// capture onto it.
func epRank(c board.Color) int {
	if c == board.White {
		return 5
	}
	return 2
}

func pawnHasMoved(c board.Color, from board.Square) bool {
	if c == board.White {
		return from >= 16
	}
	return from < 48
}

// IsInCheck reports whether the king of c is attacked. A missing king counts
// as in check.
func IsInCheck(b board.Board, c board.Color) bool {
	king, ok := b.Pieces(c, board.King).First()
	if !ok {
		return true
	}
	return !AttackersTo(king, c.Opposite(), b).IsEmpty()
}

// LegalDestinations returns where the piece on from may go. Moving into
// check is allowed; a game ends when a king is captured.
func LegalDestinations(pos Position, from board.Square) board.SquareSet {
	p, ok := pos.Board.PieceAt(from)
	if !ok {
		return board.EmptySet
	}
	own := pos.Board.ByColor(p.Color)

	switch p.Role {
	case board.Pawn:
		return pawnDestinations(pos, p.Color, from)
	case board.King:
		return KingAttacks(from).Diff(own).Union(castlingDestinations(pos, p.Color, from))
	default:
		return Attacks(p, from, pos.Board.Occupied).Diff(own)
	}
}

func pawnDestinations(pos Position, c board.Color, from board.Square) board.SquareSet {
	b := pos.Board
	var dests board.SquareSet

	delta := pawnDelta(c)
	if push := from + delta; push.Valid() && !b.Occupied.Has(push) {
		dests = dests.With(push)
		if double := push + delta; !pawnHasMoved(c, from) && double.Valid() && !b.Occupied.Has(double) {
			dests = dests.With(double)
		}
	}

	attacks := PawnAttacks(c, from)
	dests = dests.Union(attacks.Intersect(b.ByColor(c.Opposite())))
	if ep := pos.EPSquare; ep.Valid() && ep.Rank() == epRank(c) && attacks.Has(ep) {
		dests = dests.With(ep)
	}
	return dests
}

func castlingDestinations(pos Position, c board.Color, king board.Square) board.SquareSet {
	b := pos.Board
	home, _ := board.SquareFromCoords(kingFile, homeRank(c))
	if king != home || IsInCheck(b, c) {
		return board.EmptySet
	}

	var dests board.SquareSet
	rooks := b.Pieces(c, board.Rook)
	for corner := range pos.CastlingRights.Intersect(board.Backrank(c)).All() {
		if !rooks.Has(corner) || !Between(king, corner).Intersect(b.Occupied).IsEmpty() {
			continue
		}
		file := kingSideFile
		if corner.File() == queenRookFile {
			file = queenSideFile
		}
		to, _ := board.SquareFromCoords(file, homeRank(c))
		dests = dests.With(to)
	}
	return dests
}

func homeRank(c board.Color) int {
	if c == board.White {
		return 0
	}
	return 7
}

// LegalMoves yields every move of color c, expanding promotions whenever a
// pawn lands on a back rank. The sequence is computed lazily from pos.
func LegalMoves(pos Position, c board.Color) iter.Seq[Move] {
	return func(yield func(Move) bool) {
		for from := range pos.Board.ByColor(c).All() {
			isPawn := pos.Board.Pawn.Has(from)
			for to := range LegalDestinations(pos, from).All() {
				if isPawn && board.Backranks.Has(to) {
					for _, r := range promotionRoles {
						if !yield(Move{From: from, To: to, Promotion: r}) {
							return
						}
					}
					continue
				}
				if !yield(Move{From: from, To: to}) {
					return
				}
			}
		}
	}
}
