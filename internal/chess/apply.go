package chess

import (
	"fmt"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
)

// Result is the outcome of a successfully applied move. Moved is the piece
// as it stood before the move, so a promoting pawn reports as a pawn.
type Result struct {
	Position Position
	Moved    board.Piece
	Captured *board.Piece
}

// ApplyMove plays m on pos and returns the new position. pos is not changed.
func ApplyMove(pos Position, m Move) (Result, error) {
	moved, ok := pos.Board.PieceAt(m.From)
	if !ok {
		return Result{}, fmt.Errorf("%w: no piece on %s", ErrIllegalDestination, m.From)
	}
	if !LegalDestinations(pos, m.From).Has(m.To) {
		return Result{}, fmt.Errorf("%w: %s", ErrIllegalDestination, m)
	}
	if err := validatePromotion(moved, m); err != nil {
		return Result{}, err
	}

	next := pos
	next.EPSquare = board.NoSquare
	var captured *board.Piece

	switch {
	case isCastle(moved, m):
		next.Board = castle(next.Board, moved, m)

	case isEnPassant(pos, moved, m):
		victimSq := m.To - pawnDelta(moved.Color)
		victim, ok := pos.Board.PieceAt(victimSq)
		if !ok || victim.Role != board.Pawn || victim.Color == moved.Color {
			return Result{}, fmt.Errorf("%w: target %s, victim square %s", ErrBrokenEnPassant, m.To, victimSq)
		}
		captured = &victim
		next.Board = next.Board.Remove(victimSq).Remove(m.From).Place(m.To, moved)

	default:
		if victim, ok := pos.Board.PieceAt(m.To); ok {
			captured = &victim
		}
		next.Board = next.Board.Remove(m.From).Place(m.To, moved)
	}

	if moved.Role == board.Pawn {
		if diff := m.To - m.From; diff == 16 || diff == -16 {
			next.EPSquare = (m.From + m.To) / 2
		}
		if m.Promotion != board.NoRole {
			next.Board = next.Board.Promote(m.To, m.Promotion)
		}
	}
	// Any king move, castling or not, gives up both of that side's rights.
	if moved.Role == board.King {
		next.CastlingRights = next.CastlingRights.Diff(board.Backrank(moved.Color))
	}
	next.CastlingRights = next.CastlingRights.Intersect(next.Board.Rook)

	return Result{Position: next, Moved: moved, Captured: captured}, nil
}

func validatePromotion(moved board.Piece, m Move) error {
	if m.Promotion == board.NoRole {
		return nil
	}
	if moved.Role != board.Pawn || !board.Backranks.Has(m.To) {
		return fmt.Errorf("%w: %s cannot promote", ErrIllegalDestination, m)
	}
	for _, r := range promotionRoles {
		if r == m.Promotion {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot promote to %s", ErrIllegalDestination, m.Promotion)
}

func isCastle(moved board.Piece, m Move) bool {
	if moved.Role != board.King || m.From.File() != kingFile {
		return false
	}
	df := m.To.File() - m.From.File()
	return m.From.Rank() == m.To.Rank() && (df == 2 || df == -2)
}

func isEnPassant(pos Position, moved board.Piece, m Move) bool {
	return moved.Role == board.Pawn &&
		m.To == pos.EPSquare &&
		m.From.File() != m.To.File() &&
		!pos.Board.Occupied.Has(m.To)
}

// castle moves the king and the rook from the matching corner.
func castle(b board.Board, king board.Piece, m Move) board.Board {
	rank := m.From.Rank()
	rookFrom, _ := board.SquareFromCoords(kingRookFile, rank)
	rookTo, _ := board.SquareFromCoords(kingRookTarget, rank)
	if m.To.File() == queenSideFile {
		rookFrom, _ = board.SquareFromCoords(queenRookFile, rank)
		rookTo, _ = board.SquareFromCoords(queenRookTarget, rank)
	}
	rook, _ := b.PieceAt(rookFrom)
	return b.Remove(m.From).Place(m.To, king).Remove(rookFrom).Place(rookTo, rook)
}
