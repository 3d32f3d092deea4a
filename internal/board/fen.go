package board

import (
	"errors"
	"fmt"
	"strings"
)

// StartingFEN is the piece-placement field of the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN reads the piece-placement field of a FEN record. A full record is
// accepted; everything after the first space is ignored since turn, castling
// and en passant live in the game state.
func ParseFEN(fen string) (Board, error) {
	placement, _, _ := strings.Cut(strings.TrimSpace(fen), " ")
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	var b Board
	for i, rankStr := range ranks {
		if rankStr == "" {
			return Board{}, fmt.Errorf("%w: empty rank description", ErrInvalidFEN)
		}
		rank := 7 - i
		file := 0
		promoted := false
		for _, ch := range rankStr {
			switch {
			case ch >= '1' && ch <= '8':
				file += int(ch - '0')
			case ch == '~':
				promoted = true
				continue
			default:
				p, ok := pieceFromChar(ch)
				if !ok {
					return Board{}, fmt.Errorf("%w: unrecognized piece %q", ErrInvalidFEN, ch)
				}
				sq, ok := SquareFromCoords(file, rank)
				if !ok {
					return Board{}, fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
				}
				p.Promoted = promoted
				b = b.Place(sq, p)
				file++
			}
			promoted = false
		}
		if file != 8 {
			return Board{}, fmt.Errorf("%w: rank %d does not have 8 files", ErrInvalidFEN, rank+1)
		}
	}
	return b, nil
}

// FEN writes the piece-placement field. Promoted pieces are written without
// the '~' marker so standard board renderers can read the result.
func (b Board) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq, _ := SquareFromCoords(file, rank)
			p, ok := b.PieceAt(sq)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte('0' + byte(empty))
				empty = 0
			}
			sb.WriteByte(p.Char())
		}
		if empty > 0 {
			sb.WriteByte('0' + byte(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}
