package engine

import (
	"fmt"
	"time"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
)

// Defaults offered to config builders. CreateGame never falls back to them.
const (
	DefaultTimeMs       = int64(5 * time.Minute / time.Millisecond)
	DefaultInterestRate = 0.05
)

func DefaultPieceIncome() RoleValues {
	return RoleValues{Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 11}
}

func DefaultPieceFee() RoleValues {
	return RoleValues{Pawn: 1, Knight: 9, Bishop: 9, Rook: 25, Queen: 81, King: 111}
}

type TimeConfig struct {
	Enabled   bool            `json:"enabled"`
	InitialMs PerColor[int64] `json:"initTime"`
}

type InterestConfig struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`
}

type IncomeConfig struct {
	Enabled bool       `json:"enabled"`
	Values  RoleValues `json:"pieceIncome"`
}

type FeeConfig struct {
	Enabled bool       `json:"enabled"`
	Values  RoleValues `json:"pieceFee"`
}

type AuctionConfig struct {
	InitBalance PerColor[int64] `json:"initBalance"`
}

// Config describes a game before it starts. The initial balances have no
// default and must be positive for both colors.
type Config struct {
	HostColor   board.Color    `json:"hostColor"`
	Auction     AuctionConfig  `json:"auctionConfig"`
	Time        TimeConfig     `json:"timeConfig"`
	Interest    InterestConfig `json:"interestConfig"`
	PieceIncome IncomeConfig   `json:"pieceIncomeConfig"`
	PieceFee    FeeConfig      `json:"pieceFeeConfig"`
}

func (c Config) Validate() error {
	for _, color := range board.Colors {
		if b := c.Auction.InitBalance.Of(color); b <= 0 {
			return fmt.Errorf("%w: %s initial balance must be positive, got %d", ErrInvalidConfig, color, b)
		}
	}
	if c.Time.Enabled {
		for _, color := range board.Colors {
			if ms := c.Time.InitialMs.Of(color); ms <= 0 {
				return fmt.Errorf("%w: %s initial time must be positive, got %d", ErrInvalidConfig, color, ms)
			}
		}
	}
	if c.Interest.Enabled && c.Interest.Rate < 0 {
		return fmt.Errorf("%w: negative interest rate %v", ErrInvalidConfig, c.Interest.Rate)
	}
	if c.PieceIncome.Enabled && c.PieceIncome.Values.anyNegative() {
		return fmt.Errorf("%w: negative piece income", ErrInvalidConfig)
	}
	if c.PieceFee.Enabled && c.PieceFee.Values.anyNegative() {
		return fmt.Errorf("%w: negative piece fee", ErrInvalidConfig)
	}
	return nil
}

// CreateGame returns the starting state: standard position, white to bid,
// one empty round open. The clock, if any, starts paused.
func CreateGame(cfg Config) (State, error) {
	if err := cfg.Validate(); err != nil {
		return State{}, err
	}

	s := State{
		HostColor: cfg.HostColor,
		Position:  chess.Standard(),
		Auction: Auction{
			Balance:    cfg.Auction.InitBalance,
			BidHistory: []BidStack{{}},
			MinBid:     1,
		},
		Turn:  board.White,
		Phase: PhaseBid,
	}
	if cfg.Interest.Enabled {
		s.Auction.InterestRate = cfg.Interest.Rate
	}
	if cfg.Time.Enabled {
		s.Clock = &Clock{Remaining: cfg.Time.InitialMs}
	}
	if cfg.PieceIncome.Enabled {
		v := cfg.PieceIncome.Values
		s.PieceIncome = &v
	}
	if cfg.PieceFee.Enabled {
		v := cfg.PieceFee.Values
		s.PieceFee = &v
	}
	return s, nil
}
