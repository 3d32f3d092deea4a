package engine

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
)

// Apply runs one command against s. On success it returns the events of the
// transition and a new state; s itself is never modified. On error s is
// returned as is.
func Apply(s State, cmd Command) ([]Event, State, error) {
	var (
		t   *transition
		err error
	)
	switch cmd.Type {
	case CmdBid:
		t, err = submitBid(s, cmd.Bid)
	case CmdMove:
		t, err = submitMove(s, cmd.Move)
	case CmdDeductTime:
		t, err = deductTime(s, cmd.ElapsedMs, cmd.NowMs)
	case CmdTimeCheck:
		t, err = timeCheck(s, cmd.ElapsedMs)
	default:
		return nil, s, fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
	if err != nil {
		return nil, s, err
	}
	return t.log, t.s, nil
}

func SubmitBid(s State, b Bid) (State, error) {
	_, next, err := Apply(s, BidCommand(b))
	return next, err
}

func SubmitMove(s State, m chess.Move) (State, error) {
	_, next, err := Apply(s, MoveCommand(m))
	return next, err
}

// DeductTime charges elapsedMs to the side holding the turn. nowMs becomes
// the clock's resume timestamp. Without a clock, or on a finished game, the
// state is returned unchanged.
func DeductTime(s State, elapsedMs, nowMs int64) (State, error) {
	_, next, err := Apply(s, DeductTimeCommand(elapsedMs, nowMs))
	return next, err
}

// TimeCheck ends the game on time if elapsedMs already covers the remaining
// time of the side holding the turn.
func TimeCheck(s State, elapsedMs int64) (State, error) {
	_, next, err := Apply(s, TimeCheckCommand(elapsedMs))
	return next, err
}

// Replay builds a game from cfg and applies cmds in order, stopping at the
// first error.
func Replay(cfg Config, cmds []Command) (State, error) {
	s, err := CreateGame(cfg)
	if err != nil {
		return State{}, err
	}
	for i, cmd := range cmds {
		_, s, err = Apply(s, cmd)
		if err != nil {
			return s, fmt.Errorf("command %d (%s): %w", i, cmd.Type, err)
		}
	}
	return s, nil
}

// transition is a private working copy of a state plus the events emitted
// while changing it.
type transition struct {
	s   State
	log []Event
}

func begin(s State) *transition {
	return &transition{s: s.Clone()}
}

func (t *transition) emit(e Event) {
	t.log = append(t.log, e)
}

func submitBid(s State, b Bid) (*transition, error) {
	if s.Terminal() {
		return nil, ErrTerminalState
	}
	if s.Phase != PhaseBid {
		return nil, fmt.Errorf("%w: cannot bid during %s phase", ErrPhaseViolation, s.Phase)
	}

	switch b := b.(type) {
	case Raise:
		last := s.Auction.OpenStack().LastAmount()
		if b.Amount <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidAmount, b.Amount)
		}
		if b.Amount <= last {
			return nil, fmt.Errorf("%w: %d <= %d", ErrMustExceedPreviousBid, b.Amount, last)
		}
		if balance := s.Auction.Balance.Of(s.Turn); b.Amount > balance {
			return nil, fmt.Errorf("%w: bid %d, balance %d", ErrInsufficientFunds, b.Amount, balance)
		}
	case Fold:
	default:
		return nil, fmt.Errorf("%w: missing bid", ErrInvalidAmount)
	}

	t := begin(s)
	if err := t.exitBid(b); err != nil {
		return nil, err
	}
	return t, nil
}

func submitMove(s State, m chess.Move) (*transition, error) {
	if s.Terminal() {
		return nil, ErrTerminalState
	}
	if s.Phase != PhaseMove {
		return nil, fmt.Errorf("%w: cannot move during %s phase", ErrPhaseViolation, s.Phase)
	}

	piece, ok := s.Position.Board.PieceAt(m.From)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptySquareMove, m.From)
	}
	if piece.Color != s.Turn {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotYourPiece, piece.Role, m.From)
	}
	if fee := s.feeFor(piece.Role); fee > s.Auction.Balance.Of(s.Turn) {
		return nil, fmt.Errorf("%w: %s costs %d", ErrPieceTooExpensive, piece.Role, fee)
	}

	res, err := chess.ApplyMove(s.Position, m)
	if err != nil {
		if errors.Is(err, chess.ErrBrokenEnPassant) {
			return nil, fmt.Errorf("%w: %w", ErrInternalInvariant, err)
		}
		return nil, err
	}

	t := begin(s)
	if err := t.exitMove(m, res); err != nil {
		return nil, err
	}
	return t, nil
}

// enterBid hands the auction to c. A side that cannot meet the minimum bid
// folds at once.
func (t *transition) enterBid(c board.Color) error {
	t.s.Phase = PhaseBid
	t.s.Turn = c

	if balance := t.s.Auction.Balance.Of(c); balance < t.s.Auction.MinBid || balance == 0 {
		t.emit(Event{Type: EvtAutoFold, Color: c})
		return t.exitBid(Fold{})
	}
	return nil
}

// exitBid records b for the side holding the turn. Callers validate raises.
func (t *transition) exitBid(b Bid) error {
	a := &t.s.Auction
	open := len(a.BidHistory) - 1
	last := a.BidHistory[open].LastAmount()
	bidder := t.s.Turn

	a.BidHistory[open] = append(a.BidHistory[open], b)
	t.emit(Event{Type: EvtBidPlaced, Color: bidder, Bid: b})

	winner := bidder.Opposite()
	if _, ok := b.(Fold); !ok {
		a.MinBid = last + int64(len(a.BidHistory[open])) + 1
		return t.enterBid(winner)
	}

	balance := a.Balance.Of(winner)
	if balance < last {
		return fmt.Errorf("%w: %s owes %d with balance %d", ErrInternalInvariant, winner, last, balance)
	}
	a.Balance = a.Balance.With(winner, balance-last)
	a.BidHistory = append(a.BidHistory, BidStack{})
	a.MinBid = 1
	t.emit(Event{Type: EvtAuctionWon, Color: winner, Amount: last})
	t.enterMove(winner)
	return nil
}

// enterMove gives the move to c. With no affordable move left, c loses.
func (t *transition) enterMove(c board.Color) {
	t.s.Turn = c
	t.s.Phase = PhaseMove
	for range LegalMovesFor(t.s) {
		return
	}
	t.finish(Decisive{Winner: c.Opposite(), Reason: ReasonMate})
}

func (t *transition) exitMove(m chess.Move, res chess.Result) error {
	mover := t.s.Turn
	t.s.Position = res.Position
	t.emit(Event{Type: EvtPieceMoved, Color: mover, Move: &m, Captured: res.Captured})

	if fee := t.s.feeFor(res.Moved.Role); t.s.PieceFee != nil {
		t.s.Auction.Balance = t.s.Auction.Balance.With(mover, t.s.Auction.Balance.Of(mover)-fee)
		t.emit(Event{Type: EvtFeeDeducted, Color: mover, Amount: fee})
	}

	if !t.s.Position.Board.King.MoreThanOne() {
		t.finish(Decisive{Winner: mover, Reason: ReasonMate})
		return nil
	}

	t.earnIncome()
	t.earnInterest()
	return t.enterBid(mover.Opposite())
}

func (t *transition) finish(o Outcome) {
	t.s.Outcome = o
	if t.s.Clock != nil {
		t.s.Clock.LastResumedAt = nil
	}
	rec := RecordOf(o)
	t.emit(Event{Type: EvtGameOver, Color: t.s.Turn, Outcome: &rec})
}
