package engine

import (
	"encoding/json"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
)

type CommandType string

const (
	CmdBid        CommandType = "Bid"
	CmdMove       CommandType = "Move"
	CmdDeductTime CommandType = "DeductTime"
	CmdTimeCheck  CommandType = "TimeCheck"
)

/*
	CmdBid        -> EvtBidPlaced -> (EvtAuctionWon) -> EvtAutoFold* ...
	CmdMove       -> EvtPieceMoved -> EvtFeeDeducted -> EvtIncomeEarned -> EvtInterestEarned -> EvtAutoFold* or EvtGameOver
	CmdDeductTime -> EvtTimeDeducted -> (EvtGameOver)
	CmdTimeCheck  -> (EvtGameOver)
*/

type Command struct {
	Type CommandType
	Bid  Bid
	Move chess.Move
	// ElapsedMs is used by CmdDeductTime and CmdTimeCheck; NowMs only by
	// CmdDeductTime, as the new resume timestamp.
	ElapsedMs int64
	NowMs     int64
}

func BidCommand(b Bid) Command         { return Command{Type: CmdBid, Bid: b} }
func MoveCommand(m chess.Move) Command { return Command{Type: CmdMove, Move: m} }

func DeductTimeCommand(elapsedMs, nowMs int64) Command {
	return Command{Type: CmdDeductTime, ElapsedMs: elapsedMs, NowMs: nowMs}
}

func TimeCheckCommand(elapsedMs int64) Command {
	return Command{Type: CmdTimeCheck, ElapsedMs: elapsedMs}
}

type EventType string

const (
	EvtBidPlaced      EventType = "BidPlaced"
	EvtAutoFold       EventType = "AutoFold"
	EvtAuctionWon     EventType = "AuctionWon"
	EvtPieceMoved     EventType = "PieceMoved"
	EvtFeeDeducted    EventType = "FeeDeducted"
	EvtIncomeEarned   EventType = "IncomeEarned"
	EvtInterestEarned EventType = "InterestEarned"
	EvtTimeDeducted   EventType = "TimeDeducted"
	EvtGameOver       EventType = "GameOver"
)

// Event describes one step of a transition. Only the fields relevant to the
// type are set.
type Event struct {
	Type     EventType        `json:"type"`
	Color    board.Color      `json:"color"`
	Amount   int64            `json:"amount,omitempty"`
	Amounts  *PerColor[int64] `json:"amounts,omitempty"`
	Bid      Bid              `json:"bid,omitempty"`
	Move     *chess.Move      `json:"move,omitempty"`
	Captured *board.Piece     `json:"captured,omitempty"`
	Outcome  *OutcomeRecord   `json:"outcome,omitempty"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var w struct {
		plain
		Bid json.RawMessage `json:"bid,omitempty"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event(w.plain)
	if len(w.Bid) > 0 && string(w.Bid) != "null" {
		b, err := ParseBid(w.Bid)
		if err != nil {
			return err
		}
		e.Bid = b
	}
	return nil
}
