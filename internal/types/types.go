package types

import (
	"encoding/json"
	"fmt"

	"github.com/DoyleJ11/auction-chess-backend/internal/chess"
	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
)

// Client message types.
const (
	TypeBid  = "bid"
	TypeMove = "move"
)

// Server message types.
const (
	TypeSnapshot = "StateSnapshot"
	TypeAck      = "Ack"
	TypeError    = "Error"
)

type ClientMessage struct {
	Type string `json:"type"` // "bid" | "move"
	// Bid is kept raw so engine.ParseBid can reject malformed amounts.
	Bid  json.RawMessage `json:"bid,omitempty"`
	Move *chess.Move     `json:"move,omitempty"`
	// UCI is an alternative to Move, e.g. "e7e8q".
	UCI string `json:"uci,omitempty"`
}

// Command turns a client message into an engine command.
func (m ClientMessage) Command() (engine.Command, error) {
	switch m.Type {
	case TypeBid:
		b, err := engine.ParseBid(m.Bid)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.BidCommand(b), nil
	case TypeMove:
		if m.Move != nil {
			return engine.MoveCommand(*m.Move), nil
		}
		mv, err := chess.ParseMove(m.UCI)
		if err != nil {
			return engine.Command{}, fmt.Errorf("%w: %w", engine.ErrIllegalDestination, err)
		}
		return engine.MoveCommand(mv), nil
	default:
		return engine.Command{}, engine.ErrUnsupportedCommand
	}
}

type ServerMessage struct {
	Type    string         `json:"type"` // "StateSnapshot" | "Ack" | "Error"
	Version int            `json:"version,omitempty"`
	State   *engine.State  `json:"state,omitempty"`
	Events  []engine.Event `json:"events,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
}

func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: TypeError, Error: err.Error(), Code: engine.Kind(err)}
}
