package engine

import (
	"encoding/json"
	"fmt"
)

// Bid is either a Raise or a Fold.
type Bid interface{ isBid() }

type Raise struct {
	Amount int64
}

func (Raise) isBid() {}

type Fold struct{}

func (Fold) isBid() {}

type bidJSON struct {
	Amount int64 `json:"amount,omitempty"`
	Fold   bool  `json:"fold"`
}

func (r Raise) MarshalJSON() ([]byte, error) {
	return json.Marshal(bidJSON{Amount: r.Amount})
}

func (Fold) MarshalJSON() ([]byte, error) {
	return json.Marshal(bidJSON{Fold: true})
}

// ParseBid decodes {"amount": n} or {"fold": true}.
func ParseBid(data []byte) (Bid, error) {
	var w bidJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if w.Fold {
		return Fold{}, nil
	}
	return Raise{Amount: w.Amount}, nil
}

// BidStack is the chronological list of bids in one auction round.
type BidStack []Bid

// LastAmount is the amount of the highest raise in the stack, 0 if none.
func (s BidStack) LastAmount() int64 {
	for i := len(s) - 1; i >= 0; i-- {
		if r, ok := s[i].(Raise); ok {
			return r.Amount
		}
	}
	return 0
}

func (s BidStack) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Bid(s))
}

func (s *BidStack) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(BidStack, 0, len(raw))
	for _, r := range raw {
		b, err := ParseBid(r)
		if err != nil {
			return err
		}
		out = append(out, b)
	}
	*s = out
	return nil
}
