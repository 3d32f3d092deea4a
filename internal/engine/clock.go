package engine

import "fmt"

func deductTime(s State, elapsedMs, nowMs int64) (*transition, error) {
	t := begin(s)
	if s.Clock == nil || s.Terminal() {
		return t, nil
	}
	if elapsedMs < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidElapsed, elapsedMs)
	}

	c := t.s.Clock
	remaining := c.Remaining.Of(s.Turn) - elapsedMs
	t.emit(Event{Type: EvtTimeDeducted, Color: s.Turn, Amount: elapsedMs})
	if remaining >= 0 {
		c.Remaining = c.Remaining.With(s.Turn, remaining)
		c.LastResumedAt = &nowMs
		return t, nil
	}

	c.Remaining = c.Remaining.With(s.Turn, 0)
	t.finish(Decisive{Winner: s.Turn.Opposite(), Reason: ReasonTimeout})
	return t, nil
}

func timeCheck(s State, elapsedMs int64) (*transition, error) {
	if s.Clock == nil {
		return nil, ErrClockDisabled
	}
	if elapsedMs < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidElapsed, elapsedMs)
	}
	t := begin(s)
	if s.Terminal() || elapsedMs < s.Clock.Remaining.Of(s.Turn) {
		return t, nil
	}

	t.s.Clock.Remaining = t.s.Clock.Remaining.With(s.Turn, 0)
	t.finish(Decisive{Winner: s.Turn.Opposite(), Reason: ReasonTimeout})
	return t, nil
}

// Elapsed returns the milliseconds since the clock was last resumed, or 0
// when there is no running clock.
func Elapsed(s State, nowMs int64) int64 {
	if s.Clock == nil || s.Clock.LastResumedAt == nil || s.Terminal() {
		return 0
	}
	return max(nowMs-*s.Clock.LastResumedAt, 0)
}

// RemainingAt is the time left to the side holding the turn at nowMs.
func RemainingAt(s State, nowMs int64) (int64, bool) {
	if s.Clock == nil || s.Terminal() {
		return 0, false
	}
	return max(s.Clock.Remaining.Of(s.Turn)-Elapsed(s, nowMs), 0), true
}
