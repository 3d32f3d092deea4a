package engine

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// EventsOf filters events by type, keeping their order.
func EventsOf(events []Event, eventType EventType) []Event {
	var out []Event
	for _, event := range events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// Winner returns the winning color of a finished game, if there is one.
func Winner(s State) (string, bool) {
	if s.Outcome == nil {
		return "", false
	}
	w, ok := s.Outcome.Victor()
	if !ok {
		return "", false
	}
	return w.String(), true
}
