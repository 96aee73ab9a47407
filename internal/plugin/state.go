package plugin

import "log/slog"

// State is a step of a single send.
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateDone
	StateCanceled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateDone:
		return "done"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition may follow.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCanceled || s == StateFailed
}

// sendState tracks one send and logs its transitions.
type sendState struct {
	logger  *slog.Logger
	current State
}

func newSendState(logger *slog.Logger) *sendState {
	return &sendState{logger: logger, current: StateIdle}
}

func (s *sendState) to(next State) {
	if s.current.Terminal() {
		return
	}
	s.logger.Debug("send: state change", "from", s.current.String(), "to", next.String())
	s.current = next
}
