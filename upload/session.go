package upload

import "fmt"

// State of an upload session.
type State int

const (
	// StateCreated ...
	StateCreated State = iota
	// StateTransferring ...
	StateTransferring
	// StateFinalizing ...
	StateFinalizing
	// StateSucceeded ...
	StateSucceeded
	// StateFailed ...
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateTransferring:
		return "transferring"
	case StateFinalizing:
		return "finalizing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var transitions = map[State]State{
	StateCreated:      StateTransferring,
	StateTransferring: StateFinalizing,
	StateFinalizing:   StateSucceeded,
}

// Session is the state of one upload. It is owned by a single Upload call
// and never shared.
type Session struct {
	ID         string
	Endpoint   string
	TotalBytes int64

	bytesTransferred int64
	state            State
}

func newSession(id, endpoint string, totalBytes int64) *Session {
	return &Session{
		ID:         id,
		Endpoint:   endpoint,
		TotalBytes: totalBytes,
		state:      StateCreated,
	}
}

// State ...
func (s *Session) State() State {
	return s.state
}

// BytesTransferred never decreases.
func (s *Session) BytesTransferred() int64 {
	return s.bytesTransferred
}

func (s *Session) advance(n int64) {
	if n > 0 {
		s.bytesTransferred += n
	}
}

func (s *Session) transition(to State) error {
	if s.state.Terminal() {
		return fmt.Errorf("session %s is already %s", s.ID, s.state)
	}
	if to == StateFailed || transitions[s.state] == to {
		s.state = to
		return nil
	}
	return fmt.Errorf("session %s: invalid transition %s -> %s", s.ID, s.state, to)
}

// fail marks the session failed and returns err unchanged.
func (s *Session) fail(err error) error {
	if !s.state.Terminal() {
		s.state = StateFailed
	}
	return err
}
