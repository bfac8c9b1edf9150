package nfcsession

// State is the observable lifecycle state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StatePending
	StateInert
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateInert:
		return "inert"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
