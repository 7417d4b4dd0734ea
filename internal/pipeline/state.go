package pipeline

// State is the orchestrator's position in the playback state machine.
type State int

const (
	// StateIdle - no playback requested yet.
	StateIdle State = iota

	// StateClassifying - picking the source type and player family.
	StateClassifying

	// StateResolving - building the candidate list (embed fallbacks, probes).
	StateResolving

	// StateBinding - probing and creating an adapter for one candidate.
	StateBinding

	// StateBound - an adapter is bound; playback state comes from the adapter.
	StateBound

	// StateRetrying - waiting the fixed delay before the next attempt.
	StateRetrying

	// StateFailed - every attempt failed, or a terminal error stopped the run.
	StateFailed

	// StateDestroyed - torn down by the caller.
	StateDestroyed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifying:
		return "classifying"
	case StateResolving:
		return "resolving"
	case StateBinding:
		return "binding"
	case StateBound:
		return "bound"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state ends an execution.
func (s State) Terminal() bool {
	return s == StateBound || s == StateFailed || s == StateDestroyed
}
