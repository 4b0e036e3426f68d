package tenant

import "fmt"

// State tracks where a request is in its scoping lifecycle.
type State uint8

const (
	// StateUnresolved is the initial state before resolution starts.
	StateUnresolved State = iota
	// StateResolving means the host is being mapped to a tenant.
	StateResolving
	// StateScoped means the database session is bound to the resolved schema
	// and the handler is running.
	StateScoped
	// StateCompleted means the request finished and the session's search
	// path was restored.
	StateCompleted
	// StateFailed means resolution or scoping failed and the request was
	// short-circuited before any tenant-scoped query could run.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateScoped:
		return "scoped"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// validTransitions encodes the per-request lifecycle:
// unresolved -> resolving -> scoped -> completed, with failed reachable from
// resolving and scoped.
var validTransitions = map[State][]State{
	StateUnresolved: {StateResolving},
	StateResolving:  {StateScoped, StateFailed},
	StateScoped:     {StateCompleted, StateFailed},
}

// Lifecycle is the per-request scoping state machine. Not safe for concurrent
// use; one request is handled by one worker at a time.
type Lifecycle struct {
	current State
}

// NewLifecycle starts a lifecycle in StateUnresolved.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{current: StateUnresolved}
}

// Current returns the current state.
func (l *Lifecycle) Current() State {
	return l.current
}

// To advances the lifecycle, rejecting transitions the request flow does not
// allow (for example completing a request that was never scoped).
func (l *Lifecycle) To(next State) error {
	for _, allowed := range validTransitions[l.current] {
		if next == allowed {
			l.current = next
			return nil
		}
	}
	return fmt.Errorf("invalid lifecycle transition %s -> %s", l.current, next)
}
