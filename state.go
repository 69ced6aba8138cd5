package goSession

// State is the Manager lifecycle state.
type State uint8

const (
	// StateUninitialized is the state before Hydrate.
	StateUninitialized State = iota
	// StateHydrating is the state while Hydrate reads the store.
	StateHydrating
	// StateAuthenticated means a valid session is active.
	StateAuthenticated
	// StateUnauthenticated means no session is active.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Ready reports whether hydrate has resolved.
func (s State) Ready() bool {
	return s == StateAuthenticated || s == StateUnauthenticated
}
