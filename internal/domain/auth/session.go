package auth

// Status is the lifecycle position of the portal session.
type Status uint8

const (
	// StatusInitializing means persisted data has not been read yet.
	StatusInitializing Status = iota
	// StatusAnonymous means no identity is active.
	StatusAnonymous
	// StatusActive means an identity is authoritative.
	StatusActive
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAnonymous:
		return "anonymous"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// Source records where the active identity came from.
type Source uint8

const (
	SourceReal Source = iota + 1
	SourceSynthetic
)

func (s Source) String() string {
	switch s {
	case SourceReal:
		return "real"
	case SourceSynthetic:
		return "synthetic"
	default:
		return ""
	}
}

// State is an immutable snapshot of the session.
// Holders must not mutate Identity; the session manager publishes a fresh
// State for every transition.
type State struct {
	Status     Status
	Identity   *Identity
	Source     Source
	Generation uint64
}

// InitializingState is the state before Initialize resolves.
func InitializingState() State { return State{Status: StatusInitializing} }

// AnonymousState returns an anonymous snapshot at the given generation.
func AnonymousState(gen uint64) State {
	return State{Status: StatusAnonymous, Generation: gen}
}

// ActiveState returns an active snapshot holding a private copy of identity.
// An invalid identity yields an anonymous state.
func ActiveState(identity Identity, source Source, gen uint64) State {
	if !identity.Valid() {
		return AnonymousState(gen)
	}
	id := identity.Clone()
	return State{Status: StatusActive, Identity: &id, Source: source, Generation: gen}
}

// Active reports whether a valid identity is authoritative.
func (s State) Active() bool {
	return s.Status == StatusActive && s.Identity.Valid()
}

// Role derives the role of the active identity.
func (s State) Role() (Role, bool) {
	if !s.Active() {
		return 0, false
	}
	return DeriveRole(s.Identity)
}
