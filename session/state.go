package session

import "sync/atomic"

// State is the registry lifecycle state.
type State uint32

const (
	UninitializedState State = iota
	InitializingState
	InitializedState
	ClosingState
)

func (s State) String() string {
	switch s {
	case UninitializedState:
		return "Uninitialized"
	case InitializingState:
		return "Initializing"
	case InitializedState:
		return "Initialized"
	case ClosingState:
		return "Closing"
	default:
		return "Unknown"
	}
}

// lifecycle holds the registry State.
//
// Transitions are only made with Registry.mu held for writing, so they are
// plain check-and-store. The value is atomic so that State and IsInitialized
// can be read without waiting behind a long Initialize.
type lifecycle struct {
	state atomic.Uint32
}

func (l *lifecycle) String() string {
	return l.Get().String()
}

// Get returns the current state.
func (l *lifecycle) Get() State {
	return State(l.state.Load())
}

// Set stores state unconditionally.
func (l *lifecycle) Set(state State) {
	l.state.Store(uint32(state))
}

func (l *lifecycle) IsUninitialized() bool {
	return l.Get() == UninitializedState
}

func (l *lifecycle) IsInitialized() bool {
	return l.Get() == InitializedState
}

// move stores to when the current state is one of from.
func (l *lifecycle) move(to State, from ...State) bool {
	cur := l.Get()
	for _, f := range from {
		if cur == f {
			l.Set(to)
			return true
		}
	}

	return false
}

// ToInitializing moves Uninitialized to Initializing.
func (l *lifecycle) ToInitializing() bool {
	return l.move(InitializingState, UninitializedState)
}

// ToInitialized moves Initializing to Initialized; already Initialized is a no-op.
func (l *lifecycle) ToInitialized() bool {
	return l.move(InitializedState, InitializingState, InitializedState)
}

// ToClosing moves Initialized, or an aborted Initializing, to Closing.
func (l *lifecycle) ToClosing() bool {
	return l.move(ClosingState, InitializedState, InitializingState)
}

// ToUninitialized moves Closing to Uninitialized; already Uninitialized is a no-op.
func (l *lifecycle) ToUninitialized() bool {
	return l.move(UninitializedState, ClosingState, UninitializedState)
}
