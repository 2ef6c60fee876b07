package workflows

// Status is a project lifecycle state.
type Status string

const (
	StatusRegistered  Status = "REGISTERED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusVerified    Status = "VERIFIED"
	StatusRejected    Status = "REJECTED"
)

// Valid reports whether s is one of the lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusUnderReview, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// StateMachine enforces project status transitions. VERIFIED and REJECTED
// are terminal: re-verification requires a new project, never a transition
// out of a terminal state.
type StateMachine struct {
	allowedTransitions map[Status][]Status
}

// NewStateMachine creates a state machine with the registry transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[Status][]Status{
			StatusRegistered:  {StatusUnderReview},
			StatusUnderReview: {StatusVerified, StatusRejected},
			StatusVerified:    {},
			StatusRejected:    {},
		},
	}
}

// CanTransition checks if a status transition is allowed.
func (sm *StateMachine) CanTransition(from, to Status) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given status.
func (sm *StateMachine) IsTerminal(s Status) bool {
	allowed, exists := sm.allowedTransitions[s]
	return exists && len(allowed) == 0
}

// AllowedTransitions returns the permitted next statuses for a given status.
func (sm *StateMachine) AllowedTransitions(from Status) []Status {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []Status{}
	}
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}
