package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	sm := NewStateMachine()

	assert.True(t, sm.CanTransition(StatusRegistered, StatusUnderReview))
	assert.True(t, sm.CanTransition(StatusUnderReview, StatusVerified))
	assert.True(t, sm.CanTransition(StatusUnderReview, StatusRejected))

	// Skipping review is not allowed.
	assert.False(t, sm.CanTransition(StatusRegistered, StatusVerified))
	assert.False(t, sm.CanTransition(StatusRegistered, StatusRejected))

	// Terminal states never transition, including back into review.
	assert.False(t, sm.CanTransition(StatusVerified, StatusUnderReview))
	assert.False(t, sm.CanTransition(StatusVerified, StatusVerified))
	assert.False(t, sm.CanTransition(StatusRejected, StatusUnderReview))

	// Unknown states have no transitions.
	assert.False(t, sm.CanTransition(Status("DRAFT"), StatusUnderReview))
}

func TestIsTerminal(t *testing.T) {
	sm := NewStateMachine()

	assert.True(t, sm.IsTerminal(StatusVerified))
	assert.True(t, sm.IsTerminal(StatusRejected))
	assert.False(t, sm.IsTerminal(StatusRegistered))
	assert.False(t, sm.IsTerminal(StatusUnderReview))
	assert.False(t, sm.IsTerminal(Status("DRAFT")))
}

func TestAllowedTransitions(t *testing.T) {
	sm := NewStateMachine()

	assert.Equal(t, []Status{StatusUnderReview}, sm.AllowedTransitions(StatusRegistered))
	assert.ElementsMatch(t, []Status{StatusVerified, StatusRejected}, sm.AllowedTransitions(StatusUnderReview))
	assert.Empty(t, sm.AllowedTransitions(StatusVerified))
	assert.Empty(t, sm.AllowedTransitions(Status("DRAFT")))
}
