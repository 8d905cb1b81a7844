package domain

import (
	"testing"

	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestTaskStateMachine_Transitions(t *testing.T) {
	sm := NewTaskStateMachine()

	tests := []struct {
		name        string
		from        TaskStatus
		action      TaskAction
		expectedTo  TaskStatus
		shouldError bool
	}{
		// Valid transitions
		{"pending -> in_progress via start", TaskStatusPending, TaskActionStart, TaskStatusInProgress, false},
		{"in_progress -> submitted via submit", TaskStatusInProgress, TaskActionSubmit, TaskStatusSubmitted, false},
		{"submitted -> approved via approve", TaskStatusSubmitted, TaskActionApprove, TaskStatusApproved, false},
		{"submitted -> rejected via reject", TaskStatusSubmitted, TaskActionReject, TaskStatusRejected, false},
		{"rejected -> in_progress via rework", TaskStatusRejected, TaskActionRework, TaskStatusInProgress, false},

		// Invalid transitions
		{"pending -> submitted (skip)", TaskStatusPending, TaskActionSubmit, TaskStatusPending, true},
		{"pending -> approved (skip)", TaskStatusPending, TaskActionApprove, TaskStatusPending, true},
		{"in_progress -> approved (unreviewed)", TaskStatusInProgress, TaskActionApprove, TaskStatusInProgress, true},
		{"submitted -> submitted again", TaskStatusSubmitted, TaskActionSubmit, TaskStatusSubmitted, true},
		{"approved -> in_progress (terminal)", TaskStatusApproved, TaskActionRework, TaskStatusApproved, true},
		{"approved -> rejected (terminal)", TaskStatusApproved, TaskActionReject, TaskStatusApproved, true},
		{"rejected -> submitted directly", TaskStatusRejected, TaskActionSubmit, TaskStatusRejected, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			newState, err := sm.Transition(tc.from, tc.action)

			if tc.shouldError {
				assert.Error(t, err)
				assert.True(t, appErrors.IsStateError(err))
				assert.Equal(t, tc.from, newState, "State should not change on invalid transition")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedTo, newState)
			}
		})
	}
}

func TestTaskStateMachine_CanTransition(t *testing.T) {
	sm := NewTaskStateMachine()

	assert.True(t, sm.CanTransition(TaskStatusPending, TaskActionStart))
	assert.True(t, sm.CanTransition(TaskStatusRejected, TaskActionRework))
	assert.False(t, sm.CanTransition(TaskStatusApproved, TaskActionRework))
	assert.False(t, sm.CanTransition(TaskStatusInProgress, TaskActionStart))
}

func TestTaskStateMachine_ValidTransitionsFromState(t *testing.T) {
	sm := NewTaskStateMachine()

	assert.ElementsMatch(t, []TaskAction{TaskActionApprove, TaskActionReject}, sm.ValidTransitions(TaskStatusSubmitted))
	assert.Len(t, sm.ValidTransitions(TaskStatusPending), 1)
	assert.Len(t, sm.ValidTransitions(TaskStatusApproved), 0)
}

func TestTaskStateMachine_IsTerminal(t *testing.T) {
	sm := NewTaskStateMachine()

	assert.True(t, sm.IsTerminal(TaskStatusApproved))
	assert.False(t, sm.IsTerminal(TaskStatusRejected))
	assert.False(t, sm.IsTerminal(TaskStatusPending))
}

func TestTaskStatus_IsValid(t *testing.T) {
	assert.True(t, TaskStatusSubmitted.IsValid())
	assert.False(t, TaskStatus("done").IsValid())
	assert.False(t, TaskStatus("").IsValid())
}

func TestReviewAction(t *testing.T) {
	a, ok := ReviewAction("approved")
	assert.True(t, ok)
	assert.Equal(t, TaskActionApprove, a)

	a, ok = ReviewAction("rejected")
	assert.True(t, ok)
	assert.Equal(t, TaskActionReject, a)

	_, ok = ReviewAction("pending")
	assert.False(t, ok)
}
