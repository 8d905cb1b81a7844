package domain

import (
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusSubmitted  TaskStatus = "submitted"
	TaskStatusApproved   TaskStatus = "approved"
	TaskStatusRejected   TaskStatus = "rejected"
)

// TaskAction is an operation that moves a task between states.
type TaskAction string

const (
	// TaskActionStart is taken by the assignee to begin work
	TaskActionStart TaskAction = "start"
	// TaskActionSubmit hands the work in for review
	TaskActionSubmit TaskAction = "submit"
	// TaskActionApprove is an admin accepting the latest submission
	TaskActionApprove TaskAction = "approve"
	// TaskActionReject is an admin sending the work back
	TaskActionReject TaskAction = "reject"
	// TaskActionRework reopens a rejected task
	TaskActionRework TaskAction = "rework"
)

// AllTaskStatuses lists every status in lifecycle order.
var AllTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusSubmitted,
	TaskStatusApproved,
	TaskStatusRejected,
}

// IsValid reports whether s is a known task status.
func (s TaskStatus) IsValid() bool {
	for _, known := range AllTaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TaskStateMachine enforces valid status transitions for tasks.
// Invalid transitions return a StateError and leave the state unchanged.
type TaskStateMachine struct {
	// transitions maps (current state, action) -> next state
	transitions map[taskTransitionKey]TaskStatus
}

type taskTransitionKey struct {
	state  TaskStatus
	action TaskAction
}

// NewTaskStateMachine creates a state machine with the task lifecycle rules.
// State diagram:
//
//	[pending] ──start──► [in_progress] ──submit──► [submitted]
//	                          ▲                     │      │
//	                          │                 approve  reject
//	                        rework                  │      │
//	                          │                     ▼      ▼
//	                          └────────────── [rejected]  [approved]
//
// approved is terminal.
func NewTaskStateMachine() *TaskStateMachine {
	sm := &TaskStateMachine{
		transitions: make(map[taskTransitionKey]TaskStatus),
	}

	sm.addTransition(TaskStatusPending, TaskActionStart, TaskStatusInProgress)
	sm.addTransition(TaskStatusInProgress, TaskActionSubmit, TaskStatusSubmitted)
	sm.addTransition(TaskStatusSubmitted, TaskActionApprove, TaskStatusApproved)
	sm.addTransition(TaskStatusSubmitted, TaskActionReject, TaskStatusRejected)
	sm.addTransition(TaskStatusRejected, TaskActionRework, TaskStatusInProgress)

	return sm
}

func (sm *TaskStateMachine) addTransition(from TaskStatus, via TaskAction, to TaskStatus) {
	sm.transitions[taskTransitionKey{state: from, action: via}] = to
}

// Transition returns the state reached by applying action to current.
func (sm *TaskStateMachine) Transition(current TaskStatus, action TaskAction) (TaskStatus, error) {
	next, ok := sm.transitions[taskTransitionKey{state: current, action: action}]
	if !ok {
		return current, appErrors.NewStateError("task", string(current), string(action))
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *TaskStateMachine) CanTransition(current TaskStatus, action TaskAction) bool {
	_, ok := sm.transitions[taskTransitionKey{state: current, action: action}]
	return ok
}

// ValidTransitions returns all actions allowed from the given state.
func (sm *TaskStateMachine) ValidTransitions(state TaskStatus) []TaskAction {
	var result []TaskAction
	for key := range sm.transitions {
		if key.state == state {
			result = append(result, key.action)
		}
	}
	return result
}

// IsTerminal returns true if no action leaves the state.
func (sm *TaskStateMachine) IsTerminal(state TaskStatus) bool {
	return len(sm.ValidTransitions(state)) == 0
}

// ReviewAction maps a review decision to the task action it drives.
func ReviewAction(decision string) (TaskAction, bool) {
	switch decision {
	case "approved":
		return TaskActionApprove, true
	case "rejected":
		return TaskActionReject, true
	}
	return "", false
}
