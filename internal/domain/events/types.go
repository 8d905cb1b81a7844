package events

import "time"

// EventType defines the type of event in the system
type EventType string

const (
	// Auth state events
	AuthSignedIn        EventType = "auth.signed_in"
	AuthSignedOut       EventType = "auth.signed_out"
	AuthPasswordChanged EventType = "auth.password_changed"
	AuthRoleChanged     EventType = "auth.role_changed"

	// Task lifecycle events
	TaskAssigned       EventType = "task.assigned"
	TaskStatusChanged  EventType = "task.status_changed"
	TaskSubmitted      EventType = "task.submitted"
	SubmissionReviewed EventType = "task.submission_reviewed"
	TaskOverdue        EventType = "task.overdue"

	// Site events
	ApplicationReceived EventType = "site.application_received"
	ContactReceived     EventType = "site.contact_received"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// IsAuth reports whether the event describes an auth-state change.
func (e EventType) IsAuth() bool {
	switch e {
	case AuthSignedIn, AuthSignedOut, AuthPasswordChanged, AuthRoleChanged:
		return true
	}
	return false
}

// AuthEvent is the payload of every auth.* event. An auth.signed_out event
// without a SessionID ends all of the user's sessions.
type AuthEvent struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TaskEvent is the payload of task.* events.
type TaskEvent struct {
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	ActorID    string `json:"actor_id"`
	AssigneeID string `json:"assignee_id,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Comments   string `json:"comments,omitempty"`
}

// SiteEvent is the payload of site.* events.
type SiteEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	About string `json:"about"`
}
