package domain

import "time"

type ChatRole string

const (
	RoleUser      ChatRole = "User"
	RoleAssistant ChatRole = "Assistant"
)

// ChatTurn is one message in a session's append-only conversation log.
// A question and its answer are always written together as one pair
// sharing a timestamp.
type ChatTurn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      ChatRole  `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
