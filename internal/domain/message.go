package domain

import "github.com/google/uuid"

// Role identifies who authored a transcript message.
// Assistant replies are stored with RoleSystem.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSystem
}

// Message is a single immutable transcript entry.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
}

// NewMessage returns a message with a freshly generated id.
func NewMessage(role Role, content string) Message {
	return Message{ID: uuid.New(), Role: role, Content: content}
}
