// Package model defines domain entities shared by the session, chat, and
// task layers.
package model

import "time"

// User is the identity record returned by the backend on sign-in and cached
// alongside the credential. Opaque beyond its identifier.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Role distinguishes the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry in a conversation transcript. IDs are local
// to the controller instance and monotonically increasing.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatReply is the backend response to a delivered chat message.
type ChatReply struct {
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
	Response       string `json:"response"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// Task mirrors the backend task record.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
