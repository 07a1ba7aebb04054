package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ThreadMessage is one message of an assistant chat thread.
type ThreadMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ThreadMessagePage struct {
	Messages   []ThreadMessage `json:"messages"`
	NextCursor string          `json:"nextCursor,omitempty"`
}
