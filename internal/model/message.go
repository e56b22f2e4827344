// Package model defines data structures for the branching chat platform.
package model

import (
	"time"
)

// MessageType distinguishes user prompts from assistant replies.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
)

// Message is the flat persisted record. No tree structure is stored,
// only parent pointers: an assistant message's parent is the user message
// that produced it, and a non-root user message's parent is the assistant
// message it branches from.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	ParentID       string      `json:"parent_id,omitempty"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// IsRoot reports whether the message starts a conversation.
func (m *Message) IsRoot() bool {
	return m.ParentID == "" && m.Type == MessageTypeUser
}

// CreateMessageRequest is the request to append a message to a branch.
// An empty ParentID starts the conversation; otherwise ParentID must
// reference an assistant message in the same conversation.
type CreateMessageRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
	Model    string `json:"model,omitempty"`
}

// CreateMessageResponse carries the persisted user/assistant pair.
// Assistant is nil when generation failed; the user message is kept.
type CreateMessageResponse struct {
	User      *Message `json:"user"`
	Assistant *Message `json:"assistant,omitempty"`
}

// RenameMessageRequest updates the prompt text of a user message.
type RenameMessageRequest struct {
	Content string `json:"content"`
}

// ListMessagesResponse is the flat, timestamp-ordered message list.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
