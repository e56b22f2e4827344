package model

import (
	"time"
)

// EventType represents the type of branch lifecycle event.
type EventType string

const (
	EventTypeMessageCreated   EventType = "message_created"
	EventTypeBranchDeleted    EventType = "branch_deleted"
	EventTypeGenerationFailed EventType = "generation_failed"
)

// BranchEvent is published to JetStream when a branch changes.
type BranchEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Type           EventType      `json:"type"`
	MessageID      string         `json:"message_id,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
