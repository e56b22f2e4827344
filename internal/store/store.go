// Package store provides persistence for users, conversations, and flat
// message records.
package store

import (
	"context"
	"errors"

	"github.com/treegpt/treegpt/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("store: duplicate record")

// MessageStore holds messages as flat records; only parent pointers are
// persisted, never tree structure.
type MessageStore interface {
	// Insert appends a message. Message IDs are caller-generated.
	Insert(ctx context.Context, msg *model.Message) error
	// FindByID returns a message by ID.
	FindByID(ctx context.Context, id string) (*model.Message, error)
	// FindReply returns the assistant message whose ParentID is the
	// given user message ID, or nil when none exists.
	FindReply(ctx context.Context, parentID string) (*model.Message, error)
	// FindAll returns every message of a conversation ordered by
	// creation time.
	FindAll(ctx context.Context, conversationID string) ([]model.Message, error)
	// FindChildren returns the messages whose ParentID is the given ID.
	FindChildren(ctx context.Context, parentID string) ([]model.Message, error)
	// UpdateContent replaces the content of a message.
	UpdateContent(ctx context.Context, id, content string) error
	// Delete removes the given messages.
	Delete(ctx context.Context, ids []string) error
}

// ConversationStore holds conversation metadata.
type ConversationStore interface {
	Insert(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindByUser(ctx context.Context, userID string) ([]model.Conversation, error)
	Update(ctx context.Context, conv *model.Conversation) error
}

// UserStore holds registered accounts.
type UserStore interface {
	Insert(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Store bundles the three stores behind one backend.
type Store interface {
	Messages() MessageStore
	Conversations() ConversationStore
	Users() UserStore
	Close() error
}
