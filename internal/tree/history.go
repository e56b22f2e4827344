package tree

import (
	"context"

	"github.com/treegpt/treegpt/internal/model"
)

// DefaultMaxDepth bounds the ancestor walk when the caller does not
// configure one. It caps both recursion on pathological parent chains and
// the context size sent to the language model.
const DefaultMaxDepth = 10

// MessageSource is the subset of the message store the resolver needs.
type MessageSource interface {
	// FindByID returns the message with the given ID, or an error when
	// it does not exist.
	FindByID(ctx context.Context, id string) (*model.Message, error)
	// FindReply returns the assistant message whose parent is the given
	// user message, or nil when no reply has been recorded.
	FindReply(ctx context.Context, parentID string) (*model.Message, error)
}

// Resolver assembles the ordered branch history used as LLM context.
type Resolver struct {
	source MessageSource
}

// NewResolver creates a resolver backed by the given message source.
func NewResolver(source MessageSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve walks parent pointers upward from the given message and returns
// the branch history oldest-first, ending with the starting message's own
// user/assistant pair. Each visited user message is followed by its
// paired assistant reply, preserving the user→assistant alternation.
//
// Resolution is best-effort by design: a missing message, a message from
// another conversation, or an exhausted depth budget stops the walk
// silently and the partial chain gathered so far is returned. maxDepth
// counts parent hops; values <= 0 fall back to DefaultMaxDepth.
func (r *Resolver) Resolve(ctx context.Context, messageID, conversationID string, maxDepth int) []model.Message {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	// Walk up the parent chain first, newest to oldest. The seen set
	// both terminates pathological cycles and lets the emit pass below
	// skip replies that are already chain members, so the starting
	// assistant message is never emitted twice.
	var chain []*model.Message
	seen := make(map[string]bool)
	id := messageID
	for id != "" && len(chain) < maxDepth && !seen[id] {
		msg, err := r.source.FindByID(ctx, id)
		if err != nil || msg == nil || msg.ConversationID != conversationID {
			break
		}
		seen[msg.ID] = true
		chain = append(chain, msg)
		id = msg.ParentID
	}

	history := make([]model.Message, 0, len(chain)*2)
	for i := len(chain) - 1; i >= 0; i-- {
		msg := chain[i]
		history = append(history, *msg)
		if msg.Type != model.MessageTypeUser {
			continue
		}
		reply, err := r.source.FindReply(ctx, msg.ID)
		if err != nil || reply == nil || seen[reply.ID] {
			continue
		}
		history = append(history, *reply)
	}
	return history
}
