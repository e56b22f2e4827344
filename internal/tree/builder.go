// Package tree reconstructs the branching conversation tree from flat
// message records and computes layout coordinates for visualization.
package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/treegpt/treegpt/internal/model"
)

// ErrIntegrity is the sentinel wrapped by every malformed-data failure:
// cycles, multiple roots, duplicate assistant replies, and user messages
// unreachable from the root. Callers match with errors.Is.
var ErrIntegrity = errors.New("tree: data integrity violation")

func integrityErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// Tree is the reconstructed conversation: one node per user/assistant
// message pair, keyed by the user message ID.
type Tree struct {
	Nodes  map[string]*model.Node
	RootID string
}

// Build reconstructs the tree from an unordered set of messages belonging
// to a single conversation. The result is deterministic: children are
// ordered by (timestamp, id), so any permutation of the same message set
// yields the same tree.
//
// An empty input produces an empty tree. Non-empty input without a root
// user message, more than one root, more than one assistant reply to the
// same user message, a parent cycle, or user messages unreachable from
// the root all return an error wrapping ErrIntegrity.
func Build(messages []model.Message) (*Tree, error) {
	t := &Tree{Nodes: make(map[string]*model.Node)}
	if len(messages) == 0 {
		return t, nil
	}

	users := make(map[string]*model.Message)
	// Index assistant replies and user branches by parent ID so pairing
	// and children discovery are lookups, not linear scans.
	replies := make(map[string][]*model.Message)
	branches := make(map[string][]*model.Message)

	var rootID string
	for i := range messages {
		msg := &messages[i]
		switch msg.Type {
		case model.MessageTypeUser:
			users[msg.ID] = msg
			if msg.ParentID == "" {
				if rootID != "" {
					return nil, integrityErrorf("multiple root messages (%s, %s)", rootID, msg.ID)
				}
				rootID = msg.ID
			} else {
				branches[msg.ParentID] = append(branches[msg.ParentID], msg)
			}
		case model.MessageTypeAssistant:
			replies[msg.ParentID] = append(replies[msg.ParentID], msg)
		default:
			return nil, integrityErrorf("message %s has unknown type %q", msg.ID, msg.Type)
		}
	}

	if rootID == "" {
		// Messages exist but none qualifies as root: every parent chain
		// is broken or circular.
		return nil, integrityErrorf("no root message among %d messages", len(messages))
	}

	t.RootID = rootID

	type frame struct {
		userID   string
		parentID string
	}
	queue := []frame{{userID: rootID}}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		if _, seen := t.Nodes[f.userID]; seen {
			return nil, integrityErrorf("cycle through message %s", f.userID)
		}

		userMsg := users[f.userID]
		node := &model.Node{
			ID:        userMsg.ID,
			Prompt:    userMsg.Content,
			Children:  []string{},
			ParentID:  f.parentID,
			CreatedAt: userMsg.CreatedAt,
		}

		reply, err := pairedReply(replies, userMsg.ID)
		if err != nil {
			return nil, err
		}

		if reply != nil {
			node.Response = reply.Content
			children := branches[reply.ID]
			sort.Slice(children, func(i, j int) bool {
				a, b := children[i], children[j]
				if !a.CreatedAt.Equal(b.CreatedAt) {
					return a.CreatedAt.Before(b.CreatedAt)
				}
				return a.ID < b.ID
			})
			for _, child := range children {
				node.Children = append(node.Children, child.ID)
				queue = append(queue, frame{userID: child.ID, parentID: userMsg.ID})
			}
		}

		t.Nodes[f.userID] = node
	}

	if len(t.Nodes) != len(users) {
		return nil, integrityErrorf("%d user messages unreachable from root %s", len(users)-len(t.Nodes), rootID)
	}

	return t, nil
}

// pairedReply returns the single assistant reply to a user message, nil
// when the response is still pending (or generation failed), and an
// integrity error when the pairing invariant is broken.
func pairedReply(replies map[string][]*model.Message, userID string) (*model.Message, error) {
	rs := replies[userID]
	switch len(rs) {
	case 0:
		return nil, nil
	case 1:
		return rs[0], nil
	default:
		return nil, integrityErrorf("user message %s has %d assistant replies", userID, len(rs))
	}
}
