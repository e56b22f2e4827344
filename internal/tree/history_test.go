package tree

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/treegpt/treegpt/internal/model"
)

// fakeSource serves messages from a map the way a message store would.
type fakeSource struct {
	messages map[string]*model.Message
}

func newFakeSource(messages ...model.Message) *fakeSource {
	s := &fakeSource{messages: make(map[string]*model.Message)}
	for i := range messages {
		s.messages[messages[i].ID] = &messages[i]
	}
	return s
}

func (s *fakeSource) FindByID(ctx context.Context, id string) (*model.Message, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

func (s *fakeSource) FindReply(ctx context.Context, parentID string) (*model.Message, error) {
	for _, msg := range s.messages {
		if msg.ParentID == parentID && msg.Type == model.MessageTypeAssistant {
			return msg, nil
		}
	}
	return nil, nil
}

func ids(messages []model.Message) []string {
	out := make([]string, len(messages))
	for i, msg := range messages {
		out[i] = msg.ID
	}
	return out
}

func TestResolveChain(t *testing.T) {
	source := newFakeSource(
		userMsg("u1", "", 0),
		assistantMsg("a1", "u1", time.Second),
		userMsg("u2", "a1", 2*time.Second),
	)

	history := NewResolver(source).Resolve(context.Background(), "u2", "conv-1", 0)
	require.Equal(t, []string{"u1", "a1", "u2"}, ids(history))
}

func TestResolveFromAssistantParent(t *testing.T) {
	source := newFakeSource(
		userMsg("u1", "", 0),
		assistantMsg("a1", "u1", time.Second),
	)

	history := NewResolver(source).Resolve(context.Background(), "a1", "conv-1", 0)
	require.Equal(t, []string{"u1", "a1"}, ids(history))
}

func TestResolveIncludesSiblingBranchReply(t *testing.T) {
	source := newFakeSource(
		userMsg("u1", "", 0),
		assistantMsg("a1", "u1", time.Second),
		userMsg("u2", "a1", 2*time.Second),
		assistantMsg("a2", "u2", 3*time.Second),
	)

	history := NewResolver(source).Resolve(context.Background(), "u2", "conv-1", 0)
	require.Equal(t, []string{"u1", "a1", "u2", "a2"}, ids(history))
}

func TestResolveAlternatesRoles(t *testing.T) {
	source := newFakeSource(
		userMsg("u1", "", 0),
		assistantMsg("a1", "u1", time.Second),
		userMsg("u2", "a1", 2*time.Second),
		assistantMsg("a2", "u2", 3*time.Second),
		userMsg("u3", "a2", 4*time.Second),
	)

	history := NewResolver(source).Resolve(context.Background(), "u3", "conv-1", 0)
	require.Equal(t, []string{"u1", "a1", "u2", "a2", "u3"}, ids(history))
	for i, msg := range history {
		if i%2 == 0 {
			require.Equal(t, model.MessageTypeUser, msg.Type)
		} else {
			require.Equal(t, model.MessageTypeAssistant, msg.Type)
		}
	}
}

func TestResolveDepthBound(t *testing.T) {
	var messages []model.Message
	parent := ""
	for i := 0; i < 15; i++ {
		uID := fmt.Sprintf("u%02d", i)
		aID := fmt.Sprintf("a%02d", i)
		messages = append(messages,
			userMsg(uID, parent, time.Duration(2*i)*time.Second),
			assistantMsg(aID, uID, time.Duration(2*i+1)*time.Second),
		)
		parent = aID
	}
	source := newFakeSource(messages...)

	history := NewResolver(source).Resolve(context.Background(), "u14", "conv-1", 10)
	// The walk visits at most ten messages; the starting user message's
	// own reply is appended on top of that, so the history ends with the
	// u14/a14 pair. The bound holds on pairs, not raw messages.
	require.Len(t, history, 11)
	require.Equal(t, "u14", history[len(history)-2].ID)
	require.Equal(t, "a14", history[len(history)-1].ID)

	pairs := 0
	for _, msg := range history {
		if msg.Type == model.MessageTypeUser {
			pairs++
		}
	}
	require.LessOrEqual(t, pairs, 10)
}

func TestResolvePartialOnMissingParent(t *testing.T) {
	source := newFakeSource(
		assistantMsg("a1", "gone", time.Second),
		userMsg("u2", "a1", 2*time.Second),
	)

	history := NewResolver(source).Resolve(context.Background(), "u2", "conv-1", 0)
	require.Equal(t, []string{"a1", "u2"}, ids(history))
}

func TestResolveStopsAtForeignConversation(t *testing.T) {
	foreign := userMsg("u1", "", 0)
	foreign.ConversationID = "other-conv"
	source := newFakeSource(
		foreign,
		assistantMsg("a1", "u1", time.Second),
		userMsg("u2", "a1", 2*time.Second),
	)

	history := NewResolver(source).Resolve(context.Background(), "u2", "conv-1", 0)
	require.Equal(t, []string{"a1", "u2"}, ids(history))
}

func TestResolveUnknownMessage(t *testing.T) {
	source := newFakeSource()
	history := NewResolver(source).Resolve(context.Background(), "nope", "conv-1", 0)
	require.Empty(t, history)
}

func TestResolveSurvivesParentCycle(t *testing.T) {
	a := userMsg("u1", "a1", 0)
	b := assistantMsg("a1", "u1", time.Second)
	source := newFakeSource(a, b)

	history := NewResolver(source).Resolve(context.Background(), "u1", "conv-1", 0)
	// The walk terminates instead of looping; the gathered chain is
	// emitted oldest-visited last.
	require.Equal(t, []string{"a1", "u1"}, ids(history))
}
