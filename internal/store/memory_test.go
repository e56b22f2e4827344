package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/treegpt/treegpt/internal/model"
)

func testMessage(id, convID, parentID string, typ model.MessageType, at time.Time) *model.Message {
	return &model.Message{
		ID:             id,
		ConversationID: convID,
		ParentID:       parentID,
		Type:           typ,
		Content:        "content " + id,
		CreatedAt:      at,
	}
}

func TestMemoryMessagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	messages := NewMemory().Messages()
	at := time.Now()

	msg := testMessage("m1", "c1", "", model.MessageTypeUser, at)
	require.NoError(t, messages.Insert(ctx, msg))
	require.ErrorIs(t, messages.Insert(ctx, msg), ErrDuplicate)

	got, err := messages.FindByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "content m1", got.Content)

	// The store hands out copies, not aliases.
	got.Content = "mutated"
	again, err := messages.FindByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "content m1", again.Content)

	_, err = messages.FindByID(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryMessagesFindReply(t *testing.T) {
	ctx := context.Background()
	messages := NewMemory().Messages()
	at := time.Now()

	require.NoError(t, messages.Insert(ctx, testMessage("u1", "c1", "", model.MessageTypeUser, at)))
	require.NoError(t, messages.Insert(ctx, testMessage("a1", "c1", "u1", model.MessageTypeAssistant, at.Add(time.Second))))
	// A user branch under the same parent is not a reply.
	require.NoError(t, messages.Insert(ctx, testMessage("u2", "c1", "a1", model.MessageTypeUser, at.Add(2*time.Second))))

	reply, err := messages.FindReply(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "a1", reply.ID)

	reply, err = messages.FindReply(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, reply)
}

func TestMemoryMessagesFindAllOrdered(t *testing.T) {
	ctx := context.Background()
	messages := NewMemory().Messages()
	at := time.Now()

	require.NoError(t, messages.Insert(ctx, testMessage("m3", "c1", "", model.MessageTypeUser, at.Add(2*time.Second))))
	require.NoError(t, messages.Insert(ctx, testMessage("m1", "c1", "", model.MessageTypeUser, at)))
	require.NoError(t, messages.Insert(ctx, testMessage("m2", "c1", "", model.MessageTypeUser, at.Add(time.Second))))
	require.NoError(t, messages.Insert(ctx, testMessage("other", "c2", "", model.MessageTypeUser, at)))

	all, err := messages.FindAll(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "m1", all[0].ID)
	require.Equal(t, "m2", all[1].ID)
	require.Equal(t, "m3", all[2].ID)
}

func TestMemoryMessagesDelete(t *testing.T) {
	ctx := context.Background()
	messages := NewMemory().Messages()
	at := time.Now()

	require.NoError(t, messages.Insert(ctx, testMessage("u1", "c1", "", model.MessageTypeUser, at)))
	require.NoError(t, messages.Insert(ctx, testMessage("a1", "c1", "u1", model.MessageTypeAssistant, at.Add(time.Second))))
	require.NoError(t, messages.Insert(ctx, testMessage("u2", "c1", "a1", model.MessageTypeUser, at.Add(2*time.Second))))

	require.NoError(t, messages.Delete(ctx, []string{"a1", "u2"}))

	_, err := messages.FindByID(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)

	reply, err := messages.FindReply(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, reply)

	all, err := messages.FindAll(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Deleting unknown IDs is a no-op.
	require.NoError(t, messages.Delete(ctx, []string{"ghost"}))
}

func TestMemoryMessagesUpdateContent(t *testing.T) {
	ctx := context.Background()
	messages := NewMemory().Messages()

	require.NoError(t, messages.Insert(ctx, testMessage("u1", "c1", "", model.MessageTypeUser, time.Now())))
	require.NoError(t, messages.UpdateContent(ctx, "u1", "renamed"))

	got, err := messages.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Content)

	require.ErrorIs(t, messages.UpdateContent(ctx, "ghost", "x"), ErrNotFound)
}

func TestMemoryChildrenLookup(t *testing.T) {
	ctx := context.Background()
	messages := NewMemory().Messages()
	at := time.Now()

	require.NoError(t, messages.Insert(ctx, testMessage("u1", "c1", "", model.MessageTypeUser, at)))
	require.NoError(t, messages.Insert(ctx, testMessage("a1", "c1", "u1", model.MessageTypeAssistant, at.Add(time.Second))))
	require.NoError(t, messages.Insert(ctx, testMessage("u2", "c1", "a1", model.MessageTypeUser, at.Add(2*time.Second))))
	require.NoError(t, messages.Insert(ctx, testMessage("u3", "c1", "a1", model.MessageTypeUser, at.Add(3*time.Second))))

	children, err := messages.FindChildren(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, children, 2)

	children, err = messages.FindChildren(ctx, "u3")
	require.NoError(t, err)
	require.Empty(t, children)
}

func TestMemoryConversations(t *testing.T) {
	ctx := context.Background()
	conversations := NewMemory().Conversations()
	at := time.Now()

	older := &model.Conversation{ID: "c1", UserID: "user-1", Title: "first", UpdatedAt: at}
	newer := &model.Conversation{ID: "c2", UserID: "user-1", Title: "second", UpdatedAt: at.Add(time.Hour)}
	foreign := &model.Conversation{ID: "c3", UserID: "user-2", Title: "theirs", UpdatedAt: at}

	require.NoError(t, conversations.Insert(ctx, older))
	require.NoError(t, conversations.Insert(ctx, newer))
	require.NoError(t, conversations.Insert(ctx, foreign))
	require.ErrorIs(t, conversations.Insert(ctx, older), ErrDuplicate)

	list, err := conversations.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c2", list[0].ID)

	older.Deleted = true
	require.NoError(t, conversations.Update(ctx, older))

	list, err = conversations.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, conversations.Update(ctx, &model.Conversation{ID: "ghost"}), ErrNotFound)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemory().Users()

	user := &model.User{ID: "user-1", Username: "ada", Email: "ada@example.com"}
	require.NoError(t, users.Insert(ctx, user))

	// Email uniqueness is case-insensitive.
	dup := &model.User{ID: "user-2", Username: "ada2", Email: "ADA@example.com"}
	require.ErrorIs(t, users.Insert(ctx, dup), ErrDuplicate)

	got, err := users.FindByEmail(ctx, "Ada@Example.Com")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.ID)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	got, err = users.FindByID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "ada", got.Username)
}
