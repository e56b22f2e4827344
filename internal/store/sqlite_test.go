package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/treegpt/treegpt/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteMessages(t *testing.T) {
	ctx := context.Background()
	messages := openTestDB(t).Messages()
	at := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, messages.Insert(ctx, testMessage("u1", "c1", "", model.MessageTypeUser, at)))
	require.NoError(t, messages.Insert(ctx, testMessage("a1", "c1", "u1", model.MessageTypeAssistant, at.Add(time.Second))))
	require.NoError(t, messages.Insert(ctx, testMessage("u2", "c1", "a1", model.MessageTypeUser, at.Add(2*time.Second))))

	got, err := messages.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "content u1", got.Content)
	require.Empty(t, got.ParentID)
	require.Equal(t, model.MessageTypeUser, got.Type)

	_, err = messages.FindByID(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	reply, err := messages.FindReply(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "a1", reply.ID)

	// u2 under a1 is a branch, not a reply.
	reply, err = messages.FindReply(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, reply)

	all, err := messages.FindAll(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "u1", all[0].ID)
	require.Equal(t, "a1", all[1].ID)

	children, err := messages.FindChildren(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "u2", children[0].ID)

	require.NoError(t, messages.UpdateContent(ctx, "u2", "edited"))
	got, err = messages.FindByID(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, "edited", got.Content)
	require.ErrorIs(t, messages.UpdateContent(ctx, "ghost", "x"), ErrNotFound)

	require.NoError(t, messages.Delete(ctx, []string{"a1", "u2"}))
	all, err = messages.FindAll(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSQLiteConversations(t *testing.T) {
	ctx := context.Background()
	conversations := openTestDB(t).Conversations()
	at := time.Now().UTC().Truncate(time.Millisecond)

	conv := &model.Conversation{ID: "c1", UserID: "user-1", Title: "first", CreatedAt: at, UpdatedAt: at}
	require.NoError(t, conversations.Insert(ctx, conv))

	newer := &model.Conversation{ID: "c2", UserID: "user-1", Title: "second", CreatedAt: at, UpdatedAt: at.Add(time.Hour)}
	require.NoError(t, conversations.Insert(ctx, newer))

	got, err := conversations.FindByID(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "first", got.Title)

	list, err := conversations.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c2", list[0].ID)

	conv.Title = "renamed"
	conv.Deleted = true
	conv.UpdatedAt = at.Add(2 * time.Hour)
	require.NoError(t, conversations.Update(ctx, conv))

	list, err = conversations.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, conversations.Update(ctx, &model.Conversation{ID: "ghost"}), ErrNotFound)
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	users := openTestDB(t).Users()
	at := time.Now().UTC().Truncate(time.Millisecond)

	user := &model.User{ID: "user-1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: at}
	require.NoError(t, users.Insert(ctx, user))

	// The email column collates case-insensitively.
	dup := &model.User{ID: "user-2", Username: "dup", Email: "ADA@example.com", PasswordHash: "hash", CreatedAt: at}
	require.ErrorIs(t, users.Insert(ctx, dup), ErrDuplicate)

	got, err := users.FindByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.ID)

	got, err = users.FindByID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "ada", got.Username)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}
