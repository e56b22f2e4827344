package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treegpt/treegpt/internal/model"
	"github.com/treegpt/treegpt/internal/store"
	"github.com/treegpt/treegpt/pkg/logger"
)

func newConversationService() *ConversationService {
	return NewConversationService(store.NewMemory().Conversations(), logger.NewNop())
}

func TestConversationOwnership(t *testing.T) {
	svc := newConversationService()
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user-1", &model.CreateConversationRequest{Title: "mine"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "user-1", conv.ID)
	require.NoError(t, err)
	require.Equal(t, "mine", got.Title)

	// Another user sees nothing, not a permission error.
	_, err = svc.Get(ctx, "user-2", conv.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConversationListPagination(t *testing.T) {
	svc := newConversationService()
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, "user-1", &model.CreateConversationRequest{Title: title})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Conversations, 2)
	require.Equal(t, 3, page.Total)
	require.True(t, page.HasMore)

	rest, err := svc.List(ctx, "user-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest.Conversations, 1)
	require.False(t, rest.HasMore)

	past, err := svc.List(ctx, "user-1", 2, 10)
	require.NoError(t, err)
	require.Empty(t, past.Conversations)
}

func TestConversationUpdateTitle(t *testing.T) {
	svc := newConversationService()
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user-1", &model.CreateConversationRequest{Title: "before"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "user-1", conv.ID, &model.UpdateConversationRequest{Title: "after"})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Title)
	require.False(t, updated.UpdatedAt.Before(conv.UpdatedAt))
}

func TestConversationSoftDelete(t *testing.T) {
	svc := newConversationService()
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user-1", &model.CreateConversationRequest{Title: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-1", conv.ID))

	_, err = svc.Get(ctx, "user-1", conv.ID)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	require.Empty(t, list.Conversations)
}
