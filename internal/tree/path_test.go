package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/treegpt/treegpt/internal/model"
)

func TestAncestors(t *testing.T) {
	tr := buildFixture(t, []model.Message{
		userMsg("u1", "", 0),
		assistantMsg("a1", "u1", time.Second),
		userMsg("u2", "a1", 2*time.Second),
		assistantMsg("a2", "u2", 3*time.Second),
		userMsg("u3", "a2", 4*time.Second),
	})

	require.Equal(t, []string{"u3", "u2", "u1"}, tr.Ancestors("u3"))
	require.Equal(t, []string{"u1"}, tr.Ancestors("u1"))
	require.Empty(t, tr.Ancestors("missing"))
}

func TestOnPath(t *testing.T) {
	path := []string{"u3", "u2", "u1"}
	require.True(t, OnPath(path, "u1", "u2"))
	require.True(t, OnPath(path, "u2", "u3"))
	require.False(t, OnPath(path, "u1", "u4"))
	require.False(t, OnPath(nil, "u1", "u2"))
}
