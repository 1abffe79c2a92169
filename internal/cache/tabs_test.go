package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leona-console/internal/domain"
)

func openTemp(t *testing.T) (*TabCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "tabs.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(" ")
	require.Error(t, err)
}

func TestLoad_MissingTab(t *testing.T) {
	c, _ := openTemp(t)
	id, msgs, ok, err := c.Load("nope")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, id)
	require.Nil(t, msgs)
}

func TestSaveLoad_RoundTripsTimestampsAndPayloads(t *testing.T) {
	c, _ := openTemp(t)
	at := time.Date(2026, 10, 19, 10, 15, 30, 0, time.UTC)
	msgs := []domain.Message{
		{ID: domain.SeedID, Role: domain.RoleAssistant, Content: domain.TextContent("hi"), Timestamp: at, RenderKind: domain.RenderText},
		{ID: 2, Role: domain.RoleAssistant, Content: domain.PayloadContent(domain.ChatResponse{
			Response:   "done",
			APIResults: []byte(`{"valid_area_km2":10}`),
		}), Timestamp: at.Add(time.Minute), RenderKind: domain.RenderAnalysis},
	}
	require.NoError(t, c.Save("tab-1", "conv-1", msgs))

	id, got, ok, err := c.Load("tab-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "conv-1", id)
	require.Len(t, got, 2)
	require.True(t, got[0].Timestamp.Equal(at))
	require.True(t, got[1].Content.IsStructured())
	require.JSONEq(t, `{"valid_area_km2":10}`, string(got[1].Content.Payload.APIResults))
}

func TestSave_OverwritesAndClearsConversationID(t *testing.T) {
	c, _ := openTemp(t)
	require.NoError(t, c.Save("tab-1", "conv-1", []domain.Message{{ID: 1}, {ID: 2}}))
	require.NoError(t, c.Save("tab-1", "", []domain.Message{{ID: 1}}))

	id, got, ok, err := c.Load("tab-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, id)
	require.Len(t, got, 1)
}

func TestTabsAreIsolatedAndSurviveReopen(t *testing.T) {
	c, path := openTemp(t)
	require.NoError(t, c.Save("tab-a", "conv-a", []domain.Message{{ID: 1}}))
	require.NoError(t, c.Save("tab-b", "conv-b", []domain.Message{{ID: 1}, {ID: 2}}))
	require.NoError(t, c.Clear("tab-a"))
	require.NoError(t, c.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	_, _, ok, err := reopened.Load("tab-a")
	require.NoError(t, err)
	require.False(t, ok)

	id, msgs, ok, err := reopened.Load("tab-b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "conv-b", id)
	require.Len(t, msgs, 2)
}

func TestForgetConversation_ClearsEveryTabHoldingIt(t *testing.T) {
	c, _ := openTemp(t)
	require.NoError(t, c.Save("tab-a", "conv-x", []domain.Message{{ID: 1}, {ID: 2}}))
	require.NoError(t, c.Save("tab-b", "conv-x", []domain.Message{{ID: 1}, {ID: 2}}))
	require.NoError(t, c.Save("tab-c", "conv-y", []domain.Message{{ID: 1}, {ID: 2}}))

	tabs, err := c.ForgetConversation("conv-x")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"tab-a", "tab-b"}, tabs)

	for _, tab := range []string{"tab-a", "tab-b"} {
		_, _, ok, err := c.Load(tab)
		require.NoError(t, err)
		require.False(t, ok, tab)
	}
	id, _, ok, err := c.Load("tab-c")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "conv-y", id)

	tabs, err = c.ForgetConversation("conv-x")
	require.NoError(t, err)
	require.Empty(t, tabs)
}
