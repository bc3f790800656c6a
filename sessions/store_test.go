package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artemis/client"
	"artemis/config"
	"artemis/models"
)

func sampleSession() *client.Session {
	s := client.NewSession()
	s.ReportText = "WBC: 15000 (high)"
	s.ReportSent = true
	s.History = []models.Message{
		models.NewMessage(models.RoleUser, "analyze"),
		models.NewMessage(models.RoleAssistant, "WBC is high."),
	}
	return s
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	got.History = append(got.History, models.NewMessage(models.RoleUser, "more"))
	again, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, again.History, 2, "loaded sessions are copies")

	s.Reset()
	require.NoError(t, store.Save(ctx, s))
	reset, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, reset.History)
	assert.NotNil(t, reset.History)
	assert.False(t, reset.ReportSent)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := sampleSession()
	require.NoError(t, store.Save(context.Background(), s))

	now = now.Add(59 * time.Second)
	_, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSweepsExpiredSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Save(ctx, client.NewSession()))
	}
	assert.Len(t, store.items, 1000)

	now = now.Add(time.Hour)
	fresh := client.NewSession()
	require.NoError(t, store.Save(ctx, fresh))

	assert.Len(t, store.items, 1)
	assert.Contains(t, store.items, fresh.ID)
}

func TestMemoryStoreWithoutTTL(t *testing.T) {
	store := NewMemoryStore(0)
	store.now = func() time.Time { return time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC) }

	s := sampleSession()
	require.NoError(t, store.Save(context.Background(), s))
	_, err := store.Load(context.Background(), s.ID)
	assert.NoError(t, err)
}

func TestOpenMemoryAndUnknown(t *testing.T) {
	store, closer, err := Open(context.Background(), config.SessionConfig{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = Open(context.Background(), config.SessionConfig{Store: "sqlite"})
	assert.Error(t, err)
}
