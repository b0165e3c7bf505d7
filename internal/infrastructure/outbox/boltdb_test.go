package outbox

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"), "reservations")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndBatchOrder(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Enqueue(Item{
			ID:        string(rune('a' + i)),
			MemberID:  "m1",
			Data:      json.RawMessage(`{}`),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// delivery order follows admission order
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[2].ID)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{ID: "r1", Data: json.RawMessage(`{}`)}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, store.Remove(items[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeueSendsToBack(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Enqueue(Item{ID: "first", Data: json.RawMessage(`{}`), Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "second", Data: json.RawMessage(`{}`), Timestamp: base.Add(time.Second)}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Equal(t, "first", items[0].ID)

	failed := items[0]
	failed.Retries++
	require.NoError(t, store.Remove(failed))
	require.NoError(t, store.Requeue(failed))

	items, err = store.GetBatch(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].ID)
	assert.Equal(t, "first", items[1].ID)
	assert.Equal(t, 1, items[1].Retries)
}

func TestCleanupDropsOldItems(t *testing.T) {
	store := openTestStore(t)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Enqueue(Item{ID: "stale", Data: json.RawMessage(`{}`), Timestamp: old}))
	require.NoError(t, store.Enqueue(Item{ID: "fresh", Data: json.RawMessage(`{}`)}))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].ID)
}
