package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finbridge/ledgerbridge/internal/kvstore"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	return New(kvstore.NewMemoryStore())
}

func TestEnqueuePreservesFIFOOrder(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	endpoints := []string{"/accounts/1/freeze", "/accounts/1", "/transfers"}
	for _, ep := range endpoints {
		_, err := q.Enqueue(ctx, MethodPost, ep, nil)
		require.NoError(t, err)
	}

	records, err := q.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, ep := range endpoints {
		require.Equal(t, ep, records[i].Endpoint, "record %d out of order", i)
	}
}

func TestEnqueueAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	// Freeze the clock so every record lands in the same millisecond;
	// the uuid suffix must still keep ids unique.
	fixed := time.UnixMilli(1730635200000)
	q.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec, err := q.Enqueue(ctx, MethodPatch, "/profile", json.RawMessage(`{"n":1}`))
		require.NoError(t, err)
		require.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		require.Equal(t, int64(1730635200000), rec.EnqueuedAt)
		seen[rec.ID] = true
	}
}

func TestEnqueueRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	_, err := q.Enqueue(ctx, Method("GET"), "/accounts", nil)
	require.ErrorIs(t, err, ErrInvalidMethod)

	_, err = q.Enqueue(ctx, MethodPost, "", nil)
	require.ErrorIs(t, err, ErrEmptyEndpoint)

	records, err := q.ReadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, records, "rejected enqueues must not persist anything")
}

func TestReadAllBeforeFirstEnqueue(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	records, err := q.ReadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRemoveByIDIsIdempotent(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	a, err := q.Enqueue(ctx, MethodPost, "/x", nil)
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, MethodDelete, "/y", nil)
	require.NoError(t, err)

	require.NoError(t, q.RemoveByID(ctx, a.ID))
	// Second removal of the same id must be a silent no-op
	require.NoError(t, q.RemoveByID(ctx, a.ID))
	// Removing an id that never existed is also a no-op
	require.NoError(t, q.RemoveByID(ctx, "absent"))

	records, err := q.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, b.ID, records[0].ID)
}

func TestClearEmptiesStore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	q := New(store)

	_, err := q.Enqueue(ctx, MethodPost, "/x", nil)
	require.NoError(t, err)
	require.NoError(t, q.Clear(ctx))

	records, err := q.ReadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	// The store entry itself is gone, not just an empty list
	_, err = store.Get(ctx, StoreKey)
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestQueueSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	q := New(store)
	rec, err := q.Enqueue(ctx, MethodPost, "/transfers", json.RawMessage(`{"amount":125}`))
	require.NoError(t, err)

	// A fresh queue over the same store (new process) sees the same records
	q2 := New(store)
	records, err := q2.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, rec.ID, records[0].ID)
	require.JSONEq(t, `{"amount":125}`, string(records[0].Body))
}

func TestMethodValid(t *testing.T) {
	tests := []struct {
		method Method
		want   bool
	}{
		{MethodPost, true},
		{MethodPatch, true},
		{MethodDelete, true},
		{Method("GET"), false},
		{Method("PUT"), false},
		{Method(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			if got := tt.method.Valid(); got != tt.want {
				t.Errorf("Method(%q).Valid() = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}
