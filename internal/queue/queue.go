package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finbridge/ledgerbridge/internal/kvstore"
)

// StoreKey is the single store entry holding the serialized queue.
const StoreKey = "pending_mutations"

var (
	// ErrInvalidMethod indicates an enqueue with a non-mutating verb.
	ErrInvalidMethod = errors.New("queue: method must be POST, PATCH or DELETE")

	// ErrEmptyEndpoint indicates an enqueue without a target endpoint.
	ErrEmptyEndpoint = errors.New("queue: endpoint is required")
)

// Queue is the durable FIFO of pending mutations.
// The whole queue is serialized as one JSON list under StoreKey and
// rewritten on every change (read-modify-write, not an append-only log).
// The mutex serializes writers within this process; cross-run overlap is
// prevented by the coordinator's run guard, not here.
type Queue struct {
	mu    sync.Mutex
	store kvstore.Store
	now   func() time.Time
}

// New creates a queue over the given durable store.
func New(store kvstore.Store) *Queue {
	return &Queue{store: store, now: time.Now}
}

// Enqueue assigns an id and timestamp to the given mutation, appends it to
// the persisted list, and returns the finalized record.
func (q *Queue) Enqueue(ctx context.Context, method Method, endpoint string, body json.RawMessage) (MutationRecord, error) {
	if !method.Valid() {
		return MutationRecord{}, ErrInvalidMethod
	}
	if endpoint == "" {
		return MutationRecord{}, ErrEmptyEndpoint
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.load(ctx)
	if err != nil {
		return MutationRecord{}, err
	}

	now := q.now()
	rec := MutationRecord{
		ID:         NewRecordID(now),
		Method:     method,
		Endpoint:   endpoint,
		Body:       body,
		EnqueuedAt: now.UTC().UnixMilli(),
	}

	records = append(records, rec)
	if err := q.save(ctx, records); err != nil {
		return MutationRecord{}, err
	}

	log.Debug().
		Str("recordId", rec.ID).
		Str("method", string(rec.Method)).
		Str("endpoint", rec.Endpoint).
		Int("depth", len(records)).
		Msg("mutation enqueued")

	return rec, nil
}

// ReadAll returns the queued records in enqueue order.
// Safe before any enqueue has happened: an uninitialized store reads as empty.
func (q *Queue) ReadAll(ctx context.Context) ([]MutationRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Len returns the current queue depth.
func (q *Queue) Len(ctx context.Context) (int, error) {
	records, err := q.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// RemoveByID deletes the record with the given id from the persisted list.
// Removing an absent id is a no-op, not an error: a crash between a
// confirmed dispatch and the persisted removal must be safe to replay.
func (q *Queue) RemoveByID(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.load(ctx)
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}

	if err := q.save(ctx, kept); err != nil {
		return err
	}

	log.Debug().Str("recordId", id).Int("depth", len(kept)).Msg("mutation removed")
	return nil
}

// Clear empties the queue entirely. Used when a full drain completes with
// zero failures, instead of N individual removals.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.store.Delete(ctx, StoreKey); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	log.Debug().Msg("mutation queue cleared")
	return nil
}

// Compact drops the store entry if the list is empty, atomically with the
// emptiness check. The coordinator uses it after a clean full drain so the
// store does not keep an empty list around; an enqueue that raced in during
// the run is never discarded.
func (q *Queue) Compact(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.load(ctx)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		return nil
	}

	if err := q.store.Delete(ctx, StoreKey); err != nil {
		return fmt.Errorf("failed to compact queue: %w", err)
	}
	return nil
}

// load reads and decodes the persisted list. Caller holds q.mu.
func (q *Queue) load(ctx context.Context) ([]MutationRecord, error) {
	data, err := q.store.Get(ctx, StoreKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	var records []MutationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode queue: %w", err)
	}
	return records, nil
}

// save encodes and writes the full list. Caller holds q.mu.
func (q *Queue) save(ctx context.Context, records []MutationRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}
	if err := q.store.Set(ctx, StoreKey, data); err != nil {
		return fmt.Errorf("failed to write queue: %w", err)
	}
	return nil
}
