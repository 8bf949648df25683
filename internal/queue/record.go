package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Method is the kind of write operation a record replays.
// Only mutating verbs are accepted; reads are never queued.
type Method string

const (
	MethodPost   Method = "POST"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Valid reports whether m is one of the replayable verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodPost, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// MutationRecord is one deferred write operation.
// Records are immutable once enqueued: content is never edited in place,
// only removed. Presence in the queue means "not yet confirmed applied".
type MutationRecord struct {
	ID         string          `json:"id"`
	Method     Method          `json:"method"`
	Endpoint   string          `json:"endpoint"`
	Body       json.RawMessage `json:"body,omitempty"`
	EnqueuedAt int64           `json:"enqueuedAt"` // Unix milliseconds, diagnostics only
}

// NewRecordID builds a unique record id: millisecond timestamp plus a uuid
// suffix so that rapid successive enqueues within the same millisecond
// cannot collide.
func NewRecordID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UTC().UnixMilli(), uuid.New().String())
}
