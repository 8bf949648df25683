package engine

import "sync"

// Snapshot is the read-only view the UI layer consumes: a passive status
// indicator plus the counters behind the occasional partial-failure notice.
type Snapshot struct {
	Connected        bool `json:"isConnected"`
	PendingMutations int  `json:"pendingMutations"`
	FailedMutations  int  `json:"failedMutations"`
}

// statusBoard holds the current snapshot and fans updates out to
// subscribers. Updated after every connectivity change and every run.
type statusBoard struct {
	mu     sync.Mutex
	snap   Snapshot
	nextID int
	subs   map[int]func(Snapshot)
}

func (b *statusBoard) get() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

func (b *statusBoard) set(s Snapshot) {
	b.mu.Lock()
	b.snap = s
	fns := make([]func(Snapshot), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (b *statusBoard) subscribe(fn func(Snapshot)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]func(Snapshot))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
