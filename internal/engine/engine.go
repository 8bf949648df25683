// Package engine orchestrates the offline mutation queue: it watches
// connectivity, intercepts writes that cannot be applied immediately, and
// drains the queue through the dispatcher once the network returns.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finbridge/ledgerbridge/internal/dispatch"
	"github.com/finbridge/ledgerbridge/internal/netmon"
	"github.com/finbridge/ledgerbridge/internal/queue"
	"github.com/finbridge/ledgerbridge/internal/retry"
)

// ErrRunInProgress indicates that a reconciliation run is already active.
// Event-triggered runs swallow this; manual triggers surface it.
var ErrRunInProgress = errors.New("engine: reconciliation already in progress")

// Result summarizes one reconciliation run. It is built fresh per run and
// never persisted; the queue's residual contents are the durable truth.
type Result struct {
	Processed int                    `json:"processedCount"`
	Failed    int                    `json:"failedCount"`
	Remaining []queue.MutationRecord `json:"remaining"`
}

// SleepFunc waits for the given duration or until ctx is done.
// Injectable so tests can observe backoff without real waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Engine is the explicit context object the host constructs once and passes
// by reference: queue, monitor, dispatcher and policy wired together with a
// Start/Stop lifecycle. No package-level singleton state.
type Engine struct {
	queue      *queue.Queue
	monitor    netmon.Monitor
	dispatcher dispatch.Dispatcher
	policy     retry.Policy
	sleep      SleepFunc

	runMu   sync.Mutex
	running bool

	lifecycleMu sync.Mutex
	started     bool
	unsubscribe func()
	runCtx      context.Context
	runCancel   context.CancelFunc
	wg          sync.WaitGroup

	// lastConnected tracks the previous observation so only
	// disconnected->connected edges trigger a drain.
	connMu        sync.Mutex
	lastConnected bool

	status statusBoard
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy overrides the default retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithSleep overrides the backoff sleep function (tests inject a fake clock).
func WithSleep(s SleepFunc) Option {
	return func(e *Engine) { e.sleep = s }
}

// New wires an engine. Call Start to begin reacting to connectivity events.
func New(q *queue.Queue, m netmon.Monitor, d dispatch.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		queue:      q,
		monitor:    m,
		dispatcher: d,
		policy:     retry.Default(),
		sleep:      defaultSleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start subscribes to the connectivity monitor and, if the device is
// already online, kicks off an initial drain (the app-launch opportunity
// for records that survived a process restart).
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.started {
		return errors.New("engine: already started")
	}
	e.started = true
	e.runCtx, e.runCancel = context.WithCancel(context.Background())

	state := e.monitor.CurrentState()
	e.connMu.Lock()
	e.lastConnected = state.Connected
	e.connMu.Unlock()

	pending, err := e.queue.Len(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read queue depth at startup")
	}
	e.status.set(Snapshot{Connected: state.Connected, PendingMutations: pending})

	e.unsubscribe = e.monitor.Subscribe(e.onConnectivityChange)

	log.Info().
		Bool("connected", state.Connected).
		Int("pending", pending).
		Msg("sync engine started")

	if state.Connected && pending > 0 {
		e.spawnRun("startup")
	}
	return nil
}

// Stop unsubscribes from the monitor and waits for any in-flight run to
// observe cancellation. Queued records stay persisted for the next launch.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if !e.started {
		return
	}
	e.started = false

	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.runCancel()
	e.wg.Wait()

	log.Info().Msg("sync engine stopped")
}

// Submit attempts a write immediately when connected; on dispatch failure
// or while offline the mutation is enqueued for later reconciliation.
// Returns the queued record, or nil if the write was applied directly.
func (e *Engine) Submit(ctx context.Context, method queue.Method, endpoint string, body json.RawMessage) (*queue.MutationRecord, error) {
	if !method.Valid() {
		return nil, queue.ErrInvalidMethod
	}
	if endpoint == "" {
		return nil, queue.ErrEmptyEndpoint
	}

	if e.monitor.CurrentState().Connected {
		err := e.dispatcher.Dispatch(ctx, method, endpoint, body)
		if err == nil {
			log.Debug().
				Str("method", string(method)).
				Str("endpoint", endpoint).
				Msg("mutation applied directly")
			return nil, nil
		}
		log.Warn().
			Err(err).
			Str("method", string(method)).
			Str("endpoint", endpoint).
			Msg("direct dispatch failed, deferring mutation")
	}

	rec, err := e.queue.Enqueue(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	e.refreshPending(ctx)
	return &rec, nil
}

// Status returns the current read-only snapshot for the UI layer.
func (e *Engine) Status() Snapshot {
	return e.status.get()
}

// SubscribeStatus registers fn for snapshot updates; returns an unsubscribe
// function.
func (e *Engine) SubscribeStatus(fn func(Snapshot)) func() {
	return e.status.subscribe(fn)
}

// onConnectivityChange fires on every monitor event, deduplicated here into
// disconnected->connected edges. The run guard absorbs flapping beyond that.
func (e *Engine) onConnectivityChange(s netmon.State) {
	e.connMu.Lock()
	wasConnected := e.lastConnected
	e.lastConnected = s.Connected
	e.connMu.Unlock()

	snap := e.status.get()
	snap.Connected = s.Connected
	e.status.set(snap)

	// Unknown states are conservative: no reconciliation attempt
	if s.Connected && !wasConnected && !s.Unknown() {
		e.spawnRun("reconnect")
	}
}

// spawnRun starts a reconciliation run on its own goroutine. An already
// active run makes this a no-op.
func (e *Engine) spawnRun(trigger string) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, err := e.Reconcile(e.runCtx)
		if errors.Is(err, ErrRunInProgress) {
			log.Debug().Str("trigger", trigger).Msg("reconciliation already running, trigger ignored")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("trigger", trigger).Msg("reconciliation run failed")
		}
	}()
}

// Reconcile drains the queue once, sequentially and in FIFO order.
// Returns ErrRunInProgress if another run is active.
func (e *Engine) Reconcile(ctx context.Context) (Result, error) {
	e.runMu.Lock()
	if e.running {
		e.runMu.Unlock()
		return Result{}, ErrRunInProgress
	}
	e.running = true
	e.runMu.Unlock()

	defer func() {
		e.runMu.Lock()
		e.running = false
		e.runMu.Unlock()
	}()

	runID := uuid.New().String()
	logger := log.With().Str("runId", runID).Logger()

	// One snapshot at the start of the run; records enqueued while the run
	// is in flight wait for the next run.
	snapshot, err := e.queue.ReadAll(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(snapshot) == 0 {
		logger.Debug().Msg("nothing to reconcile")
		return Result{}, nil
	}

	logger.Info().Int("pending", len(snapshot)).Msg("reconciliation run started")

	var res Result
	aborted := false

	for _, rec := range snapshot {
		if !e.canContinue(ctx) {
			aborted = true
			break
		}

		ok := e.replayRecord(ctx, logger, rec, &aborted)
		if ok {
			res.Processed++
			if err := e.queue.RemoveByID(ctx, rec.ID); err != nil {
				logger.Error().Err(err).Str("recordId", rec.ID).Msg("failed to remove applied mutation")
			}
		} else if !aborted {
			// Ceiling exhausted: the record stays queued for the next run
			res.Failed++
		}
		if aborted {
			break
		}
	}

	// Cheap path: a clean full drain drops the store entry outright
	if !aborted && res.Failed == 0 {
		if err := e.queue.Compact(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to compact queue after clean drain")
		}
	}

	res.Remaining, err = e.queue.ReadAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read residual queue")
	}

	e.finishRun(logger, res, aborted)
	return res, nil
}

// replayRecord attempts one record with in-place retries and backoff.
// Returns true when the dispatch succeeded. Sets *aborted when the run
// should end early (connectivity loss or cancellation).
func (e *Engine) replayRecord(ctx context.Context, logger zerolog.Logger, rec queue.MutationRecord, aborted *bool) bool {
	for attempt := 1; ; attempt++ {
		err := e.dispatcher.Dispatch(ctx, rec.Method, rec.Endpoint, rec.Body)
		if err == nil {
			logger.Info().
				Str("recordId", rec.ID).
				Str("method", string(rec.Method)).
				Str("endpoint", rec.Endpoint).
				Int("attempt", attempt).
				Msg("queued mutation applied")
			return true
		}

		// Transient and permanent rejections are retried identically up
		// to the same ceiling; see DESIGN.md for the known conflation.
		var permanent dispatch.PermanentError
		logger.Warn().
			Err(err).
			Str("recordId", rec.ID).
			Int("attempt", attempt).
			Bool("permanentRejection", errors.As(err, &permanent)).
			Msg("dispatch attempt failed")

		if !e.policy.ShouldRetry(attempt) {
			return false
		}

		delay := e.policy.DelayFor(attempt)
		if err := e.sleep(ctx, delay); err != nil {
			// Cancelled mid-backoff: the record reverts to pending
			*aborted = true
			return false
		}
		if !e.canContinue(ctx) {
			*aborted = true
			return false
		}
	}
}

// canContinue reports whether the run may start another dispatch attempt.
// An in-flight attempt is never force-aborted; this gate only prevents the
// next one from starting.
func (e *Engine) canContinue(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	state := e.monitor.CurrentState()
	return state.Connected && !state.Unknown()
}

// finishRun updates the status snapshot and emits the run summary.
func (e *Engine) finishRun(logger zerolog.Logger, res Result, aborted bool) {
	snap := e.status.get()
	snap.Connected = e.monitor.CurrentState().Connected
	snap.PendingMutations = len(res.Remaining)
	snap.FailedMutations = res.Failed
	e.status.set(snap)

	switch {
	case aborted:
		logger.Warn().
			Int("processed", res.Processed).
			Int("remaining", len(res.Remaining)).
			Msg("reconciliation run aborted, remaining mutations stay queued")
	case res.Failed > 0:
		// The single aggregate, non-blocking notice per completed run
		logger.Warn().
			Int("processed", res.Processed).
			Int("failed", res.Failed).
			Msg("reconciliation finished with failures, will retry automatically")
	default:
		logger.Info().
			Int("processed", res.Processed).
			Msg("reconciliation finished cleanly")
	}
}

// refreshPending re-reads the queue depth into the status snapshot.
func (e *Engine) refreshPending(ctx context.Context) {
	pending, err := e.queue.Len(ctx)
	if err != nil {
		return
	}
	snap := e.status.get()
	snap.PendingMutations = pending
	e.status.set(snap)
}
