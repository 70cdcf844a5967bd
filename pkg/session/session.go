// Package session owns graph lifecycles and serializes external source
// changes into coalesced batches, drained one propagation pass at a time.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ripple-dev/ripple/pkg/graph"
)

// DefaultMaxPassesPerFlush bounds how many passes one Flush may run.
// Effects that re-set sources on every pass would otherwise spin forever;
// when the budget is exhausted the remaining batch stays queued for the
// next Flush.
const DefaultMaxPassesPerFlush = 100

// change is one queued source mutation.
type change struct {
	key   string
	value any
}

// Session owns one reactive graph for the lifetime of a client session.
//
// External triggers are serialized into a FIFO batch of pending source
// changes, coalesced per key (the latest value wins; a change arriving
// while a batch is still queued joins that batch rather than producing a
// second pass). Flush drains the queue one pass per batch. Source changes
// made from inside an effect's run function land in the next batch and
// are processed as a new pass, never interleaved with the current one.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	graph *graph.Graph

	mu         sync.Mutex
	pending    []change
	pendingIdx map[string]int
	flushing   bool

	maxPasses int
	closed    atomic.Bool
	passCount atomic.Uint64

	// onPass, when set, observes every completed pass. Used by the
	// server for metrics.
	onPass func(*graph.PassResult, time.Duration)

	logger *slog.Logger
}

// New creates a session with a fresh graph. A nil logger falls back to
// slog.Default().
func New(id string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		graph:      graph.New(),
		pendingIdx: make(map[string]int),
		maxPasses:  DefaultMaxPassesPerFlush,
		logger:     logger.With("session_id", id),
	}
}

// Graph returns the graph owned by this session, for node registration at
// session start.
func (s *Session) Graph() *graph.Graph {
	return s.graph
}

// Logger returns the session's logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// OnPass registers an observer invoked after every completed pass with
// its result and duration.
func (s *Session) OnPass(fn func(*graph.PassResult, time.Duration)) {
	s.onPass = fn
}

// SetMaxPassesPerFlush overrides the per-Flush pass budget.
func (s *Session) SetMaxPassesPerFlush(n int) {
	if n > 0 {
		s.maxPasses = n
	}
}

// Set queues a source change. Safe to call from effect run functions: a
// change queued mid-pass is processed as a new pass after the current one
// completes.
func (s *Session) Set(key string, value any) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.pendingIdx[key]; ok {
		// Coalesce: latest value wins, original queue position kept.
		s.pending[idx].value = value
		return nil
	}
	s.pendingIdx[key] = len(s.pending)
	s.pending = append(s.pending, change{key: key, value: value})
	return nil
}

// Value returns the cached value of a Source or Derived node. Reads are
// allowed from effect run functions; they observe the in-pass state.
func (s *Session) Value(key string) (any, bool) {
	return s.graph.Value(key)
}

// Flush drains the pending queue, running one propagation pass per
// coalesced batch until no changes remain or the pass budget for this
// Flush is spent. Returns the results of every pass run, in order.
//
// Flush never runs concurrently with itself: a re-entrant call (e.g. from
// an effect) returns immediately and the outer drain loop picks up the
// queued batch.
func (s *Session) Flush() []*graph.PassResult {
	if s.closed.Load() {
		return nil
	}

	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return nil
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	var results []*graph.PassResult
	for pass := 0; ; pass++ {
		if pass >= s.maxPasses {
			s.logger.Warn("pass budget exhausted, deferring remaining changes",
				"passes", pass)
			return results
		}

		batch := s.takeBatch()
		if len(batch) == 0 {
			return results
		}

		keys := make([]string, 0, len(batch))
		for _, c := range batch {
			if err := s.graph.Set(c.key, c.value); err != nil {
				s.logger.Warn("dropping invalid source change",
					"key", c.key, "error", err)
				continue
			}
			keys = append(keys, c.key)
		}
		if len(keys) == 0 {
			continue
		}

		start := time.Now()
		result := s.graph.Propagate(keys)
		s.passCount.Add(1)
		if s.onPass != nil {
			s.onPass(result, time.Since(start))
		}
		if !result.OK() {
			for _, ne := range result.Errors {
				s.logger.Error("node failed during pass",
					"key", ne.Key, "error", ne.Err)
			}
		}
		results = append(results, result)
	}
}

// takeBatch swaps out the current pending batch.
func (s *Session) takeBatch() []change {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.pending
	s.pending = nil
	s.pendingIdx = make(map[string]int)
	return batch
}

// Pending returns the number of queued, not yet flushed changes.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Passes returns how many propagation passes this session has run.
func (s *Session) Passes() uint64 {
	return s.passCount.Load()
}

// IsClosed reports whether the session has been torn down.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Close tears the session down, releasing all cached node values.
// Idempotent.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}

	s.mu.Lock()
	s.pending = nil
	s.pendingIdx = nil
	s.mu.Unlock()

	s.graph.Release()
	s.logger.Debug("session closed", "passes", s.passCount.Load())
}
