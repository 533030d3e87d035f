// Package dataloader implements keyed batching, deduplication, and optional
// TTL-bounded memoization for upstream calls (spec §4.C). One Loader is
// instantiated per IR I/O node per request and torn down with the request
// (spec §9 "DataLoader as a per-request singleton").
package dataloader

import (
	"context"
	"sync"
	"time"

	"github.com/hanpama/protograph/internal/cache"
)

// Result is the outcome of resolving one batch key.
type Result struct {
	Value any
	Err   error
}

// BatchFunc resolves a set of distinct keys in one upstream call. It must
// return exactly len(keys) results, positionally aligned with keys; a
// partial-result upstream that cannot align every key is a caller bug, not
// a loader concern (spec §4.C "Failure model").
type BatchFunc func(ctx context.Context, keys []string) []Result

// Config mirrors spec §4.C's parameters.
type Config struct {
	// Delay is the batching window. The first Load in an empty window
	// starts the timer; it flushes when the timer elapses or MaxBatchSize
	// is reached, whichever comes first.
	Delay time.Duration
	// MaxBatchSize caps items per upstream call; 0 means unbounded.
	MaxBatchSize int
	// Dedupe, when true, makes equal keys within a window resolve from a
	// single in-flight call; when false, equal keys are never shared and
	// each Load becomes its own batch item (spec §4.C step 5).
	Dedupe bool
	// Memo, if non-nil, is consulted before enqueuing and populated after
	// a successful batch result, providing cross-window TTL memoization
	// distinct from per-window dedup (spec §4.C "optional TTL-bounded
	// memoization"). Values are stored via Codec.
	Memo  cache.Store
	TTL   time.Duration
	Codec Codec
}

// Codec (de)serializes a Result's Value for the memo store, since cache.Store
// deals in bytes. A nil Codec disables memoization even if Memo is set.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

type batchItem struct {
	key     string
	waiters []chan Result
}

// Loader batches concurrent Load calls for the same upstream within a
// delay window, per spec §4.C.
type Loader struct {
	cfg   Config
	batch BatchFunc

	mu      sync.Mutex
	pending []*batchItem
	byKey   map[string]*batchItem // populated only when Dedupe
	timer   *time.Timer
	flushCtx context.Context
}

// New constructs a Loader. batch is invoked at most once per flushed window.
func New(batch BatchFunc, cfg Config) *Loader {
	l := &Loader{cfg: cfg, batch: batch}
	if cfg.Dedupe {
		l.byKey = make(map[string]*batchItem)
	}
	return l
}

// Load enqueues key for the current (or a new) batching window and blocks
// until its result is delivered or ctx is cancelled.
func (l *Loader) Load(ctx context.Context, key string) (any, error) {
	if l.cfg.Memo != nil && l.cfg.Codec != nil {
		if raw, ok := l.cfg.Memo.Get(memoHash(key)); ok {
			v, err := l.cfg.Codec.Decode(raw)
			if err == nil {
				return v, nil
			}
		}
	}

	ch := make(chan Result, 1)
	l.mu.Lock()
	if l.cfg.Dedupe {
		if item, ok := l.byKey[key]; ok {
			item.waiters = append(item.waiters, ch)
			l.mu.Unlock()
			return l.await(ctx, ch)
		}
	}

	item := &batchItem{key: key, waiters: []chan Result{ch}}
	l.pending = append(l.pending, item)
	if l.cfg.Dedupe {
		l.byKey[key] = item
	}
	if l.flushCtx == nil {
		l.flushCtx = context.Background()
	}

	shouldFlushNow := l.cfg.MaxBatchSize > 0 && len(l.pending) >= l.cfg.MaxBatchSize
	if len(l.pending) == 1 && !shouldFlushNow {
		l.timer = time.AfterFunc(l.cfg.Delay, l.flush)
	}
	l.mu.Unlock()

	if shouldFlushNow {
		l.flush()
	}

	return l.await(ctx, ch)
}

func (l *Loader) await(ctx context.Context, ch chan Result) (any, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flush detaches the current pending buffer and runs the upstream batch
// call, then fans results out to every waiter (spec §4.C steps 2-4).
func (l *Loader) flush() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	items := l.pending
	l.pending = nil
	if l.cfg.Dedupe {
		l.byKey = make(map[string]*batchItem)
	}
	ctx := l.flushCtx
	l.flushCtx = nil
	l.mu.Unlock()

	if len(items) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.key
	}

	results := l.batch(ctx, keys)

	// A batched upstream error must fan out to all waiters unchanged
	// (spec §4.C "Failure model"); a short result slice is itself an
	// upstream contract violation and is reported to every waiter.
	short := len(results) < len(items)
	for i, it := range items {
		var r Result
		if short {
			r = Result{Err: errShortBatchResult}
		} else {
			r = results[i]
		}
		if r.Err == nil && l.cfg.Memo != nil && l.cfg.Codec != nil {
			if raw, err := l.cfg.Codec.Encode(r.Value); err == nil {
				l.cfg.Memo.Set(memoHash(it.key), raw, l.cfg.TTL)
			}
		}
		for _, ch := range it.waiters {
			ch <- r
		}
	}
}

var errShortBatchResult = shortBatchResultError{}

type shortBatchResultError struct{}

func (shortBatchResultError) Error() string {
	return "dataloader: batch function returned fewer results than keys"
}

// memoHash derives a stable 64-bit key for the memo store from a loader key
// string (the node's group_by value, as the evaluator derives it); hashing
// here keeps the cache.Store interface uniform across all callers.
func memoHash(key string) uint64 {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211
	}
	return h
}
