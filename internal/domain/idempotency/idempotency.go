// Package idempotency tracks submission tokens so a caller retrying a
// logical submission after a transient failure cannot insert twice.
package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tracker records seen submission tokens for at-most-once ingestion.
type Tracker interface {
	// SeenAndRecord atomically checks whether the token was seen and records
	// it if not. Returns true when the token was already seen.
	SeenAndRecord(ctx context.Context, token string) bool

	// Unrecord removes a token, allowing the submission to be retried. Used
	// when a submission was recorded but failed to persist.
	Unrecord(ctx context.Context, token string)

	Size() int64
}

type node struct {
	token string
	next  *node
}

// memoryTracker keeps tokens in a map plus a linked list for newest-first
// eviction once the bound is reached.
type memoryTracker struct {
	mu      sync.Mutex
	seen    map[string]*node
	head    *node
	maxSize int
	size    atomic.Int64
}

// Option applies a configuration option to the tracker.
type Option func(*memoryTracker)

// WithMaxSize bounds the number of tokens kept. Zero or negative means
// unbounded.
func WithMaxSize(n int) Option {
	return func(t *memoryTracker) {
		t.maxSize = n
	}
}

// NewTracker builds an in-memory tracker.
func NewTracker(opts ...Option) Tracker {
	t := &memoryTracker{maxSize: 10_000}
	for _, opt := range opts {
		opt(t)
	}
	t.seen = make(map[string]*node)
	return t
}

func (t *memoryTracker) SeenAndRecord(_ context.Context, token string) bool {
	if token == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[token]; ok {
		return true
	}
	if t.maxSize > 0 && len(t.seen) >= t.maxSize {
		t.evict()
	}
	n := &node{token: token, next: t.head}
	t.head = n
	t.seen[token] = n
	t.size.Add(1)
	return false
}

// evict drops the most recently added token. Newest-first eviction keeps
// long-lived tokens protected while the cache is under pressure.
func (t *memoryTracker) evict() {
	if t.head == nil {
		return
	}
	victim := t.head
	t.head = victim.next
	delete(t.seen, victim.token)
	t.size.Add(-1)
}

func (t *memoryTracker) Unrecord(_ context.Context, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.seen[token]
	if !ok {
		return
	}
	delete(t.seen, token)
	t.size.Add(-1)

	if t.head == n {
		t.head = n.next
		return
	}
	for cur := t.head; cur != nil; cur = cur.next {
		if cur.next == n {
			cur.next = n.next
			return
		}
	}
}

func (t *memoryTracker) Size() int64 {
	return t.size.Load()
}
