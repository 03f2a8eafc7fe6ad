// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"sync"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

// Queue holds deferred requests and the primary scan's completion flag.
// Both live under one mutex so that "complete and empty" is observed as a
// single state.
type Queue struct {
	mu       sync.Mutex
	items    []types.DeferredRequest
	complete bool
	changed  chan struct{}
}

// NewQueue returns an empty, incomplete queue.
func NewQueue() *Queue {
	return &Queue{changed: make(chan struct{})}
}

// Push appends req.
func (q *Queue) Push(req types.DeferredRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
	q.notify()
}

// Pop removes and returns the most recently pushed request.
func (q *Queue) Pop() (types.DeferredRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n == 0 {
		return types.DeferredRequest{}, false
	}
	req := q.items[n-1]
	q.items = q.items[:n-1]
	q.notify()
	return req, true
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Complete records that no further requests will be pushed by the primary scan.
func (q *Queue) Complete() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.complete {
		q.complete = true
		q.notify()
	}
}

// Drained reports whether completion has been signaled and nothing is pending.
func (q *Queue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.complete && len(q.items) == 0
}

// Changed returns a channel closed on the next state change. Callers must
// fetch it before inspecting state to avoid missing a wakeup.
func (q *Queue) Changed() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.changed
}

// notify wakes every waiter. Callers hold q.mu.
func (q *Queue) notify() {
	close(q.changed)
	q.changed = make(chan struct{})
}
