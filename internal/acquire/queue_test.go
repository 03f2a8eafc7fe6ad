// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

func TestQueuePopIsLIFO(t *testing.T) {
	q := NewQueue()
	q.Push(types.DeferredRequest{ID: "1"})
	q.Push(types.DeferredRequest{ID: "2"})

	req, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "2", req.ID)
	req, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "1", req.ID)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueDrainedNeedsCompletionAndEmptiness(t *testing.T) {
	q := NewQueue()
	assert.False(t, q.Drained(), "empty but incomplete")

	q.Push(types.DeferredRequest{ID: "1"})
	q.Complete()
	assert.False(t, q.Drained(), "complete but pending")

	q.Pop()
	assert.True(t, q.Drained())
}

func TestQueueChangedClosesOnMutation(t *testing.T) {
	q := NewQueue()

	ch := q.Changed()
	select {
	case <-ch:
		t.Fatal("closed before any change")
	default:
	}

	q.Push(types.DeferredRequest{ID: "1"})
	select {
	case <-ch:
	default:
		t.Fatal("Push did not signal")
	}

	ch = q.Changed()
	q.Complete()
	select {
	case <-ch:
	default:
		t.Fatal("Complete did not signal")
	}

	// A second Complete is not a change.
	ch = q.Changed()
	q.Complete()
	select {
	case <-ch:
		t.Fatal("repeated Complete signaled")
	default:
	}
}
