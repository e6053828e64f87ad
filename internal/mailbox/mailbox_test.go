package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutCoalesces(t *testing.T) {
	mb := New[int]()

	mb.Put(1)
	mb.Put(2)
	mb.Put(3)

	v, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, 3, v, "latest value wins")

	_, ok = mb.TryTake()
	assert.False(t, ok, "slot must be empty after take")
}

func TestTakeBlocksUntilPut(t *testing.T) {
	mb := New[string]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		mb.Put("hello")
	}()

	v, ok := mb.Take(context.Background())
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestTakeReturnsOnCancel(t *testing.T) {
	mb := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := mb.Take(ctx)
	assert.False(t, ok)
}
