package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), []string{"email:a@x.com", "phone:1"})
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLocalOppositeKeyOrderDoesNotDeadlock(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys := []string{"email:a@x.com", "phone:2"}
			if i%2 == 1 {
				keys = []string{"phone:2", "email:a@x.com"}
			}
			unlock, err := l.Lock(ctx, keys)
			if assert.NoError(t, err) {
				unlock()
			}
		}()
	}
	wg.Wait()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), []string{"email:a@x.com"})
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, []string{"phone:9", "email:a@x.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the partially acquired shard was given back
	other, err := l.Lock(context.Background(), []string{"phone:9"})
	require.NoError(t, err)
	other()
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, sortedKeys([]string{"b", "a", "b"}))
}
