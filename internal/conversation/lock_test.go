package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexHandsOverInArrivalOrder(t *testing.T) {
	k := NewKeyedMutex()
	unlock := k.Lock(7)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u := k.Lock(7)
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			u()
		}(i)
		require.Eventually(t, func() bool { return k.waiting(7) == i },
			time.Second, time.Millisecond, "waiter %d never queued", i)
	}

	unlock()
	wg.Wait()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
	assert.Zero(t, k.Held())
}
