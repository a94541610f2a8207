// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package observe

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		return 0
	}
}

func TestValue_GetSet(t *testing.T) {
	v := NewValue(1)
	assert.Equal(t, 1, v.Get())

	v.Set(2)
	assert.Equal(t, 2, v.Get())
}

func TestValue_SubscribeReplaysCurrent(t *testing.T) {
	v := NewValue(42)

	ch, cancel := v.Subscribe()
	defer cancel()

	assert.Equal(t, 42, recv(t, ch))
}

func TestValue_SubscriberSeesChanges(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	defer cancel()
	assert.Equal(t, 0, recv(t, ch))

	v.Set(1)
	assert.Equal(t, 1, recv(t, ch))
}

func TestValue_Conflation(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	defer cancel()

	// Nothing consumed yet: the replayed 0 must be displaced by the newest
	// value, never blocking the writer.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	assert.Equal(t, 3, recv(t, ch))
}

func TestValue_CancelClosesChannel(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	cancel()

	// Drain the replayed value, then observe the close.
	for {
		if _, ok := <-ch; !ok {
			break
		}
	}

	// A second cancel is a no-op.
	cancel()

	// Sets after cancel must not panic on the closed channel.
	v.Set(5)
	assert.Equal(t, 5, v.Get())
}

func TestValue_UpdateDoesNotLoseIncrements(t *testing.T) {
	v := NewValue(0)

	const writers = 8
	const perWriter = 100

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				v.Update(func(n int) int { return n + 1 })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, v.Get())
}

func TestValue_MultipleSubscribersConverge(t *testing.T) {
	v := NewValue(0)

	first, cancelFirst := v.Subscribe()
	second, cancelSecond := v.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	recv(t, first)
	recv(t, second)

	v.Set(7)

	assert.Equal(t, 7, recv(t, first))
	assert.Equal(t, 7, recv(t, second))
}

func TestReplace_NeverBlocks(t *testing.T) {
	ch := make(chan int, 1)

	Replace(ch, 1)
	Replace(ch, 2)

	assert.Equal(t, 2, recv(t, ch))
}
