// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

// Package observe implements a small push-based observable primitive: a
// mutable value with a subscriber list. Every Set notifies subscribers in
// subscription order after the new value is committed, and a late subscriber
// immediately receives the most recent value.
//
// Subscriber channels have capacity one and are conflated: if a subscriber
// has not consumed the previous notification yet, the stale value is dropped
// and replaced by the newest one. Observers therefore always converge on the
// latest state but may skip intermediate states.
package observe

import "sync"

// Value holds a T and broadcasts every change to its subscribers.
// The zero Value is not usable; construct with NewValue.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[int]chan T
	order   []int
	nextID  int
}

// NewValue returns a Value initialised to initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set commits next as the current value and notifies all subscribers in
// subscription order.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = next
	for _, id := range v.order {
		Replace(v.subs[id], next)
	}
}

// Update atomically derives the next value from the current one via fn and
// notifies all subscribers. Concurrent Updates never lose increments.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = fn(v.current)
	for _, id := range v.order {
		Replace(v.subs[id], v.current)
	}
}

// Subscribe registers a new observer. The returned channel immediately
// carries the current value and then every subsequent change until cancel is
// called. cancel closes the channel and is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++

	ch := make(chan T, 1)
	ch <- v.current
	v.subs[id] = ch
	v.order = append(v.order, id)

	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()

		if sub, ok := v.subs[id]; ok {
			delete(v.subs, id)
			for i, other := range v.order {
				if other == id {
					v.order = append(v.order[:i], v.order[i+1:]...)
					break
				}
			}
			close(sub)
		}
	}

	return ch, cancel
}

// Replace performs a conflated send on a capacity-one channel: if ch is
// full, the pending value is discarded so that the receiver always sees the
// newest one. Replace never blocks.
func Replace[T any](ch chan T, next T) {
	for {
		select {
		case ch <- next:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
