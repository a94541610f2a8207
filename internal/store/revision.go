package store

import "github.com/dlevch/simplenote/internal/observe"

// observeRevision is a monotonically increasing change counter backed by an
// observable value. Subscribers receive the current revision on subscribe
// and a new one after every committed mutation.
type observeRevision struct {
	value *observe.Value[uint64]
}

func newObserveRevision() *observeRevision {
	return &observeRevision{value: observe.NewValue[uint64](0)}
}

func (r *observeRevision) bump() {
	r.value.Update(func(rev uint64) uint64 { return rev + 1 })
}

func (r *observeRevision) subscribe() (<-chan uint64, func()) {
	return r.value.Subscribe()
}
