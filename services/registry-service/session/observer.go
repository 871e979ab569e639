package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"village-registry-system/pkg/identity"
	"village-registry-system/pkg/stream"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/store"
)

var errObserverClosed = errors.New("observer closed")

type openFunc[T models.Record] func(ctx context.Context, who *identity.Identity) (*store.Subscription[T], error)

// Observer keeps the latest snapshot of a live query and republishes it.
// Switching the identity drops the cached snapshot before the new query
// delivers anything.
type Observer[T models.Record] struct {
	log  *zap.Logger
	open openFunc[T]
	out  *stream.Latest[[]T]

	mu       sync.Mutex
	gen      uint64
	sub      *store.Subscription[T]
	snapshot []T
	err      error
	closed   bool
}

func newObserver[T models.Record](log *zap.Logger, open openFunc[T]) *Observer[T] {
	return &Observer[T]{
		log:      log,
		open:     open,
		out:      stream.NewLatest[[]T](),
		snapshot: []T{},
	}
}

// Switch cancels the current query, publishes an empty snapshot and then
// opens a query for who. A nil identity leaves the observer empty.
func (o *Observer[T]) Switch(ctx context.Context, who *identity.Identity) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errObserverClosed
	}
	if o.sub != nil {
		o.sub.Close()
		o.sub = nil
	}
	o.gen++
	gen := o.gen
	o.snapshot = []T{}
	o.err = nil
	o.out.Publish([]T{})
	o.mu.Unlock()

	sub, err := o.open(ctx, who)
	if err != nil {
		return storeError("subscribe", err)
	}
	if sub == nil {
		return nil
	}

	o.mu.Lock()
	if o.closed || o.gen != gen {
		o.mu.Unlock()
		sub.Close()
		return nil
	}
	o.sub = sub
	o.mu.Unlock()

	go o.forward(gen, sub)
	return nil
}

func (o *Observer[T]) forward(gen uint64, sub *store.Subscription[T]) {
	for snap := range sub.Updates() {
		o.mu.Lock()
		if o.closed || o.gen != gen {
			o.mu.Unlock()
			return
		}
		o.snapshot = snap
		o.out.Publish(snap)
		o.mu.Unlock()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.gen != gen {
		return
	}
	if err := sub.Err(); err != nil {
		o.err = storeError("subscription", err)
		o.log.Warn("[WARN] live query ended", zap.Error(err))
	}
	// The current query ended on its own: failure or cancelled context.
	// Closing lets readers of Updates see the end and consult Err.
	o.closeLocked()
}

// Updates delivers each new snapshot. Only the newest unread one is kept.
// The channel closes when the observer closes or its live query fails.
func (o *Observer[T]) Updates() <-chan []T {
	return o.out.C()
}

// Snapshot is the last delivered snapshot, newest record first.
func (o *Observer[T]) Snapshot() []T {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]T, len(o.snapshot))
	copy(out, o.snapshot)
	return out
}

// Latest is the newest record of the current snapshot.
func (o *Observer[T]) Latest() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.snapshot) == 0 {
		var zero T
		return zero, false
	}
	return o.snapshot[0], true
}

// Err reports why the live query stopped, if it failed.
func (o *Observer[T]) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Close is idempotent.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked()
}

func (o *Observer[T]) closeLocked() {
	if o.closed {
		return
	}
	o.closed = true
	if o.sub != nil {
		o.sub.Close()
		o.sub = nil
	}
	o.out.Close()
}
