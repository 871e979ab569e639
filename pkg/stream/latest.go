package stream

import "sync"

// Latest is a channel that only ever buffers the newest value. Publishing
// never blocks: an unread value is replaced by the next one, so a slow reader
// always sees the most recent snapshot instead of a backlog.
type Latest[T any] struct {
	mu     sync.Mutex
	ch     chan T
	done   chan struct{}
	closed bool
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{
		ch:   make(chan T, 1),
		done: make(chan struct{}),
	}
}

// C is closed after Close, once any buffered value has been read.
func (l *Latest[T]) C() <-chan T {
	return l.ch
}

// Done is closed as soon as Close is called.
func (l *Latest[T]) Done() <-chan struct{} {
	return l.done
}

// Publish replaces any unread value with v. It reports false once closed.
func (l *Latest[T]) Publish(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
	return true
}

// Close is idempotent.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.ch)
	close(l.done)
}

func (l *Latest[T]) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
