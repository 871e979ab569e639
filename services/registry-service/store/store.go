// Package store persists submissions. One Collection holds one record kind;
// every listing is ordered newest first by created_at.
package store

import (
	"context"
	"sync"

	"village-registry-system/pkg/stream"
	"village-registry-system/services/registry-service/models"
)

// Fields is a partial update keyed by document field. A nil value removes
// the field.
type Fields map[string]interface{}

// Filter narrows a listing. Empty members match everything.
type Filter struct {
	OwnerID string
	Status  models.Status
}

// Collection is the contract the session layer relies on. Errors wrap the
// pkg/sentinel values: ErrNotFound for a missing id, ErrConflict for a
// duplicate key, ErrPreconditionFailed when Update's expected status no
// longer holds.
type Collection[T models.Record] interface {
	// Create stores rec under key, or under a generated id when key is empty.
	Create(ctx context.Context, key string, rec T) (string, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, f Filter) ([]T, error)
	// Update applies fields to the record id. A non-empty expect makes the
	// update conditional on the record still having that status.
	Update(ctx context.Context, id string, expect models.Status, fields Fields) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// Subscribe delivers the filtered, ordered snapshot now and after every
	// change, until the subscription is closed or ctx is done.
	Subscribe(ctx context.Context, f Filter) (*Subscription[T], error)
}

// Subscription is a live query. Only the newest snapshot is buffered.
type Subscription[T models.Record] struct {
	latest *stream.Latest[[]T]
	cancel context.CancelFunc
	once   sync.Once

	mu  sync.Mutex
	err error
}

func newSubscription[T models.Record](ctx context.Context) (*Subscription[T], context.Context) {
	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{latest: stream.NewLatest[[]T](), cancel: cancel}
	go func() {
		<-subCtx.Done()
		s.Close()
	}()
	return s, subCtx
}

// Updates is closed when the subscription ends; check Err afterwards.
func (s *Subscription[T]) Updates() <-chan []T {
	return s.latest.C()
}

// Done is closed as soon as the subscription ends.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.latest.Done()
}

// Err is the failure that ended the subscription, if any.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		s.latest.Close()
	})
}

func (s *Subscription[T]) publish(snapshot []T) bool {
	return s.latest.Publish(snapshot)
}

func (s *Subscription[T]) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.Close()
}

func (f Filter) matches(rec models.Record) bool {
	if f.OwnerID != "" && rec.OwnerID() != f.OwnerID {
		return false
	}
	if f.Status != "" && rec.ReviewState().Status != f.Status {
		return false
	}
	return true
}
