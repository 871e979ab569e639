// Package session drives submissions through validation, the review
// workflow and the submission store on behalf of the signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"village-registry-system/pkg/identity"
	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/store"
	"village-registry-system/services/registry-service/workflow"
)

// PhotoStore holds resident photos.
type PhotoStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// EventPublisher receives an Event after every committed change.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// Photo is an image attached to a resident submission.
type Photo struct {
	Data        []byte
	ContentType string
}

type Option func(*options)

type options struct {
	log    *zap.Logger
	events EventPublisher
	now    func() time.Time
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// core is the kind-independent half of a controller.
type core[T models.Record] struct {
	kind   models.Kind
	coll   store.Collection[T]
	ids    identity.Provider
	log    *zap.Logger
	events EventPublisher
	now    func() time.Time

	// afterDelete runs once the records are gone; its failures are logged.
	afterDelete func(ctx context.Context, ids []string)
}

func newCore[T models.Record](kind models.Kind, coll store.Collection[T], ids identity.Provider, o options) (core[T], error) {
	if coll == nil {
		return core[T]{}, errors.New("submission store is required")
	}
	if ids == nil {
		return core[T]{}, errors.New("identity provider is required")
	}
	return core[T]{
		kind:   kind,
		coll:   coll,
		ids:    ids,
		log:    o.log.With(zap.String("kind", string(kind))),
		events: o.events,
		now:    o.now,
	}, nil
}

func (c *core[T]) identity(ctx context.Context) (identity.Identity, error) {
	who, ok := c.ids.CurrentIdentity(ctx)
	if !ok {
		return identity.Identity{}, models.ErrSessionExpired
	}
	return who, nil
}

func (c *core[T]) admin(ctx context.Context) (identity.Identity, error) {
	who, err := c.identity(ctx)
	if err != nil {
		return who, err
	}
	if !c.ids.IsAdmin(who) {
		return who, models.ErrForbidden
	}
	return who, nil
}

// ListOwn returns the caller's submissions, newest first.
func (c *core[T]) ListOwn(ctx context.Context) ([]T, error) {
	who, err := c.identity(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.coll.List(ctx, store.Filter{OwnerID: who.UserID})
	if err != nil {
		return nil, storeError("list "+string(c.kind)+" records", err)
	}
	return out, nil
}

// List returns every submission, optionally narrowed to one status.
func (c *core[T]) List(ctx context.Context, status models.Status) ([]T, error) {
	if _, err := c.admin(ctx); err != nil {
		return nil, err
	}
	if err := c.checkStatus(status); err != nil {
		return nil, err
	}
	out, err := c.coll.List(ctx, store.Filter{Status: status})
	if err != nil {
		return nil, storeError("list "+string(c.kind)+" records", err)
	}
	return out, nil
}

func (c *core[T]) checkStatus(status models.Status) error {
	if status == "" {
		return nil
	}
	if _, ok := c.kind.Outcome(status); !ok {
		return models.NewValidationError(models.FieldTargetStatus, fmt.Sprintf("unknown %s status %q", c.kind, status))
	}
	return nil
}

// Transition moves record id to target. Rules that need no stored state run
// first, so a refused request never reaches the store. The update is
// conditional on the record still being pending.
func (c *core[T]) Transition(ctx context.Context, id string, target models.Status, reason string) (workflow.Change, error) {
	who, err := c.identity(ctx)
	if err != nil {
		return workflow.Change{}, err
	}
	req := workflow.Request{
		Target: target,
		Actor:  who.UserID,
		Admin:  c.ids.IsAdmin(who),
		Reason: reason,
	}
	if _, err := workflow.Check(c.kind, req); err != nil {
		return workflow.Change{}, err
	}

	rec, err := c.coll.Get(ctx, id)
	if err != nil {
		return workflow.Change{}, storeError("load "+string(c.kind)+" "+id, err)
	}
	change, err := workflow.Plan(c.kind, rec.ReviewState(), req, c.now())
	if err != nil {
		return workflow.Change{}, err
	}
	if err := c.coll.Update(ctx, id, change.From, store.Fields(change.Fields())); err != nil {
		return workflow.Change{}, storeError("update "+string(c.kind)+" "+id, err)
	}

	transitionsTotal.WithLabelValues(string(c.kind), change.Outcome.String()).Inc()
	c.log.Info("[OK] status changed",
		zap.String("id", id),
		zap.String("status", string(change.To)),
		zap.String("verified_by", who.UserID))

	evType := EventApproved
	if change.Outcome == models.OutcomeRejected {
		evType = EventRejected
	}
	c.publish(ctx, Event{
		Type:     evType,
		Kind:     c.kind,
		RecordID: id,
		OwnerID:  rec.OwnerID(),
		ActorID:  who.UserID,
		Status:   change.To,
		Reason:   change.RejectReason,
		At:       change.VerifiedAt,
	})
	return change, nil
}

// DeleteBatch removes every listed record in one store call, whatever its
// status. Side cleanup runs only after the records are gone and its
// failures are logged and ignored; a failed record deletion is returned.
func (c *core[T]) DeleteBatch(ctx context.Context, ids []string) (int64, error) {
	who, err := c.admin(ctx)
	if err != nil {
		return 0, err
	}
	ids = compactIDs(ids)
	if len(ids) == 0 {
		return 0, models.NewValidationError(models.FieldIDs, "select at least one record")
	}

	n, err := c.coll.DeleteMany(ctx, ids)
	if err != nil {
		return 0, storeError("delete "+string(c.kind)+" records", err)
	}
	if c.afterDelete != nil {
		c.afterDelete(ctx, ids)
	}

	deletionsTotal.WithLabelValues(string(c.kind)).Add(float64(n))
	c.log.Info("[OK] records deleted", zap.Strings("ids", ids), zap.Int64("deleted", n), zap.String("by", who.UserID))
	at := c.now().UTC()
	for _, id := range ids {
		c.publish(ctx, Event{Type: EventDeleted, Kind: c.kind, RecordID: id, ActorID: who.UserID, At: at})
	}
	return n, nil
}

// ObserveOwn follows the caller's own submissions. Without an identity the
// observer holds an empty snapshot until Switch is called.
func (c *core[T]) ObserveOwn(ctx context.Context) (*Observer[T], error) {
	o := newObserver[T](c.log, func(ctx context.Context, who *identity.Identity) (*store.Subscription[T], error) {
		if who == nil {
			return nil, nil
		}
		return c.coll.Subscribe(ctx, store.Filter{OwnerID: who.UserID})
	})
	var who *identity.Identity
	if id, ok := c.ids.CurrentIdentity(ctx); ok {
		who = &id
	}
	if err := o.Switch(ctx, who); err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

// ObserveAll follows every submission, optionally narrowed to one status.
func (c *core[T]) ObserveAll(ctx context.Context, status models.Status) (*Observer[T], error) {
	who, err := c.admin(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status); err != nil {
		return nil, err
	}
	o := newObserver[T](c.log, func(ctx context.Context, _ *identity.Identity) (*store.Subscription[T], error) {
		return c.coll.Subscribe(ctx, store.Filter{Status: status})
	})
	if err := o.Switch(ctx, &who); err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

// Refresh re-reads the current identity and re-targets o at it, dropping
// whatever o showed before.
func (c *core[T]) Refresh(ctx context.Context, o *Observer[T]) error {
	if who, ok := c.ids.CurrentIdentity(ctx); ok {
		return o.Switch(ctx, &who)
	}
	return o.Switch(ctx, nil)
}

func (c *core[T]) publish(ctx context.Context, ev Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, ev.RoutingKey(), ev); err != nil {
		c.log.Warn("[WARN] failed to publish event", zap.String("routing_key", ev.RoutingKey()), zap.Error(err))
	}
}

func compactIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// storeError maps a store failure onto the domain taxonomy.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, sentinel.ErrPreconditionFailed):
		return fmt.Errorf("%s: %w", op, models.ErrInvalidTransition)
	default:
		return &models.StoreError{Op: op, Err: err}
	}
}

// Message is the text to show a user for err.
func Message(err error) string {
	var se *models.StoreError
	if errors.As(err, &se) {
		return se.Message()
	}
	if _, ok := models.IsValidation(err); ok {
		return "please correct the highlighted fields"
	}
	return err.Error()
}
