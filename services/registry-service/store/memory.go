package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/registry-service/models"
)

type memoryDoc struct {
	seq uint64
	raw bson.Raw
}

// MemoryCollection keeps BSON documents in process memory so records round
// trip through the same encoding the Mongo collection uses.
type MemoryCollection[T models.Record] struct {
	mu       sync.Mutex
	seq      uint64
	docs     map[string]memoryDoc
	watchers map[*Subscription[T]]Filter
}

func NewMemoryCollection[T models.Record]() *MemoryCollection[T] {
	return &MemoryCollection[T]{
		docs:     make(map[string]memoryDoc),
		watchers: make(map[*Subscription[T]]Filter),
	}
}

func (c *MemoryCollection[T]) Create(ctx context.Context, key string, rec T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := toDocument(rec)
	if err != nil {
		return "", err
	}
	id := key
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	doc["_id"] = id
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[id]; exists {
		return "", fmt.Errorf("%s: %w", id, sentinel.ErrConflict)
	}
	c.seq++
	c.docs[id] = memoryDoc{seq: c.seq, raw: raw}
	c.notifyLocked()
	return id, nil
}

func (c *MemoryCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[id]
	if !ok {
		return zero, fmt.Errorf("%s: %w", id, sentinel.ErrNotFound)
	}
	var out T
	if err := bson.Unmarshal(d.raw, &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", id, err)
	}
	return out, nil
}

func (c *MemoryCollection[T]) List(ctx context.Context, f Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(f)
}

func (c *MemoryCollection[T]) Update(ctx context.Context, id string, expect models.Status, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.docs[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, sentinel.ErrNotFound)
	}
	var doc bson.M
	if err := bson.Unmarshal(d.raw, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}
	if expect != "" && doc["status"] != string(expect) {
		return fmt.Errorf("%s is %v, not %s: %w", id, doc["status"], expect, sentinel.ErrPreconditionFailed)
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	c.docs[id] = memoryDoc{seq: d.seq, raw: raw}
	c.notifyLocked()
	return nil
}

func (c *MemoryCollection[T]) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := c.docs[id]; ok {
			delete(c.docs, id)
			n++
		}
	}
	if n > 0 {
		c.notifyLocked()
	}
	return n, nil
}

func (c *MemoryCollection[T]) Subscribe(ctx context.Context, f Filter) (*Subscription[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub, subCtx := newSubscription[T](ctx)

	c.mu.Lock()
	snap, err := c.snapshotLocked(f)
	if err != nil {
		c.mu.Unlock()
		sub.Close()
		return nil, err
	}
	sub.publish(snap)
	c.watchers[sub] = f
	c.mu.Unlock()

	go func() {
		<-subCtx.Done()
		c.mu.Lock()
		delete(c.watchers, sub)
		c.mu.Unlock()
	}()
	return sub, nil
}

// Watchers is the number of live subscriptions.
func (c *MemoryCollection[T]) Watchers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

func (c *MemoryCollection[T]) notifyLocked() {
	for sub, f := range c.watchers {
		snap, err := c.snapshotLocked(f)
		if err != nil {
			sub.fail(err)
			continue
		}
		sub.publish(snap)
	}
}

func (c *MemoryCollection[T]) snapshotLocked(f Filter) ([]T, error) {
	type entry struct {
		seq uint64
		rec T
	}
	entries := make([]entry, 0, len(c.docs))
	for id, d := range c.docs {
		var rec T
		if err := bson.Unmarshal(d.raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		if f.matches(rec) {
			entries = append(entries, entry{seq: d.seq, rec: rec})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].rec.SubmittedAt(), entries[j].rec.SubmittedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out, nil
}

func toDocument(rec interface{}) (bson.M, error) {
	raw, err := bson.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return doc, nil
}
