package audit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/session"
)

type acker struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *acker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *acker) Nack(tag uint64, _ bool, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *acker) Reject(tag uint64, _ bool) error {
	return a.Nack(tag, false, false)
}

func event(t *testing.T, ev session.Event) []byte {
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return body
}

func TestHandleLogsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	trail := NewTrail(zap.New(core))
	before := testutil.ToFloat64(eventsTotal.WithLabelValues("letter", "rejected"))

	ev := session.Event{
		Type:     session.EventRejected,
		Kind:     models.KindLetter,
		RecordID: "l-1",
		OwnerID:  "u-1",
		ActorID:  "admin-1",
		Status:   models.StatusRejected,
		Reason:   "wrong purpose",
		At:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, trail.Handle("letter.rejected", event(t, ev)))

	entries := logs.FilterMessage("[AUDIT] letter.rejected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "l-1", fields["record_id"])
	assert.Equal(t, "admin-1", fields["actor_id"])
	assert.Equal(t, "wrong purpose", fields["reason"])
	assert.Equal(t, before+1, testutil.ToFloat64(eventsTotal.WithLabelValues("letter", "rejected")))
}

func TestHandleRejectsMalformed(t *testing.T) {
	trail := NewTrail(zap.NewNop())
	assert.Error(t, trail.Handle("resident.submitted", []byte("{not json")))
	assert.Error(t, trail.Handle("resident.submitted", []byte(`{"kind":"resident"}`)))
}

func TestRunAcksAndDrops(t *testing.T) {
	trail := NewTrail(zap.NewNop())
	ack := &acker{}
	msgs := make(chan amqp.Delivery, 2)
	msgs <- amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		RoutingKey:   "resident.deleted",
		Body:         event(t, session.Event{Type: session.EventDeleted, Kind: models.KindResident, RecordID: "r-1", ActorID: "admin-1"}),
	}
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, RoutingKey: "resident.deleted", Body: []byte("garbage")}
	close(msgs)

	done := make(chan struct{})
	go func() {
		trail.Run(context.Background(), msgs)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the channel closed")
	}

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewTrail(zap.NewNop()).Run(ctx, make(chan amqp.Delivery))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run ignored cancellation")
	}
}
