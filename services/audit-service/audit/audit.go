// Package audit turns registry events into a structured audit trail.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"village-registry-system/services/registry-service/session"
)

// Bindings are the routing keys the audit queue listens to.
var Bindings = []string{"resident.*", "letter.*"}

var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_events_total",
		Help: "Registry events written to the audit trail",
	},
	[]string{"kind", "type"},
)

type Trail struct {
	log *zap.Logger
}

func NewTrail(log *zap.Logger) *Trail {
	return &Trail{log: log.Named("audit")}
}

// Handle records one event. Malformed messages are errors.
func (t *Trail) Handle(routingKey string, body []byte) error {
	var ev session.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}
	if ev.Kind == "" || ev.Type == "" || ev.RecordID == "" {
		return fmt.Errorf("incomplete event on %q", routingKey)
	}
	if ev.RoutingKey() != routingKey {
		t.log.Warn("[WARN] routing key does not match event",
			zap.String("routing_key", routingKey),
			zap.String("event", ev.RoutingKey()))
	}

	fields := []zap.Field{
		zap.String("kind", string(ev.Kind)),
		zap.String("type", string(ev.Type)),
		zap.String("record_id", ev.RecordID),
		zap.String("actor_id", ev.ActorID),
		zap.Time("at", ev.At),
	}
	if ev.OwnerID != "" {
		fields = append(fields, zap.String("owner_id", ev.OwnerID))
	}
	if ev.Status != "" {
		fields = append(fields, zap.String("status", string(ev.Status)))
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}
	t.log.Info("[AUDIT] "+ev.RoutingKey(), fields...)
	eventsTotal.WithLabelValues(string(ev.Kind), string(ev.Type)).Inc()
	return nil
}

// Run consumes msgs until ctx ends or the channel closes. Handled messages
// are acked; malformed ones are dropped without requeue.
func (t *Trail) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				t.log.Warn("[WARN] delivery channel closed")
				return
			}
			if err := t.Handle(d.RoutingKey, d.Body); err != nil {
				t.log.Warn("[WARN] dropping message", zap.String("routing_key", d.RoutingKey), zap.Error(err))
				if err := d.Nack(false, false); err != nil {
					t.log.Error("[ERROR] nack failed", zap.Error(err))
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				t.log.Error("[ERROR] ack failed", zap.Error(err))
			}
		}
	}
}
