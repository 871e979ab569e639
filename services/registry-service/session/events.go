package session

import (
	"time"

	"village-registry-system/services/registry-service/models"
)

type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventApproved  EventType = "approved"
	EventRejected  EventType = "rejected"
	EventDeleted   EventType = "deleted"
)

// Event describes a committed change to one record.
type Event struct {
	Type     EventType     `json:"type"`
	Kind     models.Kind   `json:"kind"`
	RecordID string        `json:"record_id"`
	OwnerID  string        `json:"owner_id,omitempty"`
	ActorID  string        `json:"actor_id"`
	Status   models.Status `json:"status,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	At       time.Time     `json:"at"`
}

// RoutingKey is "<kind>.<type>", e.g. "resident.submitted".
func (e Event) RoutingKey() string {
	return string(e.Kind) + "." + string(e.Type)
}
