package models

import (
	"strings"
	"time"
)

// Review is the lifecycle metadata both record kinds carry. Invariants:
// VerifiedAt, VerifiedBy and RejectReason are unset while Pending, and
// RejectReason is set iff the record is Rejected.
type Review struct {
	Status       Status     `bson:"status" json:"status"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	VerifiedAt   *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	VerifiedBy   string     `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	RejectReason string     `bson:"reject_reason,omitempty" json:"reject_reason,omitempty"`
}

// NewReview is the state of a freshly submitted record.
func NewReview(createdAt time.Time) Review {
	return Review{Status: StatusPending, CreatedAt: createdAt}
}

// Consistent reports whether r honours the review invariants for kind k.
func (r Review) Consistent(k Kind) bool {
	outcome, ok := k.Outcome(r.Status)
	if !ok {
		return false
	}
	hasReason := strings.TrimSpace(r.RejectReason) != ""
	if outcome == OutcomePending {
		return r.VerifiedAt == nil && r.VerifiedBy == "" && !hasReason
	}
	if r.VerifiedAt == nil || r.VerifiedBy == "" {
		return false
	}
	return hasReason == (outcome == OutcomeRejected)
}

// Record is implemented by every record kind that flows through the workflow.
type Record interface {
	RecordKind() Kind
	RecordID() string
	OwnerID() string
	SubmittedAt() time.Time
	ReviewState() Review
}
