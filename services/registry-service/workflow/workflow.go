// Package workflow is the review state machine shared by every record kind:
//
//	PENDING --approve--> APPROVED | ACCEPTED
//	PENDING --reject(reason)--> REJECTED
//
// Approved and rejected are terminal. Deletion is not a transition.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"village-registry-system/services/registry-service/models"
)

// Request asks for a record to move to Target on behalf of Actor.
type Request struct {
	Target models.Status
	Actor  string
	Admin  bool
	Reason string
}

// Change is a planned transition, ready to be committed to the store.
type Change struct {
	Kind         models.Kind
	From         models.Status
	To           models.Status
	Outcome      models.Outcome
	VerifiedAt   time.Time
	VerifiedBy   string
	RejectReason string
}

// Check runs every rule that does not depend on the record's current state,
// so a bad request is refused before anything is read from the store.
func Check(kind models.Kind, req Request) (models.Outcome, error) {
	if !req.Admin || strings.TrimSpace(req.Actor) == "" {
		return 0, models.ErrForbidden
	}
	outcome, ok := kind.Outcome(req.Target)
	if !ok || outcome == models.OutcomePending {
		return 0, fmt.Errorf("%w: %q is not a target for %s records", models.ErrInvalidTransition, req.Target, kind)
	}
	if outcome == models.OutcomeRejected && strings.TrimSpace(req.Reason) == "" {
		return 0, models.NewValidationError(models.FieldRejectReason, "a reason is required to reject")
	}
	return outcome, nil
}

// Plan validates req against the current review state and returns the change
// to commit. It never mutates current.
func Plan(kind models.Kind, current models.Review, req Request, now time.Time) (Change, error) {
	outcome, err := Check(kind, req)
	if err != nil {
		return Change{}, err
	}
	from, ok := kind.Outcome(current.Status)
	if !ok {
		return Change{}, fmt.Errorf("%w: unknown current status %q", models.ErrInvalidTransition, current.Status)
	}
	if from != models.OutcomePending {
		return Change{}, fmt.Errorf("%w: record is already %s", models.ErrInvalidTransition, current.Status)
	}

	c := Change{
		Kind:       kind,
		From:       current.Status,
		To:         kind.Status(outcome),
		Outcome:    outcome,
		VerifiedAt: now.UTC(),
		VerifiedBy: req.Actor,
	}
	if outcome == models.OutcomeRejected {
		c.RejectReason = strings.TrimSpace(req.Reason)
	}
	return c, nil
}

// Fields renders the store update. A nil value unsets the field, which is how
// an approval clears any stale rejection reason.
func (c Change) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"status":      c.To,
		"verified_at": c.VerifiedAt,
		"verified_by": c.VerifiedBy,
	}
	if c.Outcome == models.OutcomeRejected {
		fields["reject_reason"] = c.RejectReason
	} else {
		fields["reject_reason"] = nil
	}
	return fields
}

// Apply mirrors a committed change onto a local review.
func (c Change) Apply(r *models.Review) {
	at := c.VerifiedAt
	r.Status = c.To
	r.VerifiedAt = &at
	r.VerifiedBy = c.VerifiedBy
	r.RejectReason = c.RejectReason
}
