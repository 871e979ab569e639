package models

import "fmt"

// Kind names the record families tracked through the review workflow.
type Kind string

const (
	KindResident Kind = "resident"
	KindLetter   Kind = "letter"
)

func (k Kind) Valid() bool {
	return k == KindResident || k == KindLetter
}

// Outcome is the kind-independent position of a record in the workflow.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeApproved
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", o)
	}
}

// Terminal outcomes accept no further transition.
func (o Outcome) Terminal() bool {
	return o == OutcomeApproved || o == OutcomeRejected
}

// Status is the persisted label. Each kind has its own vocabulary.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Status returns the label kind k uses for outcome o.
func (k Kind) Status(o Outcome) Status {
	switch o {
	case OutcomeApproved:
		if k == KindLetter {
			return StatusAccepted
		}
		return StatusApproved
	case OutcomeRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Outcome maps a label back to the workflow position. Labels belonging to the
// other kind's vocabulary are not recognised.
func (k Kind) Outcome(s Status) (Outcome, bool) {
	switch s {
	case StatusPending:
		return OutcomePending, true
	case StatusRejected:
		return OutcomeRejected, true
	case k.Status(OutcomeApproved):
		return OutcomeApproved, true
	default:
		return 0, false
	}
}

// Statuses lists the vocabulary of k in workflow order.
func (k Kind) Statuses() []Status {
	return []Status{k.Status(OutcomePending), k.Status(OutcomeApproved), k.Status(OutcomeRejected)}
}
