package workflow

import (
	"testing"
	"time"

	"village-registry-system/services/registry-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WorkflowSuite struct {
	suite.Suite
	now     time.Time
	pending models.Review
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	s.pending = models.NewReview(s.now.Add(-time.Hour))
}

func (s *WorkflowSuite) admin(target models.Status, reason string) Request {
	return Request{Target: target, Actor: "admin-1", Admin: true, Reason: reason}
}

func (s *WorkflowSuite) TestApprove() {
	s.Run("resident pending to approved", func() {
		c, err := Plan(models.KindResident, s.pending, s.admin(models.StatusApproved, ""), s.now)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, c.To)
		s.Equal(models.StatusPending, c.From)
		s.Equal("admin-1", c.VerifiedBy)
		s.Equal(s.now, c.VerifiedAt)
		s.Empty(c.RejectReason)

		fields := c.Fields()
		s.Equal(models.StatusApproved, fields["status"])
		s.Contains(fields, "reject_reason")
		s.Nil(fields["reject_reason"])

		review := s.pending
		c.Apply(&review)
		s.True(review.Consistent(models.KindResident))
	})

	s.Run("letter uses its own approval label", func() {
		_, err := Plan(models.KindLetter, s.pending, s.admin(models.StatusApproved, ""), s.now)
		s.ErrorIs(err, models.ErrInvalidTransition)

		c, err := Plan(models.KindLetter, s.pending, s.admin(models.StatusAccepted, ""), s.now)
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, c.To)
	})

	s.Run("reason given on approval is dropped", func() {
		c, err := Plan(models.KindResident, s.pending, s.admin(models.StatusApproved, "looks fine"), s.now)
		s.Require().NoError(err)
		s.Empty(c.RejectReason)
	})
}

func (s *WorkflowSuite) TestReject() {
	s.Run("reason is trimmed and attached", func() {
		c, err := Plan(models.KindLetter, s.pending, s.admin(models.StatusRejected, "  photo unreadable "), s.now)
		s.Require().NoError(err)
		s.Equal("photo unreadable", c.RejectReason)
		s.Equal("photo unreadable", c.Fields()["reject_reason"])

		review := s.pending
		c.Apply(&review)
		s.True(review.Consistent(models.KindLetter))
		s.Equal(models.StatusRejected, review.Status)
	})

	s.Run("blank reason is a validation error", func() {
		for _, reason := range []string{"", "   ", "\t\n"} {
			_, err := Plan(models.KindResident, s.pending, s.admin(models.StatusRejected, reason), s.now)
			verr, ok := models.IsValidation(err)
			s.Require().True(ok, "reason %q", reason)
			s.Contains(verr.Fields, models.FieldRejectReason)
		}
	})
}

func (s *WorkflowSuite) TestGuards() {
	s.Run("non admin is refused", func() {
		req := s.admin(models.StatusApproved, "")
		req.Admin = false
		_, err := Plan(models.KindResident, s.pending, req, s.now)
		s.ErrorIs(err, models.ErrForbidden)
	})

	s.Run("pending is not a target", func() {
		_, err := Check(models.KindResident, s.admin(models.StatusPending, ""))
		s.ErrorIs(err, models.ErrInvalidTransition)
	})

	s.Run("unknown current status is refused", func() {
		_, err := Plan(models.KindResident, models.Review{Status: "ARCHIVED"}, s.admin(models.StatusApproved, ""), s.now)
		s.ErrorIs(err, models.ErrInvalidTransition)
	})
}

func TestTerminalStatusesRejectEveryTransition(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	verified := now.Add(-time.Minute)

	for _, kind := range []models.Kind{models.KindResident, models.KindLetter} {
		terminal := []models.Review{
			{Status: kind.Status(models.OutcomeApproved), VerifiedAt: &verified, VerifiedBy: "admin-0"},
			{Status: models.StatusRejected, VerifiedAt: &verified, VerifiedBy: "admin-0", RejectReason: "duplicate"},
		}
		for _, current := range terminal {
			for _, target := range kind.Statuses() {
				req := Request{Target: target, Actor: "admin-1", Admin: true, Reason: "again"}
				_, err := Plan(kind, current, req, now)
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrInvalidTransition, "%s %s -> %s", kind, current.Status, target)
			}
		}
	}
}

func TestCheckRunsBeforeStateIsKnown(t *testing.T) {
	_, err := Check(models.KindResident, Request{Target: models.StatusRejected, Actor: "admin-1", Admin: true})
	_, ok := models.IsValidation(err)
	assert.True(t, ok)
}

func TestBlankReasonOutranksTerminalStatus(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	verified := now.Add(-time.Minute)
	approved := models.Review{Status: models.StatusApproved, VerifiedAt: &verified, VerifiedBy: "admin-0"}

	_, err := Plan(models.KindResident, approved, Request{Target: models.StatusRejected, Actor: "admin-1", Admin: true, Reason: "  "}, now)
	verr, ok := models.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, verr.Fields, models.FieldRejectReason)
	assert.NotErrorIs(t, err, models.ErrInvalidTransition)

	_, err = Plan(models.KindResident, approved, Request{Target: models.StatusRejected, Actor: "admin-1", Admin: true, Reason: "late"}, now)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
