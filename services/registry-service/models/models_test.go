package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestKindVocabulary(t *testing.T) {
	assert.Equal(t, StatusApproved, KindResident.Status(OutcomeApproved))
	assert.Equal(t, StatusAccepted, KindLetter.Status(OutcomeApproved))
	assert.Equal(t, StatusRejected, KindLetter.Status(OutcomeRejected))
	assert.Equal(t, StatusPending, KindResident.Status(OutcomePending))

	o, ok := KindLetter.Outcome(StatusAccepted)
	require.True(t, ok)
	assert.Equal(t, OutcomeApproved, o)

	_, ok = KindLetter.Outcome(StatusApproved)
	assert.False(t, ok, "APPROVED belongs to the resident vocabulary")
	_, ok = KindResident.Outcome(StatusAccepted)
	assert.False(t, ok, "ACCEPTED belongs to the letter vocabulary")

	assert.Equal(t, []Status{StatusPending, StatusAccepted, StatusRejected}, KindLetter.Statuses())
	assert.True(t, OutcomeRejected.Terminal())
	assert.False(t, OutcomePending.Terminal())
}

func TestReviewConsistent(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, NewReview(now).Consistent(KindResident))
	assert.False(t, Review{Status: StatusPending, VerifiedBy: "admin"}.Consistent(KindResident))
	assert.True(t, Review{Status: StatusApproved, VerifiedAt: &now, VerifiedBy: "admin"}.Consistent(KindResident))
	assert.False(t, Review{Status: StatusApproved, VerifiedAt: &now, VerifiedBy: "admin", RejectReason: "x"}.Consistent(KindResident))
	assert.False(t, Review{Status: StatusRejected, VerifiedAt: &now, VerifiedBy: "admin"}.Consistent(KindLetter))
	assert.True(t, Review{Status: StatusRejected, VerifiedAt: &now, VerifiedBy: "admin", RejectReason: "blurry"}.Consistent(KindLetter))
	assert.False(t, Review{Status: StatusApproved, VerifiedAt: &now, VerifiedBy: "admin"}.Consistent(KindLetter))
}

func TestChoice(t *testing.T) {
	t.Run("blank pick stays unset", func(t *testing.T) {
		c := Pick(Gender("  "))
		assert.False(t, c.IsSet())
		assert.Equal(t, GenderFemale, c.OrElse(GenderFemale))
	})

	t.Run("json null is unset", func(t *testing.T) {
		var r Resident
		require.NoError(t, json.Unmarshal([]byte(`{"gender":null,"religion":"ISLAM"}`), &r))
		assert.False(t, r.Gender.IsSet())
		v, ok := r.Religion.Get()
		assert.True(t, ok)
		assert.Equal(t, ReligionIslam, v)

		out, err := json.Marshal(r.Gender)
		require.NoError(t, err)
		assert.Equal(t, "null", string(out))
	})

	t.Run("bson omits unset choices", func(t *testing.T) {
		r := NewResident(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		r.Religion = Pick(ReligionHindu)

		raw, err := bson.Marshal(r)
		require.NoError(t, err)

		var doc bson.M
		require.NoError(t, bson.Unmarshal(raw, &doc))
		assert.NotContains(t, doc, "gender")
		assert.Equal(t, "HINDU", doc["religion"])
		assert.Equal(t, "PENDING", doc["status"])
		assert.Equal(t, "01-03-2026", doc["reported_on"])

		var back Resident
		require.NoError(t, bson.Unmarshal(raw, &back))
		assert.False(t, back.Gender.IsSet())
		assert.Equal(t, Pick(ReligionHindu), back.Religion)
	})
}

func TestErrors(t *testing.T) {
	v := &ValidationError{Fields: FieldErrors{FieldNIK: "must be 16 digits", FieldFullName: "required"}}
	assert.Equal(t, "validation failed: full_name: required; nik: must be 16 digits", v.Error())

	got, ok := IsValidation(errors.Join(errors.New("outer"), v))
	require.True(t, ok)
	assert.Same(t, v, got)

	cause := errors.New("permission denied on penduduk/1234")
	se := &StoreError{Op: "update resident", Err: cause}
	assert.Equal(t, "permission denied on penduduk/1234", se.Message())
	assert.ErrorIs(t, se, cause)
	assert.Equal(t, genericStoreMessage, (&StoreError{Op: "create"}).Message())
}
