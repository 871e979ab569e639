package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Collection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/registry-service/models"
)

type MemoryCollectionSuite struct {
	suite.Suite
	ctx  context.Context
	coll *MemoryCollection[models.LetterRequest]
	base time.Time
}

func TestMemoryCollectionSuite(t *testing.T) {
	suite.Run(t, new(MemoryCollectionSuite))
}

func (s *MemoryCollectionSuite) SetupTest() {
	s.ctx = context.Background()
	s.coll = NewMemoryCollection[models.LetterRequest]()
	s.base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *MemoryCollectionSuite) letter(owner string, minutes int) models.LetterRequest {
	l := models.NewLetterRequest()
	l.Owner = owner
	l.Review = models.NewReview(s.base.Add(time.Duration(minutes) * time.Minute))
	l.NIK = "3301010101010001"
	l.FullName = "Siti Aminah"
	l.DocumentType = models.Pick(models.DocumentBusiness)
	l.Purpose = "Market stall permit"
	return l
}

func (s *MemoryCollectionSuite) create(l models.LetterRequest) string {
	id, err := s.coll.Create(s.ctx, "", l)
	s.Require().NoError(err)
	s.Require().NotEmpty(id)
	return id
}

func (s *MemoryCollectionSuite) TestCreateAndGet() {
	id := s.create(s.letter("u1", 0))

	got, err := s.coll.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.Equal("u1", got.Owner)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(models.Pick(models.DocumentBusiness), got.DocumentType)

	_, err = s.coll.Get(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryCollectionSuite) TestCreateWithKeyRejectsDuplicates() {
	_, err := s.coll.Create(s.ctx, "3301010101010001", s.letter("u1", 0))
	s.Require().NoError(err)

	_, err = s.coll.Create(s.ctx, "3301010101010001", s.letter("u2", 1))
	s.ErrorIs(err, sentinel.ErrConflict)

	got, err := s.coll.Get(s.ctx, "3301010101010001")
	s.Require().NoError(err)
	s.Equal("u1", got.Owner, "first write is kept")
}

func (s *MemoryCollectionSuite) TestListOrderAndFilter() {
	older := s.create(s.letter("u1", 0))
	other := s.create(s.letter("u2", 5))
	newer := s.create(s.letter("u1", 10))

	all, err := s.coll.List(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Equal([]string{newer, other, older}, ids(all))

	mine, err := s.coll.List(s.ctx, Filter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.Equal([]string{newer, older}, ids(mine))

	none, err := s.coll.List(s.ctx, Filter{OwnerID: "nobody"})
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *MemoryCollectionSuite) TestConditionalUpdate() {
	id := s.create(s.letter("u1", 0))
	at := s.base.Add(time.Hour)

	err := s.coll.Update(s.ctx, id, models.StatusPending, Fields{
		"status":        models.StatusRejected,
		"verified_at":   at,
		"verified_by":   "admin-1",
		"reject_reason": "wrong purpose",
	})
	s.Require().NoError(err)

	got, err := s.coll.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, got.Status)
	s.Equal("wrong purpose", got.RejectReason)
	s.Require().NotNil(got.VerifiedAt)
	s.True(at.Equal(*got.VerifiedAt))

	err = s.coll.Update(s.ctx, id, models.StatusPending, Fields{"status": models.StatusAccepted})
	s.ErrorIs(err, sentinel.ErrPreconditionFailed)

	err = s.coll.Update(s.ctx, "missing", models.StatusPending, Fields{"status": models.StatusAccepted})
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.coll.Update(s.ctx, id, "", Fields{"reject_reason": nil}))
	got, err = s.coll.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(got.RejectReason)
}

func (s *MemoryCollectionSuite) TestDeleteMany() {
	a := s.create(s.letter("u1", 0))
	b := s.create(s.letter("u1", 1))
	c := s.create(s.letter("u1", 2))

	n, err := s.coll.DeleteMany(s.ctx, []string{a, c, "missing"})
	s.Require().NoError(err)
	s.EqualValues(2, n)

	left, err := s.coll.List(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Equal([]string{b}, ids(left))
}

func (s *MemoryCollectionSuite) TestSubscribe() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	first := s.create(s.letter("u1", 0))
	sub, err := s.coll.Subscribe(ctx, Filter{OwnerID: "u1"})
	s.Require().NoError(err)
	defer sub.Close()

	s.Equal([]string{first}, ids(s.next(sub)))

	second := s.create(s.letter("u1", 3))
	s.Equal([]string{second, first}, ids(s.next(sub)))

	s.create(s.letter("u2", 4))
	s.Equal([]string{second, first}, ids(s.next(sub)), "foreign records are filtered out")

	_, err = s.coll.DeleteMany(s.ctx, []string{first})
	s.Require().NoError(err)
	s.Equal([]string{second}, ids(s.next(sub)))
}

func (s *MemoryCollectionSuite) TestSubscribeKeepsOnlyLatestSnapshot() {
	sub, err := s.coll.Subscribe(s.ctx, Filter{})
	s.Require().NoError(err)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		s.create(s.letter("u1", i))
	}
	s.Len(s.next(sub), 5)

	select {
	case snap := <-sub.Updates():
		s.Failf("unexpected snapshot", "%d records", len(snap))
	default:
	}
}

func (s *MemoryCollectionSuite) TestSubscriptionEndsWithContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	sub, err := s.coll.Subscribe(ctx, Filter{})
	s.Require().NoError(err)
	s.Equal(1, s.coll.Watchers())

	cancel()
	s.Eventually(func() bool { return s.coll.Watchers() == 0 }, time.Second, 10*time.Millisecond)
	<-sub.Done()
	s.NoError(sub.Err())

	sub.Close()
	s.create(s.letter("u1", 0))
}

func (s *MemoryCollectionSuite) next(sub *Subscription[models.LetterRequest]) []models.LetterRequest {
	select {
	case snap, ok := <-sub.Updates():
		s.Require().True(ok, "subscription closed")
		return snap
	case <-time.After(time.Second):
		s.FailNow("no snapshot delivered")
		return nil
	}
}

func ids[T models.Record](recs []T) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.RecordID()
	}
	return out
}
