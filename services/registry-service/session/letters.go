package session

import (
	"context"

	"go.uber.org/zap"

	"village-registry-system/pkg/identity"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/store"
	"village-registry-system/services/registry-service/validation"
)

// Letters is the controller for document requests. Ids are assigned by the
// store.
type Letters struct {
	core[models.LetterRequest]
}

func NewLetters(coll store.Collection[models.LetterRequest], ids identity.Provider, opts ...Option) (*Letters, error) {
	c, err := newCore[models.LetterRequest](models.KindLetter, coll, ids, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return &Letters{core: c}, nil
}

func (l *Letters) Submit(ctx context.Context, rec models.LetterRequest) (models.LetterRequest, error) {
	if err := validation.Letter(rec).Err(); err != nil {
		submissionsTotal.WithLabelValues(string(l.kind), "invalid").Inc()
		return rec, err
	}
	who, err := l.identity(ctx)
	if err != nil {
		return rec, err
	}

	now := l.now()
	rec.ID = ""
	rec.Owner = who.UserID
	rec.Review = models.NewReview(now.UTC())
	rec.SubmittedOn = now.Format(models.LetterDateLayout)
	if rec.Pickup == "" {
		rec.Pickup = models.PickupSelf
	}

	id, err := l.coll.Create(ctx, "", rec)
	if err != nil {
		submissionsTotal.WithLabelValues(string(l.kind), "failed").Inc()
		return rec, storeError("create letter request", err)
	}
	rec.ID = id

	submissionsTotal.WithLabelValues(string(l.kind), "ok").Inc()
	l.log.Info("[OK] letter request submitted", zap.String("id", id), zap.String("owner", who.UserID))
	l.publish(ctx, Event{
		Type:     EventSubmitted,
		Kind:     l.kind,
		RecordID: id,
		OwnerID:  who.UserID,
		ActorID:  who.UserID,
		Status:   rec.Status,
		At:       rec.CreatedAt,
	})
	return rec, nil
}

func (l *Letters) SubmitDraft(ctx context.Context, d *Draft[models.LetterRequest]) (models.LetterRequest, error) {
	out, err := l.Submit(ctx, d.begin())
	d.finish(err)
	return out, err
}
