package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"village-registry-system/pkg/identity"
	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/store"
	"village-registry-system/services/registry-service/validation"
)

// Residents is the controller for resident records. A resident is stored
// under its NIK.
type Residents struct {
	core[models.Resident]
	photos PhotoStore
}

func NewResidents(coll store.Collection[models.Resident], photos PhotoStore, ids identity.Provider, opts ...Option) (*Residents, error) {
	c, err := newCore[models.Resident](models.KindResident, coll, ids, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	r := &Residents{core: c, photos: photos}
	r.afterDelete = r.removePhotos
	return r, nil
}

// Submit validates rec, stamps it for the caller and stores it. The photo
// goes up before the record so the record carries its URL. It is only
// uploaded once the NIK is known to be free and is removed again when the
// record cannot be stored.
func (r *Residents) Submit(ctx context.Context, rec models.Resident, photo *Photo) (models.Resident, error) {
	if err := validation.Resident(rec).Err(); err != nil {
		submissionsTotal.WithLabelValues(string(r.kind), "invalid").Inc()
		return rec, err
	}
	who, err := r.identity(ctx)
	if err != nil {
		return rec, err
	}

	now := r.now()
	rec.ID = ""
	rec.Owner = who.UserID
	rec.Review = models.NewReview(now.UTC())
	if rec.ReportedOn == "" {
		rec.ReportedOn = now.Format(models.DateLayout)
	}

	uploaded := false
	if photo != nil && len(photo.Data) > 0 {
		if r.photos == nil {
			return rec, &models.StoreError{Op: "upload photo", Err: errors.New("photo storage is not configured")}
		}
		if err := r.checkNIKFree(ctx, rec.NIK); err != nil {
			submissionsTotal.WithLabelValues(string(r.kind), "failed").Inc()
			return rec, err
		}
		url, err := r.photos.Put(ctx, models.PhotoPath(rec.NIK), photo.Data, photo.ContentType)
		if err != nil {
			submissionsTotal.WithLabelValues(string(r.kind), "failed").Inc()
			return rec, &models.StoreError{Op: "upload photo", Err: err}
		}
		rec.PhotoURL = url
		uploaded = true
	}

	id, err := r.coll.Create(ctx, rec.NIK, rec)
	if err != nil {
		submissionsTotal.WithLabelValues(string(r.kind), "failed").Inc()
		if errors.Is(err, sentinel.ErrConflict) {
			// The path belongs to whoever won the key.
			return rec, errDuplicateNIK()
		}
		if uploaded {
			r.discardPhoto(ctx, rec.NIK)
		}
		return rec, storeError("create resident", err)
	}
	rec.ID = id

	submissionsTotal.WithLabelValues(string(r.kind), "ok").Inc()
	r.log.Info("[OK] resident submitted", zap.String("id", id), zap.String("owner", who.UserID))
	r.publish(ctx, Event{
		Type:     EventSubmitted,
		Kind:     r.kind,
		RecordID: id,
		OwnerID:  who.UserID,
		ActorID:  who.UserID,
		Status:   rec.Status,
		At:       rec.CreatedAt,
	})
	return rec, nil
}

// SubmitDraft submits the draft's record and tracks progress and field
// errors on the draft.
func (r *Residents) SubmitDraft(ctx context.Context, d *Draft[models.Resident], photo *Photo) (models.Resident, error) {
	out, err := r.Submit(ctx, d.begin(), photo)
	d.finish(err)
	return out, err
}

func errDuplicateNIK() error {
	return models.NewValidationError(models.FieldNIK, "a resident with this NIK is already registered")
}

// checkNIKFree refuses a NIK that already has a stored resident.
func (r *Residents) checkNIKFree(ctx context.Context, nik string) error {
	_, err := r.coll.Get(ctx, nik)
	switch {
	case err == nil:
		return errDuplicateNIK()
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return storeError("check resident "+nik, err)
	}
}

func (r *Residents) discardPhoto(ctx context.Context, nik string) {
	if err := r.photos.Delete(ctx, models.PhotoPath(nik)); err != nil {
		r.log.Warn("[WARN] failed to discard uploaded photo", zap.String("id", nik), zap.Error(err))
	}
}

func (r *Residents) removePhotos(ctx context.Context, ids []string) {
	if r.photos == nil {
		return
	}
	for _, nik := range ids {
		err := r.photos.Delete(ctx, models.PhotoPath(nik))
		switch {
		case err == nil:
		case errors.Is(err, sentinel.ErrNotFound):
			r.log.Debug("no photo to remove", zap.String("id", nik))
		default:
			r.log.Warn("[WARN] failed to remove photo", zap.String("id", nik), zap.Error(err))
		}
	}
}
