package session

import (
	"errors"
	"sync"
	"time"

	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/validation"
)

type ProgressState int

const (
	Idle ProgressState = iota
	Loading
	Success
	Failed
)

func (s ProgressState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Progress is the submission signal shown next to a form.
type Progress struct {
	State   ProgressState `json:"-"`
	Message string        `json:"message,omitempty"`
}

// Draft is one user's form in progress: the record being filled in, the
// field errors currently shown and the state of the last submission.
type Draft[T models.Record] struct {
	mu       sync.Mutex
	rec      T
	errs     models.FieldErrors
	progress Progress

	fresh func(now time.Time) T
	live  func(rec T, prev models.FieldErrors) models.FieldErrors
}

func NewResidentDraft(now time.Time) *Draft[models.Resident] {
	return &Draft[models.Resident]{
		rec:   models.NewResident(now),
		errs:  models.FieldErrors{},
		fresh: models.NewResident,
		live: func(r models.Resident, prev models.FieldErrors) models.FieldErrors {
			return validation.Live(prev, r.NIK, r.FullName)
		},
	}
}

func NewLetterDraft(now time.Time) *Draft[models.LetterRequest] {
	return &Draft[models.LetterRequest]{
		rec:   models.NewLetterRequest(),
		errs:  models.FieldErrors{},
		fresh: func(time.Time) models.LetterRequest { return models.NewLetterRequest() },
		live: func(l models.LetterRequest, prev models.FieldErrors) models.FieldErrors {
			return validation.Live(prev, l.NIK, l.FullName)
		},
	}
}

// Edit applies fn to the record and re-runs the live checks. It returns the
// field errors to show.
func (d *Draft[T]) Edit(fn func(rec *T)) models.FieldErrors {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.rec)
	d.errs = d.live(d.rec, d.errs)
	return copyErrors(d.errs)
}

// Reset restores the defaults and clears errors and progress.
func (d *Draft[T]) Reset(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec = d.fresh(now)
	d.errs = models.FieldErrors{}
	d.progress = Progress{}
}

func (d *Draft[T]) Record() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rec
}

func (d *Draft[T]) Errors() models.FieldErrors {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyErrors(d.errs)
}

func (d *Draft[T]) Progress() Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

func (d *Draft[T]) begin() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress = Progress{State: Loading}
	return d.rec
}

func (d *Draft[T]) finish(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		d.progress = Progress{State: Success}
		return
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		d.errs = copyErrors(verr.Fields)
	}
	d.progress = Progress{State: Failed, Message: Message(err)}
}

func copyErrors(in models.FieldErrors) models.FieldErrors {
	out := make(models.FieldErrors, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
