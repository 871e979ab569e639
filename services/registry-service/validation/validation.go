package validation

import (
	"strings"

	"village-registry-system/services/registry-service/models"
)

const (
	NIKLength = 16

	msgNIKLength      = "must be 16 digits"
	msgNameRequired   = "full name is required"
	msgBirthRequired  = "birth date is required"
	msgDocumentType   = "choose a document type"
	msgPurposeMissing = "purpose is required"
)

// Result is Valid when Errors is empty.
type Result struct {
	Errors models.FieldErrors
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result and a *models.ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &models.ValidationError{Fields: r.Errors}
}

func (r *Result) fail(f models.Field, reason string) {
	if r.Errors == nil {
		r.Errors = models.FieldErrors{}
	}
	r.Errors[f] = reason
}

// ValidNIK reports whether nik is exactly 16 ASCII digits.
func ValidNIK(nik string) bool {
	if len(nik) != NIKLength {
		return false
	}
	for _, c := range nik {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Resident is the authoritative check run before a resident record is stored.
func Resident(r models.Resident) Result {
	var res Result
	if !ValidNIK(r.NIK) {
		res.fail(models.FieldNIK, msgNIKLength)
	}
	if strings.TrimSpace(r.FullName) == "" {
		res.fail(models.FieldFullName, msgNameRequired)
	}
	if strings.TrimSpace(r.BirthDate) == "" {
		res.fail(models.FieldBirthDate, msgBirthRequired)
	}
	return res
}

// Letter is the authoritative check run before a letter request is stored.
func Letter(l models.LetterRequest) Result {
	var res Result
	if !ValidNIK(l.NIK) {
		res.fail(models.FieldNIK, msgNIKLength)
	}
	if strings.TrimSpace(l.FullName) == "" {
		res.fail(models.FieldFullName, msgNameRequired)
	}
	if dt, ok := l.DocumentType.Get(); !ok || !dt.Known() {
		res.fail(models.FieldDocumentType, msgDocumentType)
	}
	if strings.TrimSpace(l.Purpose) == "" {
		res.fail(models.FieldPurpose, msgPurposeMissing)
	}
	return res
}

// Live is the advisory pass run on every edit. It only maintains the NIK
// and name errors: a non-empty NIK of the wrong shape sets the NIK error,
// anything else clears it; a non-empty name clears the name error but never
// sets one. Errors for other fields are carried over untouched.
func Live(prev models.FieldErrors, nik, fullName string) models.FieldErrors {
	next := make(models.FieldErrors, len(prev)+1)
	for f, msg := range prev {
		next[f] = msg
	}
	if nik != "" && !ValidNIK(nik) {
		next[models.FieldNIK] = msgNIKLength
	} else {
		delete(next, models.FieldNIK)
	}
	if fullName != "" {
		delete(next, models.FieldFullName)
	}
	return next
}
