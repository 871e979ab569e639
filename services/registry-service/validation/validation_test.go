package validation

import (
	"strings"
	"testing"
	"time"

	"village-registry-system/services/registry-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResident() models.Resident {
	r := models.NewResident(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	r.NIK = "1234567890123456"
	r.FullName = "Jane Doe"
	r.BirthDate = "01-01-2000"
	return r
}

func validLetter() models.LetterRequest {
	l := models.NewLetterRequest()
	l.NIK = "3301010101010001"
	l.FullName = "Budi Santoso"
	l.DocumentType = models.Pick(models.DocumentDomicile)
	l.Purpose = "Opening a bank account"
	return l
}

func TestResident(t *testing.T) {
	t.Run("valid record passes", func(t *testing.T) {
		res := Resident(validResident())
		assert.True(t, res.Valid())
		assert.NoError(t, res.Err())
	})

	t.Run("nik of wrong length fails regardless of other fields", func(t *testing.T) {
		for _, nik := range []string{"", "123", "12345678901234567", strings.Repeat("1", 15)} {
			r := validResident()
			r.NIK = nik
			res := Resident(r)
			require.False(t, res.Valid(), nik)
			assert.Equal(t, "must be 16 digits", res.Errors[models.FieldNIK])
			assert.Len(t, res.Errors, 1)
		}
	})

	t.Run("nik with non digits fails", func(t *testing.T) {
		r := validResident()
		r.NIK = "12345678901234AB"
		assert.Contains(t, Resident(r).Errors, models.FieldNIK)
	})

	t.Run("blank name and birth date are reported together", func(t *testing.T) {
		r := validResident()
		r.FullName = "   "
		r.BirthDate = ""
		res := Resident(r)
		assert.Equal(t, models.FieldErrors{
			models.FieldFullName:  "full name is required",
			models.FieldBirthDate: "birth date is required",
		}, res.Errors)

		var verr *models.ValidationError
		require.ErrorAs(t, res.Err(), &verr)
		assert.Equal(t, res.Errors, verr.Fields)
	})
}

func TestLetter(t *testing.T) {
	assert.True(t, Letter(validLetter()).Valid())

	l := validLetter()
	l.DocumentType = models.Choice[models.DocumentType]{}
	l.Purpose = " "
	l.NIK = "33010101"
	res := Letter(l)
	assert.Equal(t, models.FieldErrors{
		models.FieldNIK:          "must be 16 digits",
		models.FieldDocumentType: "choose a document type",
		models.FieldPurpose:      "purpose is required",
	}, res.Errors)

	l = validLetter()
	l.DocumentType = models.Pick(models.DocumentType("BIRTHDAY_CARD"))
	assert.Contains(t, Letter(l).Errors, models.FieldDocumentType)
}

func TestLive(t *testing.T) {
	t.Run("partial nik sets the error, empty nik clears it", func(t *testing.T) {
		errs := Live(nil, "1234", "")
		assert.Equal(t, "must be 16 digits", errs[models.FieldNIK])

		errs = Live(errs, "", "")
		assert.NotContains(t, errs, models.FieldNIK)
	})

	t.Run("name error is cleared but never set", func(t *testing.T) {
		errs := Live(nil, "", "")
		assert.NotContains(t, errs, models.FieldFullName)

		prev := models.FieldErrors{models.FieldFullName: "full name is required"}
		assert.Contains(t, Live(prev, "", ""), models.FieldFullName)
		assert.NotContains(t, Live(prev, "", "J"), models.FieldFullName)
	})

	t.Run("untouched fields keep their errors", func(t *testing.T) {
		prev := models.FieldErrors{models.FieldBirthDate: "birth date is required"}
		next := Live(prev, "1234567890123456", "Jane")
		assert.Equal(t, models.FieldErrors{models.FieldBirthDate: "birth date is required"}, next)
		assert.Len(t, prev, 1, "input map is not mutated")
	})
}
