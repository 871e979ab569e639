package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"village-registry-system/services/registry-service/models"
)

func TestResidents(t *testing.T) {
	verified := time.Date(2026, 6, 11, 10, 0, 0, 0, time.UTC)
	r := models.NewResident(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC))
	r.NIK = "1234567890123456"
	r.FullName = "Jane Doe"
	r.Gender = models.Pick(models.GenderFemale)
	r.Status = models.StatusRejected
	r.VerifiedAt = &verified
	r.VerifiedBy = "admin-1"
	r.RejectReason = "blurry photo"

	f, err := Residents([]models.Resident{r})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Residents")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ResidentHeader, rows[0])
	assert.Equal(t, "1234567890123456", rows[1][0])
	assert.Equal(t, "FEMALE", rows[1][3])
	assert.Equal(t, "", rows[1][4], "unset religion is blank")
	assert.Equal(t, "REJECTED", rows[1][6])
	assert.Equal(t, "2026-06-11 10:00:00", rows[1][8])
	assert.Equal(t, "blurry photo", rows[1][10])

	assert.Equal(t, []string{"Residents"}, f.GetSheetList())
}

func TestLettersRoundTrip(t *testing.T) {
	note := "please call before delivery"
	l := models.NewLetterRequest()
	l.ID = "665f1c2ab0e4d2a1c3f9e001"
	l.DocumentType = models.Pick(models.DocumentLeave)
	l.Note = &note
	l.SubmittedOn = "10/06/2026"

	f, err := Letters([]models.LetterRequest{l})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	back, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer back.Close()

	rows, err := back.GetRows("Letters")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "LEAVE", rows[1][3])
	assert.Equal(t, note, rows[1][5])
	assert.Equal(t, "SELF_PICKUP", rows[1][6])
	assert.Equal(t, "10/06/2026", rows[1][7])
	assert.Equal(t, "PENDING", rows[1][8])
}

func TestEmptyExportHasHeaderOnly(t *testing.T) {
	f, err := Letters(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Letters")
	require.NoError(t, err)
	assert.Equal(t, [][]string{LetterHeader}, rows)
}
