// Package export renders submissions as spreadsheets for village staff.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"village-registry-system/services/registry-service/models"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ResidentHeader = []string{
	"NIK",
	"Full Name",
	"Birth Date",
	"Gender",
	"Religion",
	"Address",
	"Status",
	"Submitted At",
	"Verified At",
	"Verified By",
	"Reject Reason",
	"Photo URL",
}

var LetterHeader = []string{
	"ID",
	"NIK",
	"Full Name",
	"Document Type",
	"Purpose",
	"Note",
	"Pickup",
	"Submitted On",
	"Status",
	"Verified At",
	"Verified By",
	"Reject Reason",
}

// Residents returns a workbook with one row per resident. The caller closes it.
func Residents(recs []models.Resident) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []interface{}{
			r.NIK,
			r.FullName,
			r.BirthDate,
			r.Gender.String(),
			r.Religion.String(),
			r.Address,
			string(r.Status),
			formatTime(&r.CreatedAt),
			formatTime(r.VerifiedAt),
			r.VerifiedBy,
			r.RejectReason,
			r.PhotoURL,
		})
	}
	return build("Residents", ResidentHeader, rows)
}

// Letters returns a workbook with one row per letter request. The caller closes it.
func Letters(recs []models.LetterRequest) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(recs))
	for _, l := range recs {
		note := ""
		if l.Note != nil {
			note = *l.Note
		}
		rows = append(rows, []interface{}{
			l.ID,
			l.NIK,
			l.FullName,
			l.DocumentType.String(),
			l.Purpose,
			note,
			string(l.Pickup),
			l.SubmittedOn,
			string(l.Status),
			formatTime(l.VerifiedAt),
			l.VerifiedBy,
			l.RejectReason,
		})
	}
	return build("Letters", LetterHeader, rows)
}

func build(sheet string, header []string, rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
