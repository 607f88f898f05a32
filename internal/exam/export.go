package exam

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportExams renders the principal's schedule as an xlsx workbook.
// Ownership scoping comes for free from ListExams.
func (s *Service) ExportExams(ctx context.Context, principal string) ([]byte, error) {
	items, err := s.ListExams(ctx, principal)
	if err != nil {
		return nil, err
	}
	return buildScheduleWorkbook(items)
}

func buildScheduleWorkbook(items []Record) ([]byte, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"id", "subject", "exam_at", "location"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, it := range items {
		row := i + 2
		values := []any{
			it.ID,
			it.Subject,
			it.ExamAt.Format("2006-01-02 15:04"),
			it.Location,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "D", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}
