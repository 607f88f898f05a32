package exam

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestBuildScheduleWorkbook(t *testing.T) {
	items := []Record{
		{ID: 1, Subject: "Math", ExamAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), Location: "Room 4", Owner: "alice"},
		{ID: 2, Subject: "Physics", ExamAt: time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC), Location: "Hall B", Owner: "alice"},
	}

	data, err := buildScheduleWorkbook(items)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 data rows, got %d", len(rows))
	}
	if rows[0][1] != "subject" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][1] != "Math" || rows[2][3] != "Hall B" {
		t.Fatalf("unexpected data rows: %v", rows[1:])
	}
}

func TestBuildScheduleWorkbookEmpty(t *testing.T) {
	data, err := buildScheduleWorkbook(nil)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
