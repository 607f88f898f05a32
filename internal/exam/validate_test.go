package exam

import (
	"testing"
	"time"
)

func TestValidateUpsert(t *testing.T) {
	when := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		req       upsertExamRequest
		wantCount int
	}{
		{name: "all fields valid", req: upsertExamRequest{Subject: "Math", ExamAt: when, Location: "Room 4"}, wantCount: 0},
		{name: "blank subject", req: upsertExamRequest{Subject: "   ", ExamAt: when, Location: "Room 4"}, wantCount: 1},
		{name: "missing date", req: upsertExamRequest{Subject: "Math", Location: "Room 4"}, wantCount: 1},
		{name: "blank location", req: upsertExamRequest{Subject: "Math", ExamAt: when, Location: ""}, wantCount: 1},
		{name: "everything missing", req: upsertExamRequest{}, wantCount: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msgs := validateUpsert(tc.req)
			if len(msgs) != tc.wantCount {
				t.Fatalf("expected %d messages, got %v", tc.wantCount, msgs)
			}
		})
	}
}
