package observability

import "testing"

func TestNormalizedPath(t *testing.T) {
	got := normalizedPath("/exams/123")
	want := "/exams/{id}"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
}

func TestExtractExamID(t *testing.T) {
	if id := extractExamID("/exams/456"); id != 456 {
		t.Fatalf("expected 456, got %d", id)
	}
	if id := extractExamID("/exams/export"); id != 0 {
		t.Fatalf("expected 0 for export path, got %d", id)
	}
	if id := extractExamID("/signup"); id != 0 {
		t.Fatalf("expected 0 for non-exam path, got %d", id)
	}
}
