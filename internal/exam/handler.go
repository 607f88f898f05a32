package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"examsched/internal/auth"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc examService
}

type examService interface {
	AddExam(ctx context.Context, principal string, in UpsertInput) (int64, error)
	ListExams(ctx context.Context, principal string) ([]Record, error)
	GetExam(ctx context.Context, principal string, examID int64) (*Record, error)
	UpdateExam(ctx context.Context, principal string, examID int64, in UpsertInput) error
	DeleteExam(ctx context.Context, principal string, examID int64) error
	ExportExams(ctx context.Context, principal string) ([]byte, error)
}

type response struct {
	OK     bool        `json:"ok"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Errors []string    `json:"errors,omitempty"`
}

type upsertExamRequest struct {
	Subject  string    `json:"subject"`
	ExamAt   time.Time `json:"exam_at"`
	Location string    `json:"location"`
}

func NewHandler(svc examService) *Handler {
	return &Handler{svc: svc}
}

// validateUpsert checks the full replacement payload and reports every
// violated field at once rather than stopping at the first.
func validateUpsert(req upsertExamRequest) []string {
	var msgs []string
	if strings.TrimSpace(req.Subject) == "" {
		msgs = append(msgs, "Subject cannot be blank")
	}
	if req.ExamAt.IsZero() {
		msgs = append(msgs, "Exam date is required")
	}
	if strings.TrimSpace(req.Location) == "" {
		msgs = append(msgs, "Location cannot be left blank")
	}
	return msgs
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	var req upsertExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if msgs := validateUpsert(req); len(msgs) > 0 {
		writeJSON(w, http.StatusBadRequest, response{OK: false, Error: "validation failed", Errors: msgs})
		return
	}

	id, err := h.svc.AddExam(r.Context(), principal, UpsertInput{
		Subject:  req.Subject,
		ExamAt:   req.ExamAt,
		Location: req.Location,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{OK: true, Data: map[string]int64{"id": id}})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	items, err := h.svc.ListExams(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}
	examID, ok := examIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.svc.GetExam(r.Context(), principal, examID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{OK: true, Data: rec})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}
	examID, ok := examIDParam(w, r)
	if !ok {
		return
	}

	var req upsertExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if msgs := validateUpsert(req); len(msgs) > 0 {
		writeJSON(w, http.StatusBadRequest, response{OK: false, Error: "validation failed", Errors: msgs})
		return
	}

	err := h.svc.UpdateExam(r.Context(), principal, examID, UpsertInput{
		Subject:  req.Subject,
		ExamAt:   req.ExamAt,
		Location: req.Location,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{OK: true, Data: map[string]string{"status": "updated"}})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}
	examID, ok := examIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteExam(r.Context(), principal, examID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	data, err := h.svc.ExportExams(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("exams-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func currentPrincipal(r *http.Request) (string, bool) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		return "", false
	}
	return user.Username, true
}

func examIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, response{OK: false, Error: "invalid exam id"})
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrExamNotFound):
		writeJSON(w, http.StatusNotFound, response{OK: false, Error: "exam not found"})
	case errors.Is(err, ErrForbidden):
		// Forbidden stays distinguishable from not-found, but leaks no
		// record details beyond the status.
		writeJSON(w, http.StatusForbidden, response{OK: false, Error: "forbidden"})
	case errors.Is(err, ErrUserNotFound):
		// Authenticated principal without a backing row is an upstream
		// inconsistency, not a client mistake.
		writeJSON(w, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	default:
		writeJSON(w, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, payload response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
