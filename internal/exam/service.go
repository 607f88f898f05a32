package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrExamNotFound = errors.New("exam not found")
	ErrForbidden    = errors.New("not authorized for this exam")
)

// Service is the ownership-scoped exam store access layer. Every
// operation takes the acting principal explicitly; nothing is read from
// ambient state. Authorization is username equality between the
// principal and the exam's owner, nothing else.
type Service struct {
	db *sql.DB
}

type Record struct {
	ID       int64     `json:"id"`
	Subject  string    `json:"subject"`
	ExamAt   time.Time `json:"exam_at"`
	Location string    `json:"location"`
	Owner    string    `json:"owner"`
}

// UpsertInput carries the full field set of an exam. Updates are whole
// replacements; there are no partial or optional fields.
type UpsertInput struct {
	Subject  string
	ExamAt   time.Time
	Location string
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// AddExam creates an exam owned by the principal and returns its id.
// Exams may freely share subject, instant, and location.
func (s *Service) AddExam(ctx context.Context, principal string, in UpsertInput) (int64, error) {
	userID, err := s.resolvePrincipal(ctx, s.db, principal)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO exams (subject, exam_at, location, user_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id
	`, in.Subject, in.ExamAt, in.Location, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert exam: %w", err)
	}
	return id, nil
}

// ListExams returns every exam the principal owns, soonest first.
// An empty schedule is a valid, non-error result.
func (s *Service) ListExams(ctx context.Context, principal string) ([]Record, error) {
	userID, err := s.resolvePrincipal(ctx, s.db, principal)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.subject, e.exam_at, e.location, u.username
		FROM exams e
		JOIN users u ON u.id = e.user_id
		WHERE e.user_id = $1
		ORDER BY e.exam_at ASC, e.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Subject, &rec.ExamAt, &rec.Location, &rec.Owner); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return out, nil
}

func (s *Service) GetExam(ctx context.Context, principal string, examID int64) (*Record, error) {
	if _, err := s.resolvePrincipal(ctx, s.db, principal); err != nil {
		return nil, err
	}

	rec, err := s.loadExam(ctx, s.db, examID)
	if err != nil {
		return nil, err
	}
	if rec.Owner != principal {
		return nil, ErrForbidden
	}
	return rec, nil
}

// UpdateExam replaces subject, instant, and location unconditionally.
// Concurrent owner updates race; last write wins.
func (s *Service) UpdateExam(ctx context.Context, principal string, examID int64, in UpsertInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.resolvePrincipal(ctx, tx, principal); err != nil {
		return err
	}

	rec, err := s.loadExamForUpdate(ctx, tx, examID)
	if err != nil {
		return err
	}
	if rec.Owner != principal {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE exams
		SET subject = $2,
			exam_at = $3,
			location = $4
		WHERE id = $1
	`, examID, in.Subject, in.ExamAt, in.Location); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// DeleteExam removes the exam permanently. Irreversible.
func (s *Service) DeleteExam(ctx context.Context, principal string, examID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.resolvePrincipal(ctx, tx, principal); err != nil {
		return err
	}

	rec, err := s.loadExamForUpdate(ctx, tx, examID)
	if err != nil {
		return err
	}
	if rec.Owner != principal {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, examID); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// resolvePrincipal maps a verified principal username back to its stored
// user row. A miss means the authentication layer handed us a username
// with no backing record; that inconsistency is surfaced, not recovered.
func (s *Service) resolvePrincipal(ctx context.Context, q queryable, principal string) (int64, error) {
	var userID int64
	if err := q.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, principal).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("resolve principal: %w", err)
	}
	return userID, nil
}

func (s *Service) loadExam(ctx context.Context, q queryable, examID int64) (*Record, error) {
	return scanExamRow(q.QueryRowContext(ctx, `
		SELECT e.id, e.subject, e.exam_at, e.location, u.username
		FROM exams e
		JOIN users u ON u.id = e.user_id
		WHERE e.id = $1
	`, examID))
}

func (s *Service) loadExamForUpdate(ctx context.Context, tx *sql.Tx, examID int64) (*Record, error) {
	return scanExamRow(tx.QueryRowContext(ctx, `
		SELECT e.id, e.subject, e.exam_at, e.location, u.username
		FROM exams e
		JOIN users u ON u.id = e.user_id
		WHERE e.id = $1
		FOR UPDATE OF e
	`, examID))
}

func scanExamRow(row *sql.Row) (*Record, error) {
	rec := &Record{}
	if err := row.Scan(&rec.ID, &rec.Subject, &rec.ExamAt, &rec.Location, &rec.Owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return rec, nil
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}
