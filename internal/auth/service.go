package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateUser      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const pgUniqueViolation = "23505"

// User is the stored identity behind a verified principal.
// The password hash never leaves this package.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db         *sql.DB
	bcryptCost int
}

type ServiceConfig struct {
	BcryptCost int
}

func NewService(db *sql.DB, cfg ServiceConfig) *Service {
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{db: db, bcryptCost: cfg.BcryptCost}
}

// Register stores a new user with an irreversibly hashed credential.
// Uniqueness is the store's call: there is no pre-check, a unique
// violation on insert is authoritative and maps to ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, now())
	`, username, string(hash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Authenticate verifies a username/password pair and yields the stored
// user. Unknown usernames and wrong passwords are indistinguishable to
// the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)

	var u User
	var passwordHash string
	if err := row.Scan(&u.ID, &u.Username, &passwordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
