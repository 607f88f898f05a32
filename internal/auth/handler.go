package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "auth_user"

type Handler struct {
	svc authService
}

type authService interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

type apiResponse struct {
	OK     bool        `json:"ok"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Errors []string    `json:"errors,omitempty"`
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewHandler(svc authService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	var msgs []string
	if strings.TrimSpace(req.Username) == "" {
		msgs = append(msgs, "Username is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		msgs = append(msgs, "Password is required")
	}
	if len(msgs) > 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "validation failed", Errors: msgs})
		return
	}

	if err := h.svc.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			writeJSON(w, http.StatusConflict, apiResponse{OK: false, Error: "username already taken"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "registered"}})
}

// RequireAuth verifies HTTP Basic credentials against the user store and
// injects the resolved user into the request context. Handlers downstream
// read the principal from the context and pass it explicitly into the
// service layer.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="examsched"`)
			writeJSON(w, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
			return
		}

		user, err := h.svc.Authenticate(r.Context(), username, password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				w.Header().Set("WWW-Authenticate", `Basic realm="examsched"`)
				writeJSON(w, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{OK: true, Data: user})
}

func CurrentUser(ctx context.Context) (*User, bool) {
	v := ctx.Value(userContextKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok
}

// ContextWithUser injects an authenticated user into context.
// Useful for tests and internal handlers.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func writeJSON(w http.ResponseWriter, code int, payload apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
