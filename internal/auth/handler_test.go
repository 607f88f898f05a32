package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockAuthService struct {
	registerFn     func(ctx context.Context, username, password string) error
	authenticateFn func(ctx context.Context, username, password string) (*User, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) error {
	if m.registerFn == nil {
		return errors.New("not implemented")
	}
	return m.registerFn(ctx, username, password)
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if m.authenticateFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.authenticateFn(ctx, username, password)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSignupOK(t *testing.T) {
	var gotUsername, gotPassword string
	h := NewHandler(&mockAuthService{
		registerFn: func(ctx context.Context, username, password string) error {
			gotUsername = username
			gotPassword = password
			return nil
		},
	})

	payload := []byte(`{"username":"alice","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUsername != "alice" || gotPassword != "secret123" {
		t.Fatalf("unexpected register args: %q %q", gotUsername, gotPassword)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	h := NewHandler(&mockAuthService{
		registerFn: func(ctx context.Context, username, password string) error {
			return ErrDuplicateUser
		},
	})

	payload := []byte(`{"username":"alice","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestSignupAggregatesMissingFields(t *testing.T) {
	registerCalled := false
	h := NewHandler(&mockAuthService{
		registerFn: func(ctx context.Context, username, password string) error {
			registerCalled = true
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if registerCalled {
		t.Fatalf("register should not be called on validation failure")
	}
	body := decodeBody(t, w)
	msgs, _ := body["errors"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("expected both username and password reported, got %v", msgs)
	}
}

func TestRequireAuthRejectsMissingCredentials(t *testing.T) {
	h := NewHandler(&mockAuthService{})

	var nextCalled bool
	next := h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/exams", nil)
	w := httptest.NewRecorder()
	next.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}
	if nextCalled {
		t.Fatalf("next handler should not run without credentials")
	}
}

func TestRequireAuthRejectsBadCredentials(t *testing.T) {
	h := NewHandler(&mockAuthService{
		authenticateFn: func(ctx context.Context, username, password string) (*User, error) {
			return nil, ErrInvalidCredentials
		},
	})

	next := h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/exams", nil)
	req.SetBasicAuth("alice", "wrong")
	w := httptest.NewRecorder()
	next.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuthInjectsPrincipal(t *testing.T) {
	h := NewHandler(&mockAuthService{
		authenticateFn: func(ctx context.Context, username, password string) (*User, error) {
			if username != "alice" || password != "secret123" {
				return nil, ErrInvalidCredentials
			}
			return &User{ID: 7, Username: "alice"}, nil
		},
	})

	var gotUser *User
	next := h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r.Context())
		if !ok {
			t.Fatalf("expected user in context")
		}
		gotUser = u
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/exams", nil)
	req.SetBasicAuth("alice", "secret123")
	w := httptest.NewRecorder()
	next.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUser == nil || gotUser.Username != "alice" || gotUser.ID != 7 {
		t.Fatalf("unexpected context user: %+v", gotUser)
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	h := NewHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &User{ID: 3, Username: "carol"}))
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["username"] != "carol" {
		t.Fatalf("unexpected me payload: %v", body["data"])
	}
}
