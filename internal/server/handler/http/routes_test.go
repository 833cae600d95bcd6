package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atinyakov/loancalc/internal/models"
	"go.uber.org/zap"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(raw string) (models.Identity, error) {
	switch raw {
	case "user":
		return models.Identity{UserID: "u1", Role: models.RoleUser}, nil
	case "admin":
		return models.Identity{UserID: "a1", Role: models.RoleAdmin}, nil
	}
	return models.Identity{}, errors.New("invalid")
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func newTestRouter(t *testing.T, pingErr error) http.Handler {
	t.Helper()
	catalog := &fakeCatalog{list: []models.Calculator{}, calc: &models.Calculator{ID: "c1"}}
	limiter := NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	return NewRouter(Handlers{
		Auth: &AuthHandler{AuthService: &fakeAuthService{token: "jwt", user: &models.User{ID: "u1"}}},
		Calculators: &CalculatorHandler{
			Catalog:      catalog,
			Calculations: &fakeCalculations{},
			Notifier:     &fakeNotifier{},
		},
		Admin:  &AdminHandler{Catalog: catalog},
		Health: &HealthHandler{DB: fakePinger{err: pingErr}},
	}, fakeVerifier{}, limiter, zap.NewNop())
}

func TestRouter_Access(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name         string
		method       string
		path         string
		token        string
		body         string
		expectedCode int
	}{
		{"public list", "GET", "/api/calculators", "", "", http.StatusOK},
		{"public get", "GET", "/api/calculators/c1", "", "", http.StatusOK},
		{"public calculate", "POST", "/api/calculators/calculate/consumerLoan", "", `{"loanAmount":1,"term":1}`, http.StatusOK},
		{"register", "POST", "/api/auth/register", "", `{}`, http.StatusOK},
		{"profile without token", "GET", "/api/auth/user", "", "", http.StatusUnauthorized},
		{"profile with bad token", "GET", "/api/auth/user", "nope", "", http.StatusUnauthorized},
		{"profile", "GET", "/api/auth/user", "user", "", http.StatusOK},
		{"email without token", "POST", "/api/calculators/email", "", `{}`, http.StatusUnauthorized},
		{"admin list as user", "GET", "/api/admin/calculators", "user", "", http.StatusForbidden},
		{"admin list anonymous", "GET", "/api/admin/calculators", "", "", http.StatusUnauthorized},
		{"admin list", "GET", "/api/admin/calculators", "admin", "", http.StatusOK},
		{"admin create", "POST", "/api/admin/calculators", "admin", `{}`, http.StatusCreated},
		{"admin update", "PUT", "/api/admin/calculators/c1", "admin", `{}`, http.StatusOK},
		{"admin delete as user", "DELETE", "/api/admin/calculators/c1", "user", "", http.StatusForbidden},
		{"admin delete", "DELETE", "/api/admin/calculators/c1", "admin", "", http.StatusOK},
		{"health", "GET", "/healthz", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *bytes.Buffer
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			} else {
				body = &bytes.Buffer{}
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tt.token != "" {
				req.Header.Set("x-auth-token", tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.expectedCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}
}

func TestRouter_EmailIsRateLimited(t *testing.T) {
	router := newTestRouter(t, nil)
	body := `{"email":"a@example.com","calculationType":"mortgage","calculationResults":{"a":1}}`

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/calculators/email", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-auth-token", "user")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v; want [200 429]", codes)
	}
}

func TestRouter_EmailLimitIgnoresForwardingHeaders(t *testing.T) {
	router := newTestRouter(t, nil)
	body := `{"email":"a@example.com","calculationType":"mortgage","calculationResults":{"a":1}}`

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/calculators/email", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-auth-token", "user")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v; want [200 429 429]", codes)
	}
}

func TestRouter_HealthUnavailable(t *testing.T) {
	router := newTestRouter(t, errors.New("connection refused"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
