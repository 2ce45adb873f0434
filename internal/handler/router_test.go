package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/countboard/internal/middleware"
	"github.com/hitoshi/countboard/internal/model"
	"golang.org/x/time/rate"
)

type routerSessionFinder struct {
	sessions map[string]*model.Session
}

func (f *routerSessionFinder) FindByID(_ context.Context, id string) (*model.Session, error) {
	return f.sessions[id], nil
}

func newTestRouter(t *testing.T, finder middleware.SessionFinder) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		AuthRate:        rate.Limit(1000),
		AuthBurst:       1000,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		SessionFinder: finder,
		CredentialSources: []middleware.CredentialSource{
			middleware.CookieCredentialSource{},
			middleware.BearerCredentialSource{},
		},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,

		AuthService: &mockAuthService{},
		AuthConfig:  testAuthConfig,

		Provisioner:   &mockProvisioner{},
		CounterReader: &mockCounterReader{},

		CounterWriter: &mockCounterWriter{
			incrementUserCounterFn: func(_ context.Context, userID string) (*model.UserData, error) {
				return &model.UserData{ID: 1, UserID: userID, Counter: 1}, nil
			},
		},
	})
}

// withCSRF は状態変更リクエストにCSRFトークンを付与する。
func withCSRF(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-token"})
	req.Header.Set("X-CSRF-Token", "test-token")
	return req
}

func TestRouter_Health_ReturnsOK(t *testing.T) {
	router := newTestRouter(t, &routerSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_Layout_UnauthenticatedIsOK(t *testing.T) {
	router := newTestRouter(t, &routerSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/layout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (unauthenticated page load is normal)", rec.Code, http.StatusOK)
	}
}

func TestRouter_IncrementOwn_WithoutSession_Returns401(t *testing.T) {
	router := newTestRouter(t, &routerSessionFinder{})

	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_IncrementOwn_WithSessionCookie_Succeeds(t *testing.T) {
	finder := &routerSessionFinder{
		sessions: map[string]*model.Session{
			"valid-session": {ID: "valid-session", UserID: "user-1"},
		},
	}
	router := newTestRouter(t, finder)

	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil))
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestRouter_IncrementOwn_WithBearerToken_Succeeds(t *testing.T) {
	finder := &routerSessionFinder{
		sessions: map[string]*model.Session{
			"api-session": {ID: "api-session", UserID: "user-2"},
		},
	}
	router := newTestRouter(t, finder)

	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil))
	req.Header.Set("Authorization", "Bearer api-session")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_GlobalIncrement_WithoutSession_IsAllowed(t *testing.T) {
	router := newTestRouter(t, &routerSessionFinder{})

	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/counter/global/increment", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (global counter is shared by all visitors)", rec.Code, http.StatusOK)
	}
}

func TestRouter_PostWithoutCSRFToken_Returns403(t *testing.T) {
	router := newTestRouter(t, &routerSessionFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/counter/global/increment", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(t, &routerSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
