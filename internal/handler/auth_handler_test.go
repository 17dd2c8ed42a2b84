package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hitoshi/brightsmile/internal/metrics"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/view"
)

func newTestAuthHandler(svc *mockAuthService, renderer *mockRenderer, recorder *mockLoginRecorder) *AuthHandler {
	return NewAuthHandler(renderer, newTestFlashStore(), svc, recorder, AuthHandlerConfig{
		CookieDomain: "",
		CookieSecure: true,
	})
}

func TestAuthHandler_Login_Success_SetsSessionCookieAndRedirects(t *testing.T) {
	var gotPrevious string
	svc := &mockAuthService{
		loginFn: func(_ context.Context, email, password, previous string) (*model.Session, *model.User, error) {
			gotPrevious = previous
			if email != "admin@clinic.com" || password != "admin123" {
				t.Errorf("credentials = %q/%q", email, password)
			}
			return &model.Session{ID: "new-session", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)},
				&model.User{ID: 1, Name: "Admin User", Role: model.RoleAdmin}, nil
		},
	}
	recorder := &mockLoginRecorder{}
	h := newTestAuthHandler(svc, &mockRenderer{}, recorder)

	req := postForm("/login", url.Values{"email": {"admin@clinic.com"}, "password": {"admin123"}})
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "old-session"})
	w := httptest.NewRecorder()
	h.Login(w, req)

	assertRedirectWithFlash(t, w, "/admin", model.FlashSuccess, "Logged in successfully!")

	if gotPrevious != "old-session" {
		t.Errorf("previous session = %q, want old-session", gotPrevious)
	}

	cookie := findSetCookie(w.Result(), middleware.SessionCookieName)
	if cookie == nil {
		t.Fatal("session cookie was not set")
	}
	if cookie.Value != "new-session" {
		t.Errorf("cookie value = %q, want new-session", cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.MaxAge != 0 || !cookie.Expires.IsZero() {
		t.Error("session cookie should be a browser-session cookie")
	}

	if len(recorder.results) != 1 || recorder.results[0] != metrics.LoginResultSuccess {
		t.Errorf("recorded = %v, want [success]", recorder.results)
	}
}

func TestAuthHandler_Login_Failure_RerendersWithError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessage  string
		wantRecorded bool
	}{
		{
			name:         "入力不足",
			err:          model.NewValidationError(model.ErrCodeRequiredField, "Please provide both email and password."),
			wantMessage:  "Please provide both email and password.",
			wantRecorded: false,
		},
		{
			name:         "認証失敗",
			err:          model.NewInvalidCredentialsError(),
			wantMessage:  "Invalid email or password.",
			wantRecorded: true,
		},
		{
			name:         "DBエラー",
			err:          model.NewStoreError(errors.New("connection refused")),
			wantMessage:  "An error occurred. Please try again.",
			wantRecorded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(context.Context, string, string, string) (*model.Session, *model.User, error) {
					return nil, nil, tt.err
				},
			}
			renderer := &mockRenderer{}
			recorder := &mockLoginRecorder{}
			h := newTestAuthHandler(svc, renderer, recorder)

			w := httptest.NewRecorder()
			h.Login(w, postForm("/login", url.Values{"email": {"who@example.com"}, "password": {"x"}}))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			if renderer.page != view.PageLogin {
				t.Errorf("page = %s, want %s", renderer.page, view.PageLogin)
			}
			if renderer.data.LoginEmail != "who@example.com" {
				t.Errorf("LoginEmail = %q, want the submitted email", renderer.data.LoginEmail)
			}
			flashes := renderer.data.Flashes
			if len(flashes) != 1 || flashes[0].Category != model.FlashDanger || flashes[0].Message != tt.wantMessage {
				t.Errorf("flashes = %+v, want danger %q", flashes, tt.wantMessage)
			}
			if findSetCookie(w.Result(), middleware.SessionCookieName) != nil {
				t.Error("failed login must not touch the session cookie")
			}
			if got := len(recorder.results) == 1 && recorder.results[0] == metrics.LoginResultFailure; got != tt.wantRecorded {
				t.Errorf("recorded = %v, want failure recorded = %v", recorder.results, tt.wantRecorded)
			}
		})
	}
}

func TestAuthHandler_LoginForm_ClearsExistingSession(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{
		logoutFn: func(_ context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	renderer := &mockRenderer{}
	h := newTestAuthHandler(svc, renderer, &mockLoginRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "current"})
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), &model.Identity{UserID: 1}))
	w := httptest.NewRecorder()
	h.LoginForm(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if loggedOut != "current" {
		t.Errorf("logged out session = %q, want current", loggedOut)
	}
	if c := findSetCookie(w.Result(), middleware.SessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Error("session cookie should be cleared")
	}
	if renderer.data.Identity != nil {
		t.Error("login form should render as anonymous")
	}
}

func TestAuthHandler_LoginForm_NoSession_DoesNotCallLogout(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(context.Context, string) error {
			t.Error("Logout should not be called without a session cookie")
			return nil
		},
	}
	h := newTestAuthHandler(svc, &mockRenderer{}, &mockLoginRecorder{})

	w := httptest.NewRecorder()
	h.LoginForm(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	if findSetCookie(w.Result(), middleware.SessionCookieName) != nil {
		t.Error("no session cookie should be written")
	}
}

func TestAuthHandler_Logout_RedirectsHomeWithInfoFlash(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(context.Context, string) error {
			// 削除に失敗してもログアウトは完了させる
			return errors.New("db down")
		},
	}
	h := newTestAuthHandler(svc, &mockRenderer{}, &mockLoginRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "current"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	assertRedirectWithFlash(t, w, "/", model.FlashInfo, "Logged out successfully.")
	if c := findSetCookie(w.Result(), middleware.SessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Error("session cookie should be cleared")
	}
}

func TestNewAuthHandler_NilRecorder(t *testing.T) {
	h := NewAuthHandler(&mockRenderer{}, newTestFlashStore(), &mockAuthService{}, nil, AuthHandlerConfig{})

	w := httptest.NewRecorder()
	h.Login(w, postForm("/login", url.Values{"email": {"a@b.c"}, "password": {"x"}}))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
