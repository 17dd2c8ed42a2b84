package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/brightsmile/internal/model"
)

// --- モック定義 ---

type mockIdentityResolver struct {
	currentIdentityFn func(ctx context.Context, sessionID string) (*model.Identity, error)
}

func (m *mockIdentityResolver) CurrentIdentity(ctx context.Context, sessionID string) (*model.Identity, error) {
	if m.currentIdentityFn != nil {
		return m.currentIdentityFn(ctx, sessionID)
	}
	return nil, nil
}

var adminIdentity = &model.Identity{UserID: 1, Name: "Admin User", Role: model.RoleAdmin, SessionID: "valid-session-id"}

func validSessionResolver() *mockIdentityResolver {
	return &mockIdentityResolver{
		currentIdentityFn: func(_ context.Context, id string) (*model.Identity, error) {
			if id == "valid-session-id" {
				return adminIdentity, nil
			}
			return nil, nil
		},
	}
}

// --- テスト ---

func TestLoadIdentity_ValidSession_InjectsIdentity(t *testing.T) {
	mw := NewLoadIdentityMiddleware(validSessionResolver())

	var captured *model.Identity
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != adminIdentity {
		t.Errorf("identity = %+v, want %+v", captured, adminIdentity)
	}
}

func TestLoadIdentity_AnonymousCases_ContinueWithoutIdentity(t *testing.T) {
	resolver := &mockIdentityResolver{
		currentIdentityFn: func(_ context.Context, id string) (*model.Identity, error) {
			if id == "broken" {
				return nil, errors.New("db down")
			}
			return nil, nil
		},
	}
	mw := NewLoadIdentityMiddleware(resolver)

	cases := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "Cookieなし", cookie: nil},
		{name: "空のCookie", cookie: &http.Cookie{Name: SessionCookieName, Value: ""}},
		{name: "期限切れ", cookie: &http.Cookie{Name: SessionCookieName, Value: "expired"}},
		{name: "検索エラー", cookie: &http.Cookie{Name: SessionCookieName, Value: "broken"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if _, ok := IdentityFromContext(r.Context()); ok {
					t.Error("identity must not be set")
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Error("next handler must run for anonymous requests")
			}
		})
	}
}

func TestRequireAdmin_Anonymous_RedirectsToLoginWithFlash(t *testing.T) {
	mw := NewRequireAdminMiddleware(NewFlashStore(false, ""))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/delete_service", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	flashes := flashesFromResponse(t, resp)
	if len(flashes) != 1 {
		t.Fatalf("flashes = %v, want 1", flashes)
	}
	if flashes[0].Category != model.FlashWarning || flashes[0].Message != "Please log in to access this page." {
		t.Errorf("flash = %+v", flashes[0])
	}
}

func TestRequireAdmin_Authenticated_CallsNext(t *testing.T) {
	mw := NewRequireAdminMiddleware(NewFlashStore(false, ""))

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), adminIdentity))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("protected handler should run for authenticated requests")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("expected no identity in empty context")
	}
	if _, ok := IdentityFromContext(ContextWithIdentity(context.Background(), nil)); ok {
		t.Error("nil identity must be treated as anonymous")
	}
}
