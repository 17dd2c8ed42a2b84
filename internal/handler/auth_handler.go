package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/brightsmile/internal/metrics"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, previousSessionID string) (*model.Session, *model.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// LoginRecorder はログイン試行の記録先。
type LoginRecorder interface {
	RecordLoginAttempt(result string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はログインとログアウトのHTTPハンドラー。
type AuthHandler struct {
	pages    *pageWriter
	service  AuthServiceInterface
	recorder LoginRecorder
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。recorderがnilの場合は記録しない。
func NewAuthHandler(
	renderer view.Renderer,
	flashes *middleware.FlashStore,
	service AuthServiceInterface,
	recorder LoginRecorder,
	config AuthHandlerConfig,
) *AuthHandler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AuthHandler{
		pages:    &pageWriter{renderer: renderer, flashes: flashes},
		service:  service,
		recorder: recorder,
		config:   config,
	}
}

// LoginForm は既存のセッションを破棄してからログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)

	// 破棄したセッションでナビゲーションを描画しないよう匿名として扱う
	r = r.WithContext(middleware.ContextWithIdentity(r.Context(), nil))
	h.pages.render(w, r, http.StatusOK, view.PageLogin, nil)
}

// Login はメールアドレスとパスワードで認証する。
// 成功時はセッションCookieを発行して管理画面へ、失敗時はエラー付きでフォームを再表示する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	previous := ""
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		previous = cookie.Value
	}

	session, user, err := h.service.Login(r.Context(), email, password, previous)
	if err != nil {
		appErr := model.AsAppError(err)
		logAppError(r, appErr)
		if errors.Is(appErr, model.ErrAuthentication) {
			h.recorder.RecordLoginAttempt(metrics.LoginResultFailure)
		}

		h.pages.render(w, r, http.StatusOK, view.PageLogin,
			&view.PageData{LoginEmail: email},
			model.Flash{Category: model.FlashDanger, Message: appErr.Message},
		)
		return
	}

	h.recorder.RecordLoginAttempt(metrics.LoginResultSuccess)

	// ブラウザセッションCookieとする（MaxAge未指定）。サーバー側の有効期限はsessionsテーブルで管理する。
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("admin session started",
		slog.Int64("user_id", user.ID),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	h.pages.redirect(w, r, "/admin", model.Flash{Category: model.FlashSuccess, Message: "Logged in successfully!"})
}

// Logout はセッションを破棄してトップページへリダイレクトする。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	h.pages.redirect(w, r, "/", model.Flash{Category: model.FlashInfo, Message: "Logged out successfully."})
}

// endSession はセッションをDBから削除し、Cookieをクリアする。
// 削除に失敗してもCookieはクリアする。
func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		return
	}

	if cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout",
				slog.String("error", logoutErr.Error()),
				slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
