// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/brightsmile/internal/appointment"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/view"
)

// CatalogServiceInterface はサービス（診療メニュー）を扱うハンドラーが必要とするインターフェース。
type CatalogServiceInterface interface {
	ListServices(ctx context.Context, order repository.ServiceOrder) ([]model.Service, error)
	ListFeatured(ctx context.Context, n int) ([]model.Service, error)
	CreateService(ctx context.Context, title, description string) (*model.Service, error)
	UpdateService(ctx context.Context, id int64, title, description string) (*model.Service, error)
	DeleteService(ctx context.Context, id int64) error
}

// AppointmentServiceInterface は予約を扱うハンドラーが必要とするインターフェース。
type AppointmentServiceInterface interface {
	List(ctx context.Context) ([]model.Appointment, error)
	Create(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error
	Delete(ctx context.Context, id int64) error
}

// internalErrorMessage は想定外のエラー時にユーザーへ表示する文言。
const internalErrorMessage = "An error occurred. Please try again."

// pageWriter はページ描画とフラッシュの受け渡しを共通化する。
type pageWriter struct {
	renderer view.Renderer
	flashes  *middleware.FlashStore
}

// render は共通項目（フラッシュ、CSRFトークン、ログイン状態）を埋めてページを描画する。
// extraは同じレスポンスで表示するフラッシュで、Cookieに残っていたものの後ろに並ぶ。
func (p *pageWriter) render(w http.ResponseWriter, r *http.Request, status int, page view.Page, data *view.PageData, extra ...model.Flash) {
	if data == nil {
		data = &view.PageData{}
	}
	data.Flashes = append(p.flashes.Pop(w, r), extra...)
	data.CSRFToken = middleware.CSRFTokenFromContext(r.Context())
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		data.Identity = identity
	}

	if err := p.renderer.Render(w, status, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", string(page)),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
	}
}

// redirect はフラッシュを残してリダイレクトする。
func (p *pageWriter) redirect(w http.ResponseWriter, r *http.Request, to string, flash model.Flash) {
	p.flashes.Add(w, r, flash)
	http.Redirect(w, r, to, http.StatusFound)
}

// fail はエラーをユーザー向けフラッシュに変換してリダイレクトする。
// 想定外のエラーは詳細をログにのみ出力する。
func (p *pageWriter) fail(w http.ResponseWriter, r *http.Request, to string, err error) {
	appErr := model.AsAppError(err)
	logAppError(r, appErr)
	p.redirect(w, r, to, model.Flash{Category: model.FlashDanger, Message: appErr.Message})
}

// serverError は表示データの取得失敗をエラーページとして描画する。
// リダイレクトはせず、500で直接描画する。
func (p *pageWriter) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logAppError(r, model.AsAppError(err))
	p.render(w, r, http.StatusInternalServerError, view.PageError, nil,
		model.Flash{Category: model.FlashDanger, Message: internalErrorMessage})
}

// logAppError はエラーの分類に応じたレベルでログを出力する。
func logAppError(r *http.Request, appErr *model.AppError) {
	args := []any{
		slog.String("code", appErr.Code),
		slog.String("kind", string(appErr.Kind)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	}
	if appErr.Err != nil {
		args = append(args, slog.String("error", appErr.Err.Error()))
	}

	if errors.Is(appErr, model.ErrStore) {
		slog.Error("request failed", args...)
		return
	}
	slog.Info("request rejected", args...)
}

// parseID はフォームのID値を解析する。
// 未入力は0を返し、ゼロ以下の判定はサービス層に委ねる。
func parseID(raw, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewInvalidIDError(field)
	}
	return id, nil
}
