package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger           *slog.Logger
	IdentityResolver middleware.IdentityResolver
	RateLimiter      *middleware.RateLimiter
	RequestRecorder  middleware.RequestRecorder
	CSRFConfig       middleware.CSRFConfig
	TrustProxy       bool // trueの場合のみX-Forwarded-For等からクライアントIPを復元する

	// 描画
	Renderer view.Renderer
	Flashes  *middleware.FlashStore

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService   AuthServiceInterface
	AuthConfig    AuthHandlerConfig
	LoginRecorder LoginRecorder

	// サービスと予約
	CatalogService     CatalogServiceInterface
	AppointmentService AppointmentServiceInterface
}

// NewRouter は全ページのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Logging → Metrics → SecurityHeaders → NoCache
//	  → [RealIP] → LoadIdentity → RateLimit(General)
//	  → 公開ページ: CSRF
//	  → /admin配下: RequireAdmin → CSRF
//
// /healthはRealIP以降のチェーンの外に配置する。
// POST /login と POST /appointment には送信専用のレート制限を追加する。
// 未ログインの/admin配下へのアクセスはCSRF検証より先に/loginへリダイレクトする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.RequestRecorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewNoCacheMiddleware())

	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	pageHandler := NewPageHandler(deps.Renderer, deps.Flashes, deps.CatalogService)
	appointmentHandler := NewAppointmentHandler(deps.Renderer, deps.Flashes, deps.AppointmentService, deps.CatalogService)
	authHandler := NewAuthHandler(deps.Renderer, deps.Flashes, deps.AuthService, deps.LoginRecorder, deps.AuthConfig)
	adminHandler := NewAdminHandler(deps.Renderer, deps.Flashes, deps.AppointmentService, deps.CatalogService)

	r.Group(func(r chi.Router) {
		if deps.TrustProxy {
			r.Use(chimw.RealIP)
		}
		r.Use(middleware.NewLoadIdentityMiddleware(deps.IdentityResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		csrf := middleware.NewCSRFMiddleware(deps.CSRFConfig)

		// --- 管理画面（要ログイン） ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewRequireAdminMiddleware(deps.Flashes))
			r.Use(csrf)

			r.Get("/", adminHandler.Dashboard)
			r.Post("/update_status", adminHandler.UpdateStatus)
			r.Post("/delete_appointment", adminHandler.DeleteAppointment)
			r.Post("/add_service", adminHandler.AddService)
			r.Post("/edit_service", adminHandler.EditService)
			r.Post("/delete_service", adminHandler.DeleteService)
		})

		r.Group(func(r chi.Router) {
			r.Use(csrf)

			submitLimit := deps.RateLimiter.SubmitMiddleware()

			// --- 公開ページ ---
			r.Get("/", pageHandler.Home)
			r.Get("/about", pageHandler.Static(view.PageAbout))
			r.Get("/services", pageHandler.Services)
			r.Get("/contact", pageHandler.Static(view.PageContact))
			r.Get("/testimonials", pageHandler.Static(view.PageTestimonials))
			r.Get("/faq", pageHandler.Static(view.PageFAQ))
			r.Get("/success", pageHandler.Static(view.PageSuccess))
			r.Handle("/static/*", view.StaticHandler())

			// --- 予約 ---
			r.Get("/appointment", appointmentHandler.Form)
			r.With(submitLimit).Post("/appointment", appointmentHandler.Submit)

			// --- 認証 ---
			r.Get("/login", authHandler.LoginForm)
			r.With(submitLimit).Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
		})
	})

	return r
}
