// Package app はアプリケーションの初期化、依存関係の組み立て、各サブコマンドの実行を行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/brightsmile/internal/appointment"
	"github.com/hitoshi/brightsmile/internal/auth"
	"github.com/hitoshi/brightsmile/internal/bootstrap"
	"github.com/hitoshi/brightsmile/internal/catalog"
	"github.com/hitoshi/brightsmile/internal/config"
	"github.com/hitoshi/brightsmile/internal/database"
	"github.com/hitoshi/brightsmile/internal/handler"
	"github.com/hitoshi/brightsmile/internal/logger"
	"github.com/hitoshi/brightsmile/internal/metrics"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/security"
	"github.com/hitoshi/brightsmile/internal/view"
	"github.com/hitoshi/brightsmile/internal/worker/cleanup"
)

const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// 設定読み込み後はLOG_LEVELに従ってログを再設定する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Bootstrap はスキーマ適用後の初期データ投入と期限切れセッションの削除を行う。
// 何度実行しても結果は同じになる。
func Bootstrap(ctx context.Context, cfg *config.Config, db *sql.DB, collector metrics.MetricsCollector) error {
	seeder := bootstrap.NewSeeder(
		repository.NewPostgresUserRepo(db),
		repository.NewPostgresServiceRepo(db),
		auth.HashPassword,
		bootstrap.SeedConfig{
			AdminPassword:        cfg.AdminPassword,
			AdminPasswordDefault: cfg.AdminPasswordDefault,
		},
		slog.Default(),
	)
	if err := seeder.Run(ctx); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	if _, err := cleanup.NewCleanupJob(db, slog.Default(), collector).Run(ctx); err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return nil
}

// NewHandler は全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 返される停止関数はレート制限のバックグラウンド処理を止める。
func NewHandler(cfg *config.Config, db *sql.DB, collector metrics.MetricsCollector) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	serviceRepo := repository.NewPostgresServiceRepo(db)
	appointmentRepo := repository.NewPostgresAppointmentRepo(db)

	// 2. ドメインサービスの初期化
	authService := auth.NewService(userRepo, sessionRepo, auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge})
	catalogService := catalog.NewService(serviceRepo)
	appointmentService := appointment.NewService(appointmentRepo, security.NewTextSanitizer(), collector)

	// 3. テンプレートの読み込み
	templates, err := view.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// 4. ルーターの構築（configのレート制限はreq/min単位）
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitSubmit),
	)

	deps := &handler.RouterDeps{
		Logger:           slog.Default(),
		IdentityResolver: authService,
		RateLimiter:      rateLimiter,
		RequestRecorder:  collector,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		TrustProxy: cfg.TrustProxy,

		Renderer: templates,
		Flashes:  middleware.NewFlashStore(cfg.CookieSecure, cfg.CookieDomain),

		HealthChecker: db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},
		LoginRecorder: collector,

		CatalogService:     catalogService,
		AppointmentService: appointmentService,
	}

	return handler.NewRouter(deps), rateLimiter.Stop, nil
}

// RunServe はWebサーバーを起動する。
// マイグレーションと初期データ投入を済ませてからリクエストを受け付ける。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func RunServe(ctx context.Context, cfg *config.Config) error {
	// 1. スキーマの適用
	if err := RunMigrate(cfg); err != nil {
		return err
	}

	// 2. DB接続
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 初期データ投入
	if err := Bootstrap(ctx, cfg, db, collector); err != nil {
		return err
	}

	// 5. ハンドラーの構築
	router, stop, err := NewHandler(cfg, db, collector)
	if err != nil {
		return err
	}
	defer stop()

	// 6. HTTPサーバーの起動
	servers := []*http.Server{{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
	if cfg.MetricsPort != "" {
		servers = append(servers, &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           metrics.SetupMetricsRoute(registry),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			slog.Info("HTTP server starting", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server listen error on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server...")
	case runErr = <-errCh:
		slog.Error("HTTP server failed", slog.String("error", runErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	slog.Info("HTTP server stopped gracefully")
	return nil
}

// RunMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func RunMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// RunSeed はマイグレーションを適用してから初期データを投入する。
func RunSeed(ctx context.Context, cfg *config.Config) error {
	if err := RunMigrate(cfg); err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return Bootstrap(ctx, cfg, db, metrics.Nop{})
}

// RunCleanup は期限切れセッションを一度だけ削除する。
// cronなど外部のスケジューラから起動する想定。
func RunCleanup(ctx context.Context, cfg *config.Config) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := cleanup.NewCleanupJob(db, slog.Default(), metrics.Nop{}).Run(ctx); err != nil {
		return err
	}
	return nil
}

// RunHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func RunHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードとクエリをログ出力用に伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	u.RawQuery = ""
	return u.Redacted()
}
