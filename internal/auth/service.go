// Package auth はパスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// timingDummyHash は存在しないメールアドレスでもbcrypt比較を1回行うためのハッシュ。
func timingDummyHash() string {
	dummyHashOnce.Do(func() {
		h, err := HashPassword("brightsmile-timing-dummy")
		if err == nil {
			dummyHash = h
		}
	})
	return dummyHash
}

// Login はメールアドレスとパスワードで認証し、新しいセッションを発行する。
// previousSessionIDが指定されている場合は、発行前にそのセッションを破棄する。
// 未登録のメールアドレスと誤ったパスワードは同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password, previousSessionID string) (*model.Session, *model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, model.NewValidationError(model.ErrCodeRequiredField, "Please provide both email and password.")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, model.NewStoreError(fmt.Errorf("failed to find user: %w", err))
	}
	if user == nil {
		CheckPassword(timingDummyHash(), password)
		slog.Warn("login failed", slog.String("reason", "unknown_email"))
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if !CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed",
			slog.String("reason", "wrong_password"),
			slog.Int64("user_id", user.ID),
		)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if previousSessionID != "" {
		if err := s.sessionRepo.DeleteByID(ctx, previousSessionID); err != nil {
			return nil, nil, model.NewStoreError(fmt.Errorf("failed to delete previous session: %w", err))
		}
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, model.NewStoreError(err)
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return session, user, nil
}

// Logout はセッションを破棄する。セッションが存在しない場合も成功とする。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return model.NewStoreError(fmt.Errorf("failed to delete session: %w", err))
	}
	return nil
}

// CurrentIdentity はセッションIDから認証済みユーザー情報を取得する。
// 未ログイン、または期限切れの場合はnilを返す。
func (s *Service) CurrentIdentity(ctx context.Context, sessionID string) (*model.Identity, error) {
	if sessionID == "" {
		return nil, nil
	}

	identity, err := s.sessionRepo.FindIdentity(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return identity, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
