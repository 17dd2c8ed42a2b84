// Package catalog はクリニックの診療メニューを管理する。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
)

// FeaturedCount はトップページに表示するサービス数。
const FeaturedCount = 4

// Service は診療メニューのサービス層。
type Service struct {
	repo repository.ServiceRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ServiceRepository) *Service {
	return &Service{repo: repo}
}

// ListServices は全サービスを指定の並び順で返す。
func (s *Service) ListServices(ctx context.Context, order repository.ServiceOrder) ([]model.Service, error) {
	services, err := s.repo.List(ctx, order, 0)
	if err != nil {
		return nil, model.NewStoreError(fmt.Errorf("サービス一覧の取得に失敗しました: %w", err))
	}
	return services, nil
}

// ListFeatured は登録順で先頭n件のサービスを返す。
func (s *Service) ListFeatured(ctx context.Context, n int) ([]model.Service, error) {
	if n <= 0 {
		return []model.Service{}, nil
	}
	services, err := s.repo.List(ctx, repository.ServiceOrderByID, n)
	if err != nil {
		return nil, model.NewStoreError(fmt.Errorf("おすすめサービスの取得に失敗しました: %w", err))
	}
	return services, nil
}

// GetService は指定IDのサービスを返す。
func (s *Service) GetService(ctx context.Context, id int64) (*model.Service, error) {
	if id <= 0 {
		return nil, model.NewInvalidIDError("service_id")
	}
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewStoreError(fmt.Errorf("サービスの取得に失敗しました: %w", err))
	}
	if svc == nil {
		return nil, model.NewServiceNotFoundError(id)
	}
	return svc, nil
}

// CreateService はサービスを追加する。タイトルと説明は前後の空白を除いて必須。
func (s *Service) CreateService(ctx context.Context, title, description string) (*model.Service, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, model.NewValidationError(model.ErrCodeRequiredField, "Please provide both title and description.")
	}

	svc := &model.Service{Title: title, Description: description}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, model.NewStoreError(fmt.Errorf("サービスの追加に失敗しました: %w", err))
	}

	slog.Info("service created", slog.Int64("service_id", svc.ID))
	return svc, nil
}

// UpdateService はサービスのタイトルと説明を更新する。
func (s *Service) UpdateService(ctx context.Context, id int64, title, description string) (*model.Service, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if id <= 0 || title == "" || description == "" {
		return nil, model.NewValidationError(model.ErrCodeRequiredField, "Please provide all required fields.")
	}

	svc := &model.Service{ID: id, Title: title, Description: description}
	ok, err := s.repo.Update(ctx, svc)
	if err != nil {
		return nil, model.NewStoreError(fmt.Errorf("サービスの更新に失敗しました: %w", err))
	}
	if !ok {
		return nil, model.NewServiceNotFoundError(id)
	}

	slog.Info("service updated", slog.Int64("service_id", id))
	return svc, nil
}

// DeleteService はサービスを削除する。
// 予約から参照されている場合は削除せずReferentialIntegrityエラーを返す。
func (s *Service) DeleteService(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.NewInvalidIDError("service_id")
	}

	ok, err := s.repo.DeleteUnreferenced(ctx, id)
	if errors.Is(err, repository.ErrReferenced) {
		slog.Warn("service deletion refused", slog.Int64("service_id", id))
		return model.NewServiceInUseError(id)
	}
	if err != nil {
		return model.NewStoreError(fmt.Errorf("サービスの削除に失敗しました: %w", err))
	}
	if !ok {
		return model.NewServiceNotFoundError(id)
	}

	slog.Info("service deleted", slog.Int64("service_id", id))
	return nil
}
