package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
)

// --- モック定義 ---

type mockServiceRepo struct {
	listFn               func(ctx context.Context, order repository.ServiceOrder, limit int) ([]model.Service, error)
	findByIDFn           func(ctx context.Context, id int64) (*model.Service, error)
	createFn             func(ctx context.Context, service *model.Service) error
	updateFn             func(ctx context.Context, service *model.Service) (bool, error)
	deleteUnreferencedFn func(ctx context.Context, id int64) (bool, error)
	seedIfEmptyFn        func(ctx context.Context, services []model.Service) (int, error)
}

func (m *mockServiceRepo) List(ctx context.Context, order repository.ServiceOrder, limit int) ([]model.Service, error) {
	if m.listFn != nil {
		return m.listFn(ctx, order, limit)
	}
	return []model.Service{}, nil
}

func (m *mockServiceRepo) FindByID(ctx context.Context, id int64) (*model.Service, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockServiceRepo) Create(ctx context.Context, service *model.Service) error {
	if m.createFn != nil {
		return m.createFn(ctx, service)
	}
	return nil
}

func (m *mockServiceRepo) Update(ctx context.Context, service *model.Service) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, service)
	}
	return true, nil
}

func (m *mockServiceRepo) DeleteUnreferenced(ctx context.Context, id int64) (bool, error) {
	if m.deleteUnreferencedFn != nil {
		return m.deleteUnreferencedFn(ctx, id)
	}
	return true, nil
}

func (m *mockServiceRepo) SeedIfEmpty(ctx context.Context, services []model.Service) (int, error) {
	if m.seedIfEmptyFn != nil {
		return m.seedIfEmptyFn(ctx, services)
	}
	return 0, nil
}

var _ repository.ServiceRepository = (*mockServiceRepo)(nil)

// --- テスト ---

func TestListServices_PassesOrder(t *testing.T) {
	var gotOrder repository.ServiceOrder
	var gotLimit int
	svc := NewService(&mockServiceRepo{
		listFn: func(_ context.Context, order repository.ServiceOrder, limit int) ([]model.Service, error) {
			gotOrder, gotLimit = order, limit
			return []model.Service{{ID: 1, Title: "A", Description: "a"}}, nil
		},
	})

	services, err := svc.ListServices(context.Background(), repository.ServiceOrderByTitle)
	if err != nil {
		t.Fatalf("ListServices() error = %v", err)
	}
	if len(services) != 1 {
		t.Errorf("len = %d, want 1", len(services))
	}
	if gotOrder != repository.ServiceOrderByTitle || gotLimit != 0 {
		t.Errorf("order=%v limit=%d, want by-title and no limit", gotOrder, gotLimit)
	}
}

func TestListFeatured_RequestsFirstNByID(t *testing.T) {
	var gotOrder repository.ServiceOrder
	var gotLimit int
	svc := NewService(&mockServiceRepo{
		listFn: func(_ context.Context, order repository.ServiceOrder, limit int) ([]model.Service, error) {
			gotOrder, gotLimit = order, limit
			return []model.Service{}, nil
		},
	})

	if _, err := svc.ListFeatured(context.Background(), FeaturedCount); err != nil {
		t.Fatalf("ListFeatured() error = %v", err)
	}
	if gotOrder != repository.ServiceOrderByID || gotLimit != 4 {
		t.Errorf("order=%v limit=%d, want by-id and 4", gotOrder, gotLimit)
	}
}

func TestListServices_StoreError(t *testing.T) {
	svc := NewService(&mockServiceRepo{
		listFn: func(context.Context, repository.ServiceOrder, int) ([]model.Service, error) {
			return nil, errors.New("db down")
		},
	})

	_, err := svc.ListServices(context.Background(), repository.ServiceOrderByID)
	if !errors.Is(err, model.ErrStore) {
		t.Fatalf("error = %v, want store error", err)
	}
}

func TestGetService(t *testing.T) {
	repo := &mockServiceRepo{
		findByIDFn: func(_ context.Context, id int64) (*model.Service, error) {
			if id == 3 {
				return &model.Service{ID: 3, Title: "Restorations"}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(repo)

	got, err := svc.GetService(context.Background(), 3)
	if err != nil || got.Title != "Restorations" {
		t.Fatalf("GetService(3) = %+v, %v", got, err)
	}

	_, err = svc.GetService(context.Background(), 99)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetService(99) error = %v, want not found", err)
	}

	_, err = svc.GetService(context.Background(), 0)
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("GetService(0) error = %v, want validation", err)
	}
}

func TestCreateService_TrimsAndPersists(t *testing.T) {
	var persisted *model.Service
	svc := NewService(&mockServiceRepo{
		createFn: func(_ context.Context, s *model.Service) error {
			s.ID = 9
			persisted = s
			return nil
		},
	})

	got, err := svc.CreateService(context.Background(), "  Whitening ", "\tBrighter smile\n")
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}
	if got.ID != 9 {
		t.Errorf("ID = %d, want 9", got.ID)
	}
	if persisted.Title != "Whitening" || persisted.Description != "Brighter smile" {
		t.Errorf("persisted = %+v, want trimmed values", persisted)
	}
}

func TestCreateService_BlankInput_ReturnsValidationError(t *testing.T) {
	svc := NewService(&mockServiceRepo{
		createFn: func(context.Context, *model.Service) error {
			t.Fatal("store must not be called for blank input")
			return nil
		},
	})

	cases := [][2]string{{"", "desc"}, {"title", ""}, {"  ", "desc"}}
	for _, c := range cases {
		_, err := svc.CreateService(context.Background(), c[0], c[1])
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("CreateService(%q, %q) error = %v, want validation", c[0], c[1], err)
			continue
		}
		if msg := model.AsAppError(err).Message; msg != "Please provide both title and description." {
			t.Errorf("message = %q", msg)
		}
	}
}

func TestUpdateService(t *testing.T) {
	var updated *model.Service
	svc := NewService(&mockServiceRepo{
		updateFn: func(_ context.Context, s *model.Service) (bool, error) {
			updated = s
			return s.ID == 2, nil
		},
	})

	if _, err := svc.UpdateService(context.Background(), 2, " New ", " Desc "); err != nil {
		t.Fatalf("UpdateService() error = %v", err)
	}
	if updated.ID != 2 || updated.Title != "New" || updated.Description != "Desc" {
		t.Errorf("updated = %+v", updated)
	}

	_, err := svc.UpdateService(context.Background(), 5, "New", "Desc")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing row error = %v, want not found", err)
	}

	_, err = svc.UpdateService(context.Background(), 0, "New", "Desc")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("id=0 error = %v, want validation", err)
	}
	if msg := model.AsAppError(err).Message; msg != "Please provide all required fields." {
		t.Errorf("message = %q", msg)
	}

	_, err = svc.UpdateService(context.Background(), 2, "New", " ")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank description error = %v, want validation", err)
	}
}

func TestDeleteService(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		repoOK  bool
		repoErr error
		wantErr *model.AppError
	}{
		{name: "削除成功", id: 1, repoOK: true},
		{name: "予約から参照されている", id: 1, repoErr: repository.ErrReferenced, wantErr: model.ErrReferentialIntegrity},
		{name: "存在しない", id: 1, repoOK: false, wantErr: model.ErrNotFound},
		{name: "DBエラー", id: 1, repoErr: errors.New("boom"), wantErr: model.ErrStore},
		{name: "不正なID", id: -1, wantErr: model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := NewService(&mockServiceRepo{
				deleteUnreferencedFn: func(context.Context, int64) (bool, error) {
					called = true
					return tt.repoOK, tt.repoErr
				},
			})

			err := svc.DeleteService(context.Background(), tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("DeleteService() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DeleteService() error = %v, want kind %s", err, tt.wantErr.Kind)
			}
			if tt.id <= 0 && called {
				t.Error("store must not be called for invalid id")
			}
		})
	}
}

func TestDeleteService_InUseMessage(t *testing.T) {
	svc := NewService(&mockServiceRepo{
		deleteUnreferencedFn: func(context.Context, int64) (bool, error) {
			return false, repository.ErrReferenced
		},
	})

	err := svc.DeleteService(context.Background(), 4)
	want := "Cannot delete service that has appointments. Please remove appointments first."
	if got := model.AsAppError(err).Message; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}
