package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/brightsmile/internal/appointment"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/view"
)

// --- モック定義 ---

type mockCatalogService struct {
	listServicesFn  func(ctx context.Context, order repository.ServiceOrder) ([]model.Service, error)
	listFeaturedFn  func(ctx context.Context, n int) ([]model.Service, error)
	createServiceFn func(ctx context.Context, title, description string) (*model.Service, error)
	updateServiceFn func(ctx context.Context, id int64, title, description string) (*model.Service, error)
	deleteServiceFn func(ctx context.Context, id int64) error
}

func (m *mockCatalogService) ListServices(ctx context.Context, order repository.ServiceOrder) ([]model.Service, error) {
	if m.listServicesFn != nil {
		return m.listServicesFn(ctx, order)
	}
	return []model.Service{}, nil
}

func (m *mockCatalogService) ListFeatured(ctx context.Context, n int) ([]model.Service, error) {
	if m.listFeaturedFn != nil {
		return m.listFeaturedFn(ctx, n)
	}
	return []model.Service{}, nil
}

func (m *mockCatalogService) CreateService(ctx context.Context, title, description string) (*model.Service, error) {
	if m.createServiceFn != nil {
		return m.createServiceFn(ctx, title, description)
	}
	return &model.Service{ID: 1, Title: title, Description: description}, nil
}

func (m *mockCatalogService) UpdateService(ctx context.Context, id int64, title, description string) (*model.Service, error) {
	if m.updateServiceFn != nil {
		return m.updateServiceFn(ctx, id, title, description)
	}
	return &model.Service{ID: id, Title: title, Description: description}, nil
}

func (m *mockCatalogService) DeleteService(ctx context.Context, id int64) error {
	if m.deleteServiceFn != nil {
		return m.deleteServiceFn(ctx, id)
	}
	return nil
}

type mockAppointmentService struct {
	listFn         func(ctx context.Context) ([]model.Appointment, error)
	createFn       func(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error)
	updateStatusFn func(ctx context.Context, id int64, status model.AppointmentStatus) error
	deleteFn       func(ctx context.Context, id int64) error
}

func (m *mockAppointmentService) List(ctx context.Context) ([]model.Appointment, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Appointment{}, nil
}

func (m *mockAppointmentService) Create(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Appointment{ID: 1, Status: model.AppointmentStatusPending}, nil
}

func (m *mockAppointmentService) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockAppointmentService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockAuthService struct {
	loginFn  func(ctx context.Context, email, password, previousSessionID string) (*model.Session, *model.User, error)
	logoutFn func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password, previousSessionID string) (*model.Session, *model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password, previousSessionID)
	}
	return nil, nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockLoginRecorder struct {
	results []string
}

func (m *mockLoginRecorder) RecordLoginAttempt(result string) {
	m.results = append(m.results, result)
}

// mockRenderer は描画内容を記録し、テンプレートを使わずにステータスのみを書き込む。
type mockRenderer struct {
	page   view.Page
	status int
	data   *view.PageData
	err    error
}

func (m *mockRenderer) Render(w http.ResponseWriter, status int, page view.Page, data *view.PageData) error {
	if m.err != nil {
		return m.err
	}
	m.page = page
	m.status = status
	m.data = data
	w.WriteHeader(status)
	return nil
}

// --- ヘルパー ---

func newTestFlashStore() *middleware.FlashStore {
	return middleware.NewFlashStore(false, "")
}

// assertErrorPage は取得失敗がエラーページとして500で描画されたことを検証する。
func assertErrorPage(t *testing.T, w *httptest.ResponseRecorder, renderer *mockRenderer) {
	t.Helper()
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if renderer.page != view.PageError {
		t.Fatalf("page = %s, want %s", renderer.page, view.PageError)
	}
	flashes := renderer.data.Flashes
	if len(flashes) != 1 || flashes[0].Category != model.FlashDanger || flashes[0].Message != internalErrorMessage {
		t.Errorf("flashes = %+v, want one generic danger flash", flashes)
	}
}

// responseFlashes はレスポンスが次の画面に残したフラッシュを取り出す。
func responseFlashes(t *testing.T, resp *http.Response) []model.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	return newTestFlashStore().Pop(httptest.NewRecorder(), req)
}

// assertRedirectWithFlash は302リダイレクトと単一のフラッシュを検証する。
func assertRedirectWithFlash(t *testing.T, w *httptest.ResponseRecorder, wantLocation string, wantCategory model.FlashCategory, wantMessage string) {
	t.Helper()
	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != wantLocation {
		t.Errorf("Location = %q, want %q", loc, wantLocation)
	}
	flashes := responseFlashes(t, resp)
	if len(flashes) != 1 {
		t.Fatalf("flashes = %+v, want exactly one", flashes)
	}
	if flashes[0].Category != wantCategory || flashes[0].Message != wantMessage {
		t.Errorf("flash = %+v, want {%s %q}", flashes[0], wantCategory, wantMessage)
	}
}

func findSetCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
