package handler

import (
	"net/http"

	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/view"
)

const adminPath = "/admin"

// AdminHandler は管理画面のHTTPハンドラー。
// すべてのルートはRequireAdminミドルウェアの内側に配置する。
// 更新系の操作は結果に関わらずフラッシュを付けて管理画面へリダイレクトする。
type AdminHandler struct {
	pages        *pageWriter
	appointments AppointmentServiceInterface
	catalog      CatalogServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(
	renderer view.Renderer,
	flashes *middleware.FlashStore,
	appointments AppointmentServiceInterface,
	catalog CatalogServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		pages:        &pageWriter{renderer: renderer, flashes: flashes},
		appointments: appointments,
		catalog:      catalog,
	}
}

// Dashboard は予約一覧とサービス一覧を表示する。
// GET /admin
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointments.List(r.Context())
	if err != nil {
		h.pages.serverError(w, r, err)
		return
	}
	services, err := h.catalog.ListServices(r.Context(), repository.ServiceOrderByID)
	if err != nil {
		h.pages.serverError(w, r, err)
		return
	}

	h.pages.render(w, r, http.StatusOK, view.PageAdmin, &view.PageData{
		Appointments: appointments,
		Services:     services,
		Statuses:     model.AppointmentStatuses,
	})
}

// UpdateStatus は予約のステータスを変更する。
// POST /admin/update_status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PostFormValue("appointment_id"), "appointment_id")
	if err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	status := model.AppointmentStatus(r.PostFormValue("status"))
	if err := h.appointments.UpdateStatus(r.Context(), id, status); err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	h.success(w, r, "Appointment status updated successfully!")
}

// DeleteAppointment は予約を削除する。
// POST /admin/delete_appointment
func (h *AdminHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PostFormValue("appointment_id"), "appointment_id")
	if err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	if err := h.appointments.Delete(r.Context(), id); err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	h.success(w, r, "Appointment deleted successfully!")
}

// AddService はサービスを追加する。
// POST /admin/add_service
func (h *AdminHandler) AddService(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.CreateService(r.Context(), r.PostFormValue("title"), r.PostFormValue("description")); err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	h.success(w, r, "Service added successfully!")
}

// EditService はサービスのタイトルと説明を更新する。
// POST /admin/edit_service
func (h *AdminHandler) EditService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PostFormValue("service_id"), "service_id")
	if err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	if _, err := h.catalog.UpdateService(r.Context(), id, r.PostFormValue("title"), r.PostFormValue("description")); err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	h.success(w, r, "Service updated successfully!")
}

// DeleteService はサービスを削除する。予約から参照されている場合は拒否される。
// POST /admin/delete_service
func (h *AdminHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PostFormValue("service_id"), "service_id")
	if err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	if err := h.catalog.DeleteService(r.Context(), id); err != nil {
		h.pages.fail(w, r, adminPath, err)
		return
	}

	h.success(w, r, "Service deleted successfully!")
}

func (h *AdminHandler) success(w http.ResponseWriter, r *http.Request, message string) {
	h.pages.redirect(w, r, adminPath, model.Flash{Category: model.FlashSuccess, Message: message})
}
