package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/brightsmile/internal/appointment"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/view"
)

// AppointmentHandler は公開の予約フォームのHTTPハンドラー。
type AppointmentHandler struct {
	pages        *pageWriter
	appointments AppointmentServiceInterface
	catalog      CatalogServiceInterface
	now          func() time.Time
}

// NewAppointmentHandler はAppointmentHandlerを生成する。
func NewAppointmentHandler(
	renderer view.Renderer,
	flashes *middleware.FlashStore,
	appointments AppointmentServiceInterface,
	catalog CatalogServiceInterface,
) *AppointmentHandler {
	return &AppointmentHandler{
		pages:        &pageWriter{renderer: renderer, flashes: flashes},
		appointments: appointments,
		catalog:      catalog,
		now:          time.Now,
	}
}

// Form は予約フォームを表示する。サービスはタイトル順で選択肢に並べる。
// GET /appointment
func (h *AppointmentHandler) Form(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context(), repository.ServiceOrderByTitle)
	if err != nil {
		h.pages.serverError(w, r, err)
		return
	}

	h.pages.render(w, r, http.StatusOK, view.PageAppointment, &view.PageData{
		Services: services,
		MinDate:  h.now().Format(appointment.DateLayout),
	})
}

// Submit は予約リクエストを受け付ける。
// 成功時は完了ページへ、失敗時はフラッシュを付けてフォームへリダイレクトする。
// POST /appointment
func (h *AppointmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	in := appointment.CreateInput{
		Name:      r.PostFormValue("name"),
		Phone:     r.PostFormValue("phone"),
		Email:     r.PostFormValue("email"),
		ServiceID: r.PostFormValue("service_id"),
		Date:      r.PostFormValue("date"),
		Time:      r.PostFormValue("time"),
		Message:   r.PostFormValue("message"),
	}

	a, err := h.appointments.Create(r.Context(), in)
	if err != nil {
		h.pages.fail(w, r, "/appointment", err)
		return
	}

	slog.Info("appointment requested",
		slog.Int64("appointment_id", a.ID),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	http.Redirect(w, r, "/success", http.StatusFound)
}
