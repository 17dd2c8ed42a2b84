package handler

import (
	"net/http"

	"github.com/hitoshi/brightsmile/internal/catalog"
	"github.com/hitoshi/brightsmile/internal/middleware"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/view"
)

// PageHandler は公開ページのHTTPハンドラー。
type PageHandler struct {
	pages   *pageWriter
	catalog CatalogServiceInterface
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(renderer view.Renderer, flashes *middleware.FlashStore, catalog CatalogServiceInterface) *PageHandler {
	return &PageHandler{
		pages:   &pageWriter{renderer: renderer, flashes: flashes},
		catalog: catalog,
	}
}

// Home はトップページを表示する。ID順で先頭のサービスのみを掲載する。
// GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListFeatured(r.Context(), catalog.FeaturedCount)
	if err != nil {
		h.pages.serverError(w, r, err)
		return
	}
	h.pages.render(w, r, http.StatusOK, view.PageIndex, &view.PageData{Services: services})
}

// Services はサービス一覧ページを表示する。
// GET /services
func (h *PageHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context(), repository.ServiceOrderByID)
	if err != nil {
		h.pages.serverError(w, r, err)
		return
	}
	h.pages.render(w, r, http.StatusOK, view.PageServices, &view.PageData{Services: services})
}

// Static はデータを持たないページを表示するハンドラーを返す。
// GET /about, /contact, /testimonials, /faq, /success
func (h *PageHandler) Static(page view.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.pages.render(w, r, http.StatusOK, page, nil)
	}
}
