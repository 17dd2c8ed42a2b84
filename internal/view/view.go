// Package view はサーバーサイドレンダリング用のHTMLテンプレートを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/hitoshi/brightsmile/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page は描画するページの識別子。テンプレートファイル名と対応する。
type Page string

const (
	PageIndex        Page = "index"
	PageAbout        Page = "about"
	PageServices     Page = "services"
	PageAppointment  Page = "appointment"
	PageSuccess      Page = "success"
	PageContact      Page = "contact"
	PageTestimonials Page = "testimonials"
	PageFAQ          Page = "faq"
	PageLogin        Page = "login"
	PageAdmin        Page = "admin"
	PageError        Page = "error"
)

// Pages は登録済みの全ページ。
var Pages = []Page{
	PageIndex, PageAbout, PageServices, PageAppointment, PageSuccess,
	PageContact, PageTestimonials, PageFAQ, PageLogin, PageAdmin,
	PageError,
}

// PageData はテンプレートに渡す値。
// 共通部分（フラッシュ、CSRFトークン、ログイン状態）はハンドラーが毎回設定する。
type PageData struct {
	Flashes   []model.Flash
	CSRFToken string
	Identity  *model.Identity

	Services     []model.Service
	Appointments []model.Appointment
	Statuses     []model.AppointmentStatus

	// LoginEmail はログイン失敗時にフォームへ戻す入力値。
	LoginEmail string

	// MinDate は予約フォームで選択できる最も早い日付（YYYY-MM-DD）。
	MinDate string
}

// Renderer はページを描画してレスポンスに書き込む。
type Renderer interface {
	Render(w http.ResponseWriter, status int, page Page, data *PageData) error
}

// Templates はページごとに解析済みのテンプレートを保持する。
type Templates struct {
	pages map[Page]*template.Template
}

var _ Renderer = (*Templates)(nil)

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// New は埋め込みテンプレートをすべて解析する。
// 各ページはlayout.htmlと組み合わせて個別のテンプレートセットになる。
func New() (*Templates, error) {
	t := &Templates{pages: make(map[Page]*template.Template, len(Pages))}
	for _, p := range Pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+string(p)+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", p, err)
		}
		t.pages[p] = tmpl
	}
	return t, nil
}

// Render はページをバッファに描画してから書き込む。
// 描画に失敗した場合はレスポンスに何も書かずにエラーを返す。
func (t *Templates) Render(w http.ResponseWriter, status int, page Page, data *PageData) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}
	if data == nil {
		data = &PageData{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler は/static/配下の埋め込みアセットを配信するハンドラーを返す。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
