package middleware

import "net/http"

// NewNoCacheMiddleware はすべてのレスポンスをブラウザやプロキシにキャッシュさせないミドルウェアを返す。
// ログアウト後に戻るボタンで管理画面が表示されることを防ぐ。
func NewNoCacheMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			next.ServeHTTP(w, r)
		})
	}
}
