package middleware

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/brightsmile/internal/model"
)

const (
	flashCookieName = "flash"

	// flashMaxAge はフラッシュCookieの有効期間（秒）。次の画面表示で消費される想定。
	flashMaxAge = 60

	// maxFlashes は1つのCookieに保持するメッセージ数の上限。
	maxFlashes = 5
)

// FlashStore は次の画面表示で一度だけ表示するメッセージをCookieで受け渡す。
// 値はbase64url化したJSONで、HttpOnlyとして発行する。
type FlashStore struct {
	CookieSecure bool
	CookieDomain string
}

// NewFlashStore はFlashStoreを生成する。
func NewFlashStore(cookieSecure bool, cookieDomain string) *FlashStore {
	return &FlashStore{CookieSecure: cookieSecure, CookieDomain: cookieDomain}
}

// Add はメッセージを追加する。リクエストに未表示のメッセージがあれば引き継ぐ。
func (s *FlashStore) Add(w http.ResponseWriter, r *http.Request, flash model.Flash) {
	flashes := append(readFlashes(r), flash)
	if len(flashes) > maxFlashes {
		flashes = flashes[len(flashes)-maxFlashes:]
	}

	b, err := json.Marshal(flashes)
	if err != nil {
		slog.Error("failed to encode flash", slog.String("error", err.Error()))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		Domain:   s.CookieDomain,
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop は未表示のメッセージを取り出し、Cookieを削除する。
func (s *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []model.Flash {
	flashes := readFlashes(r)
	if _, err := r.Cookie(flashCookieName); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			Domain:   s.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return flashes
}

// readFlashes はリクエストのCookieからメッセージを復元する。
// 改ざんや形式不正の場合は空として扱う。
func readFlashes(r *http.Request) []model.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	b, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var flashes []model.Flash
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}

	valid := flashes[:0]
	for _, f := range flashes {
		switch f.Category {
		case model.FlashSuccess, model.FlashInfo, model.FlashWarning, model.FlashDanger:
			valid = append(valid, f)
		}
	}
	return valid
}
