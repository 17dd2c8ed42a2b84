package model

// FlashCategory はフラッシュメッセージの表示種別。
type FlashCategory string

const (
	FlashSuccess FlashCategory = "success"
	FlashInfo    FlashCategory = "info"
	FlashWarning FlashCategory = "warning"
	FlashDanger  FlashCategory = "danger"
)

// Flash は次の画面表示で一度だけ表示するメッセージ。
// テンプレート側でHTMLエスケープされる前提のプレーンテキストを保持する。
type Flash struct {
	Category FlashCategory `json:"c"`
	Message  string        `json:"m"`
}
