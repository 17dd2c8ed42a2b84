// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は予約フォームの自由記述欄からHTMLを取り除き、
// プレーンテキストとして保存できる形にする。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力のプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はすべてのHTMLタグを除去したテキストを返す。
	// script, styleは中身ごと除去する。
	// 出力はエスケープされていない素のテキストで、表示時のエスケープはテンプレートに任せる。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有してよい。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないStrictPolicyでTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを除去し、bluemondayが付与したエンティティを元に戻す。
// 戻さないとテンプレートで二重にエスケープされる。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(raw))
}
