// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は習慣のタイトル・説明文に含まれるHTMLを除去し、
// クライアントでの表示時にマークアップが解釈されないようにする。
// bluemondayのStrictPolicyを使用して全てのタグを取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はプレーンテキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizerService interface {
	// Sanitize は全てのHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// タグ以外の文字（&や<を含む通常の文字列）はそのまま保持する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は多重エスケープされた入力を展開する上限回数。
const maxSanitizePasses = 8

// Sanitize はHTMLタグを除去したテキストを返す。
// StrictPolicyは結果をHTMLエスケープするため、プレーンテキストに戻す。
// 戻した結果にエンティティ由来のタグが現れることがあるので、出力が変化しなくなるまで繰り返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	current := raw
	for i := 0; i < maxSanitizePasses; i++ {
		next := s.pass(current)
		if next == current {
			return next
		}
		current = next
	}

	// 収束しない入力はエスケープ済みのまま返し、タグを残さない
	return strings.TrimSpace(s.policy.Sanitize(current))
}

// pass はタグ除去とエンティティ展開を1回行う。
func (s *textSanitizer) pass(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}
