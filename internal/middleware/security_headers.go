package middleware

import "net/http"

// NewSecurityHeadersMiddleware は習慣APIのレスポンスにセキュリティヘッダーを付与するミドルウェアを返す。
// レスポンスはJSONかプレーンテキストのみで、ブラウザに描画・埋め込み・キャッシュさせない。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			// 習慣・達成記録は更新頻度が高く、ユーザーごとに異なる
			h.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
