package middleware

import (
	"net/http"
	"strings"
)

// NewCORSMiddleware は習慣APIのCORSミドルウェアを返す。
// allowedOriginsはカンマ区切りのオリジン一覧で、"*"を含むか空の場合は全オリジンを許可する。
// 一覧指定時はリクエストのOriginが一致した場合のみそのOriginを返す。
// 呼び出し元はボディのuserIdで識別するため、credentialsは許可しない。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	allowAll, origins := parseOrigins(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Add("Vary", "Origin")
				if origin := r.Header.Get("Origin"); origins[origin] {
					h.Set("Access-Control-Allow-Origin", origin)
				}
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Max-Age", "86400")

			// プリフライトはルーティング・レート制限の前で終える
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(raw string) (bool, map[string]bool) {
	origins := make(map[string]bool)
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return true, nil
		}
		if o != "" {
			origins[o] = true
		}
	}
	return len(origins) == 0, origins
}
