package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/habitrack/internal/model"
)

// ErrorResponseBody は習慣APIのエラーレスポンス本体。
// クライアントはmessageを表示し、codeで分岐する。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse はAPIErrorをstatusCodeで書き込む。
// ミドルウェア（オーナーガード、レート制限、リカバリ）とハンドラーで共通に使う。
// apiErrがnilの場合は内部エラーとして扱う。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	if apiErr == nil {
		statusCode, apiErr = http.StatusInternalServerError, model.NewInternalError()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は"Server error"の500レスポンスを書き込む。
// ストア障害等の詳細は呼び出し側でログに記録する。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
