package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/habitrack/internal/model"
)

// maxGuardBodyBytes はオーナーガードが読み取るリクエストボディの上限。
const maxGuardBodyBytes = 1 << 20

// HabitFinder は習慣の検索に必要なインターフェース。
// repository.HabitRepositoryの部分集合として定義する。
type HabitFinder interface {
	FindByID(ctx context.Context, id string) (*model.Habit, error)
}

// callerBody はリクエストボディのうち呼び出し元の識別に使うフィールド。
type callerBody struct {
	UserID string `json:"userId"`
}

// NewOwnerGuard は習慣の変更操作を所有者のみに制限するミドルウェアを返す。
// 習慣IDはURLパラメータparamから、呼び出し元のユーザーIDはJSONボディのuserIdから取得する。
// ボディは読み取り後に復元し、下流のハンドラーでも再度デコードできるようにする。
//
//   - userIdなし: 400
//   - 習慣が存在しない: 404
//   - 所有者不一致: 403
//   - ストア障害: 500
//
// 検証を通過した場合、解決済みの習慣とユーザーIDをコンテキストに注入する。
func NewOwnerGuard(finder HabitFinder, param string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(io.LimitReader(r.Body, maxGuardBodyBytes))
			if err != nil {
				WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))

			var body callerBody
			if len(bytes.TrimSpace(raw)) > 0 {
				if err := json.Unmarshal(raw, &body); err != nil {
					WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
					return
				}
			}
			userID := strings.TrimSpace(body.UserID)
			if userID == "" {
				WriteErrorResponse(w, http.StatusBadRequest, model.NewUserIDRequiredError())
				return
			}

			habitID := chi.URLParam(r, param)
			habit, err := finder.FindByID(r.Context(), habitID)
			if err != nil {
				slog.Error("owner guard lookup failed",
					slog.String("habit_id", habitID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if habit == nil {
				WriteErrorResponse(w, http.StatusNotFound, model.NewHabitNotFoundError(habitID))
				return
			}
			if habit.Owner != userID {
				slog.Warn("habit owner mismatch",
					slog.String("habit_id", habitID),
					slog.String("user_id", userID),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewNotHabitOwnerError())
				return
			}

			ctx := ContextWithUserID(r.Context(), userID)
			ctx = ContextWithHabit(ctx, habit)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
