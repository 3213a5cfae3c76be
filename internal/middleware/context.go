// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"

	"github.com/hitoshi/habitrack/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はオーナーガードで検証済みのユーザーIDを格納するキー。
	userIDContextKey = contextKey("user_id")
	// habitContextKey はオーナーガードで解決済みの習慣を格納するキー。
	habitContextKey = contextKey("habit")
	// requestInfoContextKey はロギングミドルウェアが下流から情報を受け取るためのキー。
	requestInfoContextKey = contextKey("request_info")
)

// requestInfo は下流のミドルウェアが書き込み、ロギングミドルウェアが読み取る値。
// 1リクエストを処理するゴルーチン内でのみ使用する。
type requestInfo struct {
	userID string
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// オーナーガードを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok {
		info.userID = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}

// HabitFromContext はオーナーガードが解決した習慣を取得する。
func HabitFromContext(ctx context.Context) (*model.Habit, bool) {
	h, ok := ctx.Value(habitContextKey).(*model.Habit)
	return h, ok && h != nil
}

// ContextWithHabit はコンテキストに習慣を注入する。
func ContextWithHabit(ctx context.Context, h *model.Habit) context.Context {
	return context.WithValue(ctx, habitContextKey, h)
}
