package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, habit, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingFields    = "MISSING_FIELDS"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidFrequency = "INVALID_FREQUENCY"
	ErrCodeInvalidStatus    = "INVALID_STATUS"
	ErrCodeInvalidTitle     = "INVALID_TITLE"
	ErrCodeDateRequired     = "DATE_REQUIRED"
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeUserIDRequired   = "USER_ID_REQUIRED"
	ErrCodeHabitNotFound    = "HABIT_NOT_FOUND"
	ErrCodeNotHabitOwner    = "NOT_HABIT_OWNER"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewMissingFieldsError は習慣作成時の必須フィールド不足エラーを生成する。
// どのフィールドが不足しているかは区別しない。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Missing required fields: title, owner, frequency",
		Category: "validation",
		Action:   "title、owner、frequencyを指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidFrequencyError は無効な頻度エラーを生成する。
func NewInvalidFrequencyError(frequency string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFrequency,
		Message:  fmt.Sprintf("無効な頻度です: %s", frequency),
		Category: "validation",
		Action:   "frequencyには daily または weekly を指定してください。",
	}
}

// NewInvalidStatusError は無効な状態エラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な状態です: %s", status),
		Category: "validation",
		Action:   "statusには active または archived を指定してください。",
	}
}

// NewInvalidTitleError は空のタイトルへの更新エラーを生成する。
func NewInvalidTitleError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTitle,
		Message:  "titleを空にすることはできません。",
		Category: "validation",
		Action:   "1文字以上のtitleを指定してください。",
	}
}

// NewDateRequiredError は記録日の未指定エラーを生成する。
func NewDateRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeDateRequired,
		Message:  "date is required (YYYY-MM-DD)",
		Category: "validation",
		Action:   "dateをYYYY-MM-DD形式で指定してください。",
	}
}

// NewInvalidDateError は記録日の書式エラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", date),
		Category: "validation",
		Action:   "dateをYYYY-MM-DD形式の実在する日付で指定してください。",
	}
}

// NewUserIDRequiredError は呼び出し元ユーザーIDの未指定エラーを生成する。
func NewUserIDRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeUserIDRequired,
		Message:  "userId is required",
		Category: "auth",
		Action:   "リクエストボディにuserIdを指定してください。",
	}
}

// NewHabitNotFoundError は習慣未検出エラーを生成する。
func NewHabitNotFoundError(habitID string) *APIError {
	return &APIError{
		Code:     ErrCodeHabitNotFound,
		Message:  fmt.Sprintf("Habit not found: %s", habitID),
		Category: "habit",
		Action:   "習慣IDを確認してください。",
	}
}

// NewNotHabitOwnerError は所有者以外による変更操作のエラーを生成する。
func NewNotHabitOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotHabitOwner,
		Message:  "Forbidden: not habit owner",
		Category: "auth",
		Action:   "習慣の所有者のuserIdで操作してください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError(retryAfterSec int) *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   fmt.Sprintf("%d秒待ってから再度お試しください。", retryAfterSec),
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
