package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/habitrack/internal/habit"
	"github.com/hitoshi/habitrack/internal/middleware"
	"github.com/hitoshi/habitrack/internal/model"
)

// maxBodyBytes はリクエストボディの上限。
const maxBodyBytes = 1 << 20

// HabitServiceInterface は習慣ハンドラーが必要とするサービスインターフェース。
type HabitServiceInterface interface {
	CreateHabit(ctx context.Context, in habit.CreateInput) (*model.Habit, error)
	ListHabits(ctx context.Context, owner, status string) ([]model.Habit, error)
	UpdateHabit(ctx context.Context, habitID string, in habit.UpdateInput) (*model.Habit, error)
	DeleteHabit(ctx context.Context, habitID string) error
	MarkHabit(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error)
	ListLogs(ctx context.Context, habitID string) ([]model.HabitLog, error)
	GetStats(ctx context.Context, habitID string) (*model.HabitStats, error)
}

// HabitHandler は習慣管理のHTTPハンドラー。
type HabitHandler struct {
	service HabitServiceInterface
}

// NewHabitHandler はHabitHandlerを生成する。
func NewHabitHandler(service HabitServiceInterface) *HabitHandler {
	return &HabitHandler{service: service}
}

// createHabitRequest は習慣作成リクエストのボディ。
type createHabitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Owner       string `json:"owner"`
}

// updateHabitRequest は習慣更新リクエストのボディ。
// userIdはオーナーガードでのみ使用し、ownerを含む許可リスト外のフィールドは無視する。
type updateHabitRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	Status      *string `json:"status"`
}

// markHabitRequest は達成記録リクエストのボディ。
type markHabitRequest struct {
	Date      string `json:"date"`
	Completed *bool  `json:"completed"`
}

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// decodeBody はJSONボディをデコードする。空ボディはゼロ値として扱う。
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return model.NewInvalidRequestError()
	}
	return nil
}

// CreateHabit は習慣を作成する。
// POST /api/habits
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleServiceError(w, "create habit", err)
		return
	}

	created, err := h.service.CreateHabit(r.Context(), habit.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
		Owner:       req.Owner,
	})
	if err != nil {
		handleServiceError(w, "create habit", err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListHabits はユーザーの習慣一覧を取得する。
// GET /api/habits/{id}?status=active|archived （idはユーザーID）
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "id")
	status := r.URL.Query().Get("status")

	habits, err := h.service.ListHabits(r.Context(), owner, status)
	if err != nil {
		handleServiceError(w, "list habits", err)
		return
	}

	writeJSON(w, http.StatusOK, habits)
}

// UpdateHabit は習慣を更新する。オーナーガードの後段に配置する。
// PUT /api/habits/{id}
func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "id")

	var req updateHabitRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleServiceError(w, "update habit", err)
		return
	}

	updated, err := h.service.UpdateHabit(r.Context(), habitID, habit.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, "update habit", err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteHabit は習慣を削除する。達成記録は削除しない。オーナーガードの後段に配置する。
// DELETE /api/habits/{id}
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "id")

	if err := h.service.DeleteHabit(r.Context(), habitID); err != nil {
		handleServiceError(w, "delete habit", err)
		return
	}

	// 達成記録は残るため、監査用に削除した習慣を記録する
	deleted, found := middleware.HabitFromContext(r.Context())
	userID, err := middleware.UserIDFromContext(r.Context())
	if found && err == nil {
		slog.Info("habit deleted",
			slog.String("habit_id", deleted.ID),
			slog.String("title", deleted.Title),
			slog.String("user_id", userID),
		)
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Habit deleted"})
}

// MarkHabit は指定日の達成記録をUPSERTする。オーナーガードの後段に配置する。
// POST /api/habits/{id}/mark
func (h *HabitHandler) MarkHabit(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "id")

	var req markHabitRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleServiceError(w, "mark habit", err)
		return
	}

	log, err := h.service.MarkHabit(r.Context(), habitID, habit.MarkInput{
		Date:      req.Date,
		Completed: req.Completed,
	})
	if err != nil {
		handleServiceError(w, "mark habit", err)
		return
	}

	writeJSON(w, http.StatusOK, log)
}

// ListLogs は習慣の達成記録を日付の昇順で取得する。
// GET /api/habits/{id}/logs
func (h *HabitHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "id")

	logs, err := h.service.ListLogs(r.Context(), habitID)
	if err != nil {
		handleServiceError(w, "list logs", err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// GetStats は習慣の達成統計を取得する。
// GET /api/habits/{id}/stats
func (h *HabitHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "id")

	stats, err := h.service.GetStats(r.Context(), habitID)
	if err != nil {
		handleServiceError(w, "get stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
