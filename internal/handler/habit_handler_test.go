package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/habitrack/internal/habit"
	"github.com/hitoshi/habitrack/internal/middleware"
	"github.com/hitoshi/habitrack/internal/model"
)

// --- モック定義 ---

// mockHabitService はHabitServiceInterfaceのモック実装。
type mockHabitService struct {
	createHabitFn func(ctx context.Context, in habit.CreateInput) (*model.Habit, error)
	listHabitsFn  func(ctx context.Context, owner, status string) ([]model.Habit, error)
	updateHabitFn func(ctx context.Context, habitID string, in habit.UpdateInput) (*model.Habit, error)
	deleteHabitFn func(ctx context.Context, habitID string) error
	markHabitFn   func(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error)
	listLogsFn    func(ctx context.Context, habitID string) ([]model.HabitLog, error)
	getStatsFn    func(ctx context.Context, habitID string) (*model.HabitStats, error)
}

func (m *mockHabitService) CreateHabit(ctx context.Context, in habit.CreateInput) (*model.Habit, error) {
	return m.createHabitFn(ctx, in)
}
func (m *mockHabitService) ListHabits(ctx context.Context, owner, status string) ([]model.Habit, error) {
	return m.listHabitsFn(ctx, owner, status)
}
func (m *mockHabitService) UpdateHabit(ctx context.Context, habitID string, in habit.UpdateInput) (*model.Habit, error) {
	return m.updateHabitFn(ctx, habitID, in)
}
func (m *mockHabitService) DeleteHabit(ctx context.Context, habitID string) error {
	return m.deleteHabitFn(ctx, habitID)
}
func (m *mockHabitService) MarkHabit(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error) {
	return m.markHabitFn(ctx, habitID, in)
}
func (m *mockHabitService) ListLogs(ctx context.Context, habitID string) ([]model.HabitLog, error) {
	return m.listLogsFn(ctx, habitID)
}
func (m *mockHabitService) GetStats(ctx context.Context, habitID string) (*model.HabitStats, error) {
	return m.getStatsFn(ctx, habitID)
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- CreateHabit ---

func TestHabitHandler_CreateHabit_Success(t *testing.T) {
	var gotInput habit.CreateInput
	svc := &mockHabitService{
		createHabitFn: func(ctx context.Context, in habit.CreateInput) (*model.Habit, error) {
			gotInput = in
			return &model.Habit{
				ID:        "habit-1",
				Title:     in.Title,
				Frequency: model.Frequency(in.Frequency),
				Status:    model.HabitStatusActive,
				Owner:     in.Owner,
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	h := NewHabitHandler(svc)

	req := jsonRequest(http.MethodPost, "/api/habits", `{"title":"Run","frequency":"daily","owner":"u1"}`)
	w := httptest.NewRecorder()
	h.CreateHabit(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if gotInput.Title != "Run" || gotInput.Owner != "u1" || gotInput.Frequency != "daily" {
		t.Errorf("service input = %+v", gotInput)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	for _, key := range []string{"id", "title", "description", "frequency", "status", "owner", "createdAt", "updatedAt"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	if resp["status"] != "active" {
		t.Errorf("status = %v, want active", resp["status"])
	}
}

func TestHabitHandler_CreateHabit_InvalidJSON(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{})

	w := httptest.NewRecorder()
	h.CreateHabit(w, jsonRequest(http.MethodPost, "/api/habits", `{"title":`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
	}
}

func TestHabitHandler_CreateHabit_ValidationError(t *testing.T) {
	svc := &mockHabitService{
		createHabitFn: func(ctx context.Context, in habit.CreateInput) (*model.Habit, error) {
			return nil, model.NewMissingFieldsError()
		},
	}
	h := NewHabitHandler(svc)

	w := httptest.NewRecorder()
	h.CreateHabit(w, jsonRequest(http.MethodPost, "/api/habits", `{}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := parseAPIErrorResponse(t, w)
	if body["message"] != "Missing required fields: title, owner, frequency" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestHabitHandler_CreateHabit_StoreError(t *testing.T) {
	svc := &mockHabitService{
		createHabitFn: func(ctx context.Context, in habit.CreateInput) (*model.Habit, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	h := NewHabitHandler(svc)

	w := httptest.NewRecorder()
	h.CreateHabit(w, jsonRequest(http.MethodPost, "/api/habits", `{"title":"Run","frequency":"daily","owner":"u1"}`))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := parseAPIErrorResponse(t, w)
	if body["message"] != "Server error" {
		t.Errorf("message = %q, want generic message", body["message"])
	}
}

// --- ListHabits ---

func TestHabitHandler_ListHabits(t *testing.T) {
	var gotOwner, gotStatus string
	svc := &mockHabitService{
		listHabitsFn: func(ctx context.Context, owner, status string) ([]model.Habit, error) {
			gotOwner, gotStatus = owner, status
			return []model.Habit{}, nil
		},
	}
	h := NewHabitHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/habits/u1?status=archived", nil)
	req = withChiURLParam(req, "id", "u1")
	w := httptest.NewRecorder()
	h.ListHabits(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotOwner != "u1" || gotStatus != "archived" {
		t.Errorf("owner=%q status=%q", gotOwner, gotStatus)
	}
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestHabitHandler_ListHabits_InvalidStatus(t *testing.T) {
	svc := &mockHabitService{
		listHabitsFn: func(ctx context.Context, owner, status string) ([]model.Habit, error) {
			return nil, model.NewInvalidStatusError(status)
		},
	}
	h := NewHabitHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/habits/u1?status=x", nil), "id", "u1")
	w := httptest.NewRecorder()
	h.ListHabits(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- UpdateHabit ---

func TestHabitHandler_UpdateHabit_IgnoresOwnerAndUserID(t *testing.T) {
	var gotInput habit.UpdateInput
	svc := &mockHabitService{
		updateHabitFn: func(ctx context.Context, habitID string, in habit.UpdateInput) (*model.Habit, error) {
			gotInput = in
			return &model.Habit{ID: habitID, Title: *in.Title, Owner: "u1"}, nil
		},
	}
	h := NewHabitHandler(svc)

	req := jsonRequest(http.MethodPut, "/api/habits/h1", `{"userId":"u1","owner":"u2","title":"Walk"}`)
	req = withChiURLParam(req, "id", "h1")
	w := httptest.NewRecorder()
	h.UpdateHabit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotInput.Title == nil || *gotInput.Title != "Walk" {
		t.Errorf("title = %v, want Walk", gotInput.Title)
	}
	if gotInput.Description != nil || gotInput.Frequency != nil || gotInput.Status != nil {
		t.Errorf("unexpected fields in update: %+v", gotInput)
	}
}

func TestHabitHandler_UpdateHabit_InvalidFrequency(t *testing.T) {
	svc := &mockHabitService{
		updateHabitFn: func(ctx context.Context, habitID string, in habit.UpdateInput) (*model.Habit, error) {
			return nil, model.NewInvalidFrequencyError(*in.Frequency)
		},
	}
	h := NewHabitHandler(svc)

	req := withChiURLParam(jsonRequest(http.MethodPut, "/api/habits/h1", `{"userId":"u1","frequency":"yearly"}`), "id", "h1")
	w := httptest.NewRecorder()
	h.UpdateHabit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- DeleteHabit ---

func TestHabitHandler_DeleteHabit(t *testing.T) {
	var deleted string
	svc := &mockHabitService{
		deleteHabitFn: func(ctx context.Context, habitID string) error {
			deleted = habitID
			return nil
		},
	}
	h := NewHabitHandler(svc)

	req := withChiURLParam(jsonRequest(http.MethodDelete, "/api/habits/h1", `{"userId":"u1"}`), "id", "h1")
	w := httptest.NewRecorder()
	h.DeleteHabit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if deleted != "h1" {
		t.Errorf("deleted = %q, want h1", deleted)
	}
	var resp messageResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "Habit deleted" {
		t.Errorf("message = %q, want %q", resp.Message, "Habit deleted")
	}
}

// captureDefaultLogger はテスト中のグローバルロガー出力をバッファに差し替える。
func captureDefaultLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	return &buf
}

func TestHabitHandler_DeleteHabit_LogsGuardedCaller(t *testing.T) {
	buf := captureDefaultLogger(t)
	h := NewHabitHandler(&mockHabitService{
		deleteHabitFn: func(ctx context.Context, habitID string) error { return nil },
	})

	req := withChiURLParam(jsonRequest(http.MethodDelete, "/api/habits/h1", `{"userId":"u1"}`), "id", "h1")
	ctx := middleware.ContextWithUserID(req.Context(), "u1")
	ctx = middleware.ContextWithHabit(ctx, &model.Habit{ID: "h1", Title: "Run", Owner: "u1"})
	w := httptest.NewRecorder()
	h.DeleteHabit(w, req.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "habit deleted" || entry["habit_id"] != "h1" || entry["user_id"] != "u1" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestHabitHandler_DeleteHabit_NoLogWithoutGuardContext(t *testing.T) {
	buf := captureDefaultLogger(t)
	h := NewHabitHandler(&mockHabitService{
		deleteHabitFn: func(ctx context.Context, habitID string) error { return nil },
	})

	// 習慣のみでユーザーIDがない場合も記録しない
	req := withChiURLParam(jsonRequest(http.MethodDelete, "/api/habits/h1", `{}`), "id", "h1")
	ctx := middleware.ContextWithHabit(req.Context(), &model.Habit{ID: "h1", Owner: "u1"})
	w := httptest.NewRecorder()
	h.DeleteHabit(w, req.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output, got %q", buf.String())
	}
}

// --- MarkHabit ---

func TestHabitHandler_MarkHabit(t *testing.T) {
	var gotInput habit.MarkInput
	svc := &mockHabitService{
		markHabitFn: func(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error) {
			gotInput = in
			return &model.HabitLog{ID: "log-1", HabitID: habitID, Date: in.Date, Completed: false}, nil
		},
	}
	h := NewHabitHandler(svc)

	req := withChiURLParam(jsonRequest(http.MethodPost, "/api/habits/h1/mark", `{"userId":"u1","date":"2024-01-01","completed":false}`), "id", "h1")
	w := httptest.NewRecorder()
	h.MarkHabit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotInput.Date != "2024-01-01" {
		t.Errorf("date = %q", gotInput.Date)
	}
	if gotInput.Completed == nil || *gotInput.Completed {
		t.Errorf("completed = %v, want explicit false", gotInput.Completed)
	}

	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["habitId"] != "h1" || resp["completed"] != false {
		t.Errorf("response = %v", resp)
	}
}

func TestHabitHandler_MarkHabit_OmittedCompletedIsNil(t *testing.T) {
	var gotInput habit.MarkInput
	svc := &mockHabitService{
		markHabitFn: func(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error) {
			gotInput = in
			return &model.HabitLog{HabitID: habitID, Date: in.Date, Completed: true}, nil
		},
	}
	h := NewHabitHandler(svc)

	req := withChiURLParam(jsonRequest(http.MethodPost, "/api/habits/h1/mark", `{"userId":"u1","date":"2024-01-01"}`), "id", "h1")
	h.MarkHabit(httptest.NewRecorder(), req)

	if gotInput.Completed != nil {
		t.Errorf("completed = %v, want nil so the service applies the default", *gotInput.Completed)
	}
}

func TestHabitHandler_MarkHabit_DateRequired(t *testing.T) {
	svc := &mockHabitService{
		markHabitFn: func(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error) {
			return nil, model.NewDateRequiredError()
		},
	}
	h := NewHabitHandler(svc)

	req := withChiURLParam(jsonRequest(http.MethodPost, "/api/habits/h1/mark", `{"userId":"u1"}`), "id", "h1")
	w := httptest.NewRecorder()
	h.MarkHabit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := parseAPIErrorResponse(t, w); body["message"] != "date is required (YYYY-MM-DD)" {
		t.Errorf("message = %q", body["message"])
	}
}

// --- ListLogs / GetStats ---

func TestHabitHandler_ListLogs(t *testing.T) {
	svc := &mockHabitService{
		listLogsFn: func(ctx context.Context, habitID string) ([]model.HabitLog, error) {
			return []model.HabitLog{
				{HabitID: habitID, Date: "2024-01-01", Completed: true},
				{HabitID: habitID, Date: "2024-01-02", Completed: false},
			}, nil
		},
	}
	h := NewHabitHandler(svc)

	w := httptest.NewRecorder()
	h.ListLogs(w, withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/habits/h1/logs", nil), "id", "h1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var logs []model.HabitLog
	if err := json.NewDecoder(w.Body).Decode(&logs); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(logs) != 2 || logs[0].Date != "2024-01-01" {
		t.Errorf("logs = %+v", logs)
	}
}

func TestHabitHandler_GetStats(t *testing.T) {
	svc := &mockHabitService{
		getStatsFn: func(ctx context.Context, habitID string) (*model.HabitStats, error) {
			return &model.HabitStats{TotalDaysTracked: 4, DaysCompleted: 3, CompletionRate: 75}, nil
		},
	}
	h := NewHabitHandler(svc)

	w := httptest.NewRecorder()
	h.GetStats(w, withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/habits/h1/stats", nil), "id", "h1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]int
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["totalDaysTracked"] != 4 || resp["daysCompleted"] != 3 || resp["completionRate"] != 75 {
		t.Errorf("stats = %v", resp)
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewMissingFieldsError(), http.StatusBadRequest},
		{model.NewInvalidDateError("x"), http.StatusBadRequest},
		{model.NewUserIDRequiredError(), http.StatusBadRequest},
		{model.NewNotHabitOwnerError(), http.StatusForbidden},
		{model.NewHabitNotFoundError("h"), http.StatusNotFound},
		{model.NewRateLimitExceededError(2), http.StatusTooManyRequests},
		{model.NewInternalError(), http.StatusInternalServerError},
		{&model.APIError{Code: "UNKNOWN"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
