package handler

import (
	"context"

	"github.com/hitoshi/habitrack/internal/habit"
	"github.com/hitoshi/habitrack/internal/model"
)

// HabitEventRecorder はドメインイベントのメトリクス記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type HabitEventRecorder interface {
	RecordHabitCreated()
	RecordHabitMarked(completed bool)
}

// HabitServiceAdapter は habit.Service を HabitServiceInterface に適合させるアダプタ。
// 作成・達成記録の成功時にメトリクスを記録する。
type HabitServiceAdapter struct {
	svc      *habit.Service
	recorder HabitEventRecorder
}

// NewHabitServiceAdapter はHabitServiceAdapterを生成する。recorderはnilでもよい。
func NewHabitServiceAdapter(svc *habit.Service, recorder HabitEventRecorder) *HabitServiceAdapter {
	return &HabitServiceAdapter{svc: svc, recorder: recorder}
}

// CreateHabit は習慣を作成する。
func (a *HabitServiceAdapter) CreateHabit(ctx context.Context, in habit.CreateInput) (*model.Habit, error) {
	h, err := a.svc.CreateHabit(ctx, in)
	if err != nil {
		return nil, err
	}
	if a.recorder != nil {
		a.recorder.RecordHabitCreated()
	}
	return h, nil
}

// ListHabits は所有者の習慣一覧を返す。
func (a *HabitServiceAdapter) ListHabits(ctx context.Context, owner, status string) ([]model.Habit, error) {
	return a.svc.ListHabits(ctx, owner, status)
}

// UpdateHabit は習慣を更新する。
func (a *HabitServiceAdapter) UpdateHabit(ctx context.Context, habitID string, in habit.UpdateInput) (*model.Habit, error) {
	return a.svc.UpdateHabit(ctx, habitID, in)
}

// DeleteHabit は習慣を削除する。
func (a *HabitServiceAdapter) DeleteHabit(ctx context.Context, habitID string) error {
	return a.svc.DeleteHabit(ctx, habitID)
}

// MarkHabit は達成記録をUPSERTする。
func (a *HabitServiceAdapter) MarkHabit(ctx context.Context, habitID string, in habit.MarkInput) (*model.HabitLog, error) {
	log, err := a.svc.MarkHabit(ctx, habitID, in)
	if err != nil {
		return nil, err
	}
	if a.recorder != nil {
		a.recorder.RecordHabitMarked(log.Completed)
	}
	return log, nil
}

// ListLogs は達成記録を返す。
func (a *HabitServiceAdapter) ListLogs(ctx context.Context, habitID string) ([]model.HabitLog, error) {
	return a.svc.ListLogs(ctx, habitID)
}

// GetStats は達成統計を返す。
func (a *HabitServiceAdapter) GetStats(ctx context.Context, habitID string) (*model.HabitStats, error) {
	return a.svc.GetStats(ctx, habitID)
}

// compile-time interface check
var _ HabitServiceInterface = (*HabitServiceAdapter)(nil)
