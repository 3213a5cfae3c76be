// Package habit は習慣管理のドメインロジックを提供する。
//
// 所有者の検証はHTTP層のオーナーガードが担当し、
// このパッケージは入力検証・サニタイズ・永続化・統計算出を扱う。
package habit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/habitrack/internal/model"
	"github.com/hitoshi/habitrack/internal/repository"
)

// Sanitizer はタイトル・説明文のHTMLを除去するインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service は習慣管理のサービス層。
type Service struct {
	habitRepo repository.HabitRepository
	logRepo   repository.HabitLogRepository
	sanitizer Sanitizer
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
// sanitizerがnilの場合は前後の空白除去のみを行う。
func NewService(
	habitRepo repository.HabitRepository,
	logRepo repository.HabitLogRepository,
	sanitizer Sanitizer,
) *Service {
	return &Service{
		habitRepo: habitRepo,
		logRepo:   logRepo,
		sanitizer: sanitizer,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

func (s *Service) clean(v string) string {
	if s.sanitizer != nil {
		v = s.sanitizer.Sanitize(v)
	}
	return strings.TrimSpace(v)
}

// CreateHabit は習慣を作成する。statusは常にactiveで作成される。
func (s *Service) CreateHabit(ctx context.Context, in CreateInput) (*model.Habit, error) {
	in.Title = s.clean(in.Title)
	in.Description = s.clean(in.Description)
	in.Owner = strings.TrimSpace(in.Owner)
	in.Frequency = strings.TrimSpace(in.Frequency)

	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now()
	h := &model.Habit{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Frequency:   model.Frequency(in.Frequency),
		Status:      model.HabitStatusActive,
		Owner:       in.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.habitRepo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("習慣の作成に失敗しました: %w", err)
	}
	return h, nil
}

// ListHabits は所有者の習慣一覧を作成日時の降順で返す。
// statusが空の場合は全ての状態を返す。
func (s *Service) ListHabits(ctx context.Context, owner, status string) ([]model.Habit, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}

	habits, err := s.habitRepo.ListByOwner(ctx, owner, model.HabitStatus(status))
	if err != nil {
		return nil, fmt.Errorf("習慣一覧の取得に失敗しました: %w", err)
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	return habits, nil
}

// UpdateHabit は許可リストのフィールドを更新し、更新後の習慣を返す。
func (s *Service) UpdateHabit(ctx context.Context, habitID string, in UpdateInput) (*model.Habit, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	var u model.HabitUpdate
	if in.Title != nil {
		title := s.clean(*in.Title)
		if title == "" {
			return nil, model.NewInvalidTitleError()
		}
		u.Title = &title
	}
	if in.Description != nil {
		desc := s.clean(*in.Description)
		u.Description = &desc
	}
	if in.Frequency != nil {
		f := model.Frequency(*in.Frequency)
		u.Frequency = &f
	}
	if in.Status != nil {
		st := model.HabitStatus(*in.Status)
		u.Status = &st
	}

	h, err := s.habitRepo.Update(ctx, habitID, u)
	if err != nil {
		return nil, fmt.Errorf("習慣の更新に失敗しました: %w", err)
	}
	if h == nil {
		return nil, model.NewHabitNotFoundError(habitID)
	}
	return h, nil
}

// DeleteHabit は習慣を削除する。達成記録は削除しない。
func (s *Service) DeleteHabit(ctx context.Context, habitID string) error {
	if err := s.habitRepo.Delete(ctx, habitID); err != nil {
		return fmt.Errorf("習慣の削除に失敗しました: %w", err)
	}
	return nil
}

// MarkHabit は指定日の達成記録をUPSERTする。同じ日付への再記録は上書きになる。
func (s *Service) MarkHabit(ctx context.Context, habitID string, in MarkInput) (*model.HabitLog, error) {
	in.Date = strings.TrimSpace(in.Date)
	if err := validateMark(in); err != nil {
		return nil, err
	}

	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}

	log, err := s.logRepo.Upsert(ctx, habitID, in.Date, completed)
	if err != nil {
		return nil, fmt.Errorf("達成記録の保存に失敗しました: %w", err)
	}
	return log, nil
}

// ListLogs は習慣の達成記録を日付の昇順で返す。
func (s *Service) ListLogs(ctx context.Context, habitID string) ([]model.HabitLog, error) {
	logs, err := s.logRepo.ListByHabit(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("達成記録の取得に失敗しました: %w", err)
	}
	if logs == nil {
		logs = []model.HabitLog{}
	}
	return logs, nil
}

// GetStats は習慣の達成統計を返す。
func (s *Service) GetStats(ctx context.Context, habitID string) (*model.HabitStats, error) {
	logs, err := s.logRepo.ListByHabit(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("達成記録の取得に失敗しました: %w", err)
	}
	stats := ComputeStats(logs)
	return &stats, nil
}
