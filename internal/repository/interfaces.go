// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/habitrack/internal/model"
)

// HabitRepository は習慣データの永続化インターフェース。
type HabitRepository interface {
	// Create は習慣を作成する。ID・タイムスタンプは呼び出し側で設定済みであること。
	Create(ctx context.Context, habit *model.Habit) error

	// FindByID は指定IDの習慣を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Habit, error)

	// ListByOwner は所有者の習慣一覧をcreated_at降順で返す。
	// statusが空文字列の場合は状態で絞り込まない。該当なしの場合は空スライスを返す。
	ListByOwner(ctx context.Context, owner string, status model.HabitStatus) ([]model.Habit, error)

	// Update は許可リストのフィールドのみを更新し、更新後の習慣を返す。
	// 見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update model.HabitUpdate) (*model.Habit, error)

	// Delete は指定IDの習慣を削除する。関連するHabitLogは削除しない。
	// 対象が存在しない場合もエラーにならない。
	Delete(ctx context.Context, id string) error
}

// HabitLogRepository は習慣の達成記録の永続化インターフェース。
type HabitLogRepository interface {
	// Upsert は(habitID, date)をキーに達成記録をアトミックにUPSERTする。
	// 同じキーで何度呼ばれても記録は1件のみ存在する。
	Upsert(ctx context.Context, habitID, date string, completed bool) (*model.HabitLog, error)

	// ListByHabit は習慣の達成記録をdate昇順で返す。該当なしの場合は空スライスを返す。
	ListByHabit(ctx context.Context, habitID string) ([]model.HabitLog, error)

	// CountOrphans は削除済みの習慣を参照している達成記録の件数を返す。
	CountOrphans(ctx context.Context) (int64, error)

	// DeleteOrphans は削除済みの習慣を参照している達成記録を削除し、削除件数を返す。
	DeleteOrphans(ctx context.Context) (int64, error)
}

// Pinger はストアの疎通確認インターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}
