// Package orphan は削除済みの習慣を参照し続ける達成記録（孤立ログ）の監査ジョブを提供する。
// 習慣の削除は達成記録をカスケード削除しないため、孤立ログの件数を定期的に計測し、
// 明示的に有効化された場合のみ削除する。
package orphan

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LogStore は孤立ログの計数と削除を行うストアのインターフェース。
// repository.HabitLogRepository が満たす。
type LogStore interface {
	CountOrphans(ctx context.Context) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

// GaugeSetter は孤立ログ件数をメトリクスへ反映するインターフェース。
type GaugeSetter interface {
	SetOrphanedLogs(count int64)
}

// AuditJob は孤立ログの監査ジョブ。
// Purge が false の場合は計数のみで、データは変更しない。
type AuditJob struct {
	store  LogStore
	gauge  GaugeSetter
	logger *slog.Logger
	Purge  bool
}

// NewAuditJob は新しいAuditJobを生成する。gaugeはnilでもよい。
func NewAuditJob(store LogStore, gauge GaugeSetter, logger *slog.Logger, purge bool) *AuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditJob{
		store:  store,
		gauge:  gauge,
		logger: logger,
		Purge:  purge,
	}
}

// Run は孤立ログを1回計数し、Purgeが有効なら削除する。
// 冪等: 孤立ログがない場合でもエラーにならない。
func (j *AuditJob) Run(ctx context.Context) error {
	start := time.Now()

	count, err := j.store.CountOrphans(ctx)
	if err != nil {
		j.logger.Error("孤立ログの計数に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("孤立ログの計数に失敗: %w", err)
	}

	var deleted int64
	if j.Purge && count > 0 {
		deleted, err = j.store.DeleteOrphans(ctx)
		if err != nil {
			j.logger.Error("孤立ログの削除に失敗しました",
				slog.String("error", err.Error()),
				slog.Int64("orphaned_count", count),
			)
			j.setGauge(count)
			return fmt.Errorf("孤立ログの削除に失敗: %w", err)
		}
	}

	j.setGauge(count - deleted)

	j.logger.Info("孤立ログ監査ジョブが完了しました",
		slog.Int64("orphaned_count", count),
		slog.Int64("deleted_count", deleted),
		slog.Bool("purge", j.Purge),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーで監査ジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *AuditJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("孤立ログ監査ジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Bool("purge", j.Purge),
	)

	j.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("孤立ログ監査ジョブを停止しました")
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

// runLogged はRunのエラーをログに残すのみで、ループは止めない。
func (j *AuditJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("孤立ログ監査を次回に持ち越します", slog.String("error", err.Error()))
	}
}

func (j *AuditJob) setGauge(v int64) {
	if j.gauge != nil {
		j.gauge.SetOrphanedLogs(v)
	}
}
