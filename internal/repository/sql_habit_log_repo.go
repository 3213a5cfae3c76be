package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/habitrack/internal/model"
)

const habitLogColumns = `id, habit_id, date, completed, created_at, updated_at`

// SQLHabitLogRepo はSQLデータベース（PostgreSQL/SQLite）を使用した達成記録リポジトリ。
type SQLHabitLogRepo struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLHabitLogRepo はSQLHabitLogRepoを生成する。
func NewSQLHabitLogRepo(db *sql.DB, dialect Dialect) *SQLHabitLogRepo {
	return &SQLHabitLogRepo{db: db, dialect: dialect}
}

// NewPostgresHabitLogRepo はPostgreSQL用のSQLHabitLogRepoを生成する。
func NewPostgresHabitLogRepo(db *sql.DB) *SQLHabitLogRepo {
	return NewSQLHabitLogRepo(db, DialectPostgres)
}

// Upsert は(habit_id, date)をキーに達成記録をUPSERTする。
// UNIQUE(habit_id, date)制約を利用したINSERT ON CONFLICTで実装するため、
// 同一キーへの並行書き込みでも記録は1件に保たれる。
func (r *SQLHabitLogRepo) Upsert(ctx context.Context, habitID, date string, completed bool) (*model.HabitLog, error) {
	now := time.Now().UTC()

	row := r.db.QueryRowContext(ctx, r.dialect.rebind(
		`INSERT INTO habit_logs (`+habitLogColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (habit_id, date) DO UPDATE SET
		     completed = EXCLUDED.completed,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+habitLogColumns),
		uuid.New().String(), habitID, date, completed, now,
	)

	log, err := scanHabitLog(row)
	if err != nil {
		return nil, fmt.Errorf("達成記録のUPSERTに失敗しました: %w", err)
	}
	return log, nil
}

// ListByHabit は習慣の達成記録をdate昇順で返す。
func (r *SQLHabitLogRepo) ListByHabit(ctx context.Context, habitID string) ([]model.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(
		`SELECT `+habitLogColumns+` FROM habit_logs WHERE habit_id = $1 ORDER BY date ASC`),
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("達成記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	logs := make([]model.HabitLog, 0)
	for rows.Next() {
		log, err := scanHabitLog(rows)
		if err != nil {
			return nil, fmt.Errorf("達成記録行の読み取りに失敗しました: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("達成記録一覧の走査に失敗しました: %w", err)
	}
	return logs, nil
}

// CountOrphans は削除済みの習慣を参照している達成記録の件数を返す。
func (r *SQLHabitLogRepo) CountOrphans(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habit_logs l
		 WHERE NOT EXISTS (SELECT 1 FROM habits h WHERE h.id = l.habit_id)`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("孤立した達成記録の集計に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteOrphans は削除済みの習慣を参照している達成記録を削除する。
func (r *SQLHabitLogRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM habit_logs
		 WHERE habit_id NOT IN (SELECT id FROM habits)`,
	)
	if err != nil {
		return 0, fmt.Errorf("孤立した達成記録の削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

func scanHabitLog(s rowScanner) (*model.HabitLog, error) {
	l := &model.HabitLog{}
	if err := s.Scan(&l.ID, &l.HabitID, &l.Date, &l.Completed, timeScanner{&l.CreatedAt}, timeScanner{&l.UpdatedAt}); err != nil {
		return nil, err
	}
	return l, nil
}

// compile-time interface check
var _ HabitLogRepository = (*SQLHabitLogRepo)(nil)
