package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/habitrack/internal/model"
)

const habitColumns = `id, title, description, frequency, status, owner, created_at, updated_at`

// SQLHabitRepo はSQLデータベース（PostgreSQL/SQLite）を使用した習慣リポジトリ。
type SQLHabitRepo struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLHabitRepo はSQLHabitRepoを生成する。
func NewSQLHabitRepo(db *sql.DB, dialect Dialect) *SQLHabitRepo {
	return &SQLHabitRepo{db: db, dialect: dialect}
}

// NewPostgresHabitRepo はPostgreSQL用のSQLHabitRepoを生成する。
func NewPostgresHabitRepo(db *sql.DB) *SQLHabitRepo {
	return NewSQLHabitRepo(db, DialectPostgres)
}

// Create は習慣を作成する。
func (r *SQLHabitRepo) Create(ctx context.Context, h *model.Habit) error {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(
		`INSERT INTO habits (`+habitColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		h.ID, h.Title, h.Description, string(h.Frequency), string(h.Status), h.Owner, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("習慣の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの習慣を取得する。見つからない場合はnilを返す。
func (r *SQLHabitRepo) FindByID(ctx context.Context, id string) (*model.Habit, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.rebind(
		`SELECT `+habitColumns+` FROM habits WHERE id = $1`),
		id,
	)

	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("習慣の取得に失敗しました: %w", err)
	}
	return h, nil
}

// ListByOwner は所有者の習慣一覧をcreated_at降順で返す。
func (r *SQLHabitRepo) ListByOwner(ctx context.Context, owner string, status model.HabitStatus) ([]model.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE owner = $1`
	args := []any{owner}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("習慣一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	habits := make([]model.Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("習慣行の読み取りに失敗しました: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("習慣一覧の走査に失敗しました: %w", err)
	}
	return habits, nil
}

// Update は許可リストのフィールドのみを更新し、更新後の習慣を返す。
// 更新対象のフィールドがない場合は現在の値をそのまま返す。
func (r *SQLHabitRepo) Update(ctx context.Context, id string, u model.HabitUpdate) (*model.Habit, error) {
	if u.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var sets []string
	args := []any{id}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Frequency != nil {
		add("frequency", string(*u.Frequency))
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	add("updated_at", time.Now().UTC())

	query := `UPDATE habits SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + habitColumns

	h, err := scanHabit(r.db.QueryRowContext(ctx, r.dialect.rebind(query), args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("習慣の更新に失敗しました: %w", err)
	}
	return h, nil
}

// Delete は指定IDの習慣を削除する。habit_logsは削除しない。
func (r *SQLHabitRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(
		`DELETE FROM habits WHERE id = $1`),
		id,
	)
	if err != nil {
		return fmt.Errorf("習慣の削除に失敗しました: %w", err)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(s rowScanner) (*model.Habit, error) {
	h := &model.Habit{}
	var frequency, status string
	if err := s.Scan(
		&h.ID, &h.Title, &h.Description, &frequency, &status, &h.Owner,
		timeScanner{&h.CreatedAt}, timeScanner{&h.UpdatedAt},
	); err != nil {
		return nil, err
	}
	h.Frequency = model.Frequency(frequency)
	h.Status = model.HabitStatus(status)
	return h, nil
}

// compile-time interface check
var _ HabitRepository = (*SQLHabitRepo)(nil)
