package repository

import (
	"context"
	"database/sql"
)

// Store は習慣と達成記録のリポジトリ、およびその接続の寿命をまとめたもの。
// 起動時に明示的に生成し、ハンドラー・サービスに注入する。
// 終了時にはCloseで接続を解放する。
type Store struct {
	Habits HabitRepository
	Logs   HabitLogRepository

	pinger Pinger
	close  func() error
}

// NewSQLStore はSQLデータベース接続からStoreを生成する。
// Closeはdbを閉じる。
func NewSQLStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		Habits: NewSQLHabitRepo(db, dialect),
		Logs:   NewSQLHabitLogRepo(db, dialect),
		pinger: db,
		close:  db.Close,
	}
}

// NewMemoryBackedStore はMemoryStoreを使用したStoreを生成する。
func NewMemoryBackedStore() *Store {
	mem := NewMemoryStore()
	return &Store{
		Habits: mem,
		Logs:   mem,
		pinger: mem,
		close:  func() error { return nil },
	}
}

// PingContext は下位ストアの疎通を確認する。
func (s *Store) PingContext(ctx context.Context) error {
	return s.pinger.PingContext(ctx)
}

// Close は下位ストアの接続を閉じる。
func (s *Store) Close() error {
	return s.close()
}
