package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/habitrack/internal/model"
)

// MemoryStore はプロセス内メモリに習慣と達成記録を保持するストア。
// 開発・テスト用途で、HabitRepositoryとHabitLogRepositoryの両方を実装する。
// 全操作を単一のミューテックスで直列化するため、Upsertはアトミックになる。
type MemoryStore struct {
	mu     sync.RWMutex
	habits map[string]memoryHabit
	logs   map[logKey]model.HabitLog
	seq    int64
	now    func() time.Time
}

// memoryHabit は作成順序を保持するための内部表現。
// 同一時刻に作成された習慣の並び順を安定させる。
type memoryHabit struct {
	habit model.Habit
	seq   int64
}

type logKey struct {
	habitID string
	date    string
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		habits: make(map[string]memoryHabit),
		logs:   make(map[logKey]model.HabitLog),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PingContext は常に成功する。
func (s *MemoryStore) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// Create は習慣を作成する。
func (s *MemoryStore) Create(ctx context.Context, h *model.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.habits[h.ID] = memoryHabit{habit: *h, seq: s.seq}
	return nil
}

// FindByID は指定IDの習慣を取得する。見つからない場合はnilを返す。
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mh, ok := s.habits[id]
	if !ok {
		return nil, nil
	}
	h := mh.habit
	return &h, nil
}

// ListByOwner は所有者の習慣一覧をcreated_at降順で返す。
func (s *MemoryStore) ListByOwner(ctx context.Context, owner string, status model.HabitStatus) ([]model.Habit, error) {
	s.mu.RLock()
	matched := make([]memoryHabit, 0)
	for _, mh := range s.habits {
		if mh.habit.Owner != owner {
			continue
		}
		if status != "" && mh.habit.Status != status {
			continue
		}
		matched = append(matched, mh)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].habit.CreatedAt.Equal(matched[j].habit.CreatedAt) {
			return matched[i].habit.CreatedAt.After(matched[j].habit.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	habits := make([]model.Habit, len(matched))
	for i, mh := range matched {
		habits[i] = mh.habit
	}
	return habits, nil
}

// Update は許可リストのフィールドのみを更新し、更新後の習慣を返す。
func (s *MemoryStore) Update(ctx context.Context, id string, u model.HabitUpdate) (*model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mh, ok := s.habits[id]
	if !ok {
		return nil, nil
	}
	if !u.IsEmpty() {
		u.Apply(&mh.habit)
		mh.habit.UpdatedAt = s.now()
		s.habits[id] = mh
	}
	h := mh.habit
	return &h, nil
}

// Delete は指定IDの習慣を削除する。達成記録は残る。
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.habits, id)
	return nil
}

// Upsert は(habitID, date)をキーに達成記録をUPSERTする。
func (s *MemoryStore) Upsert(ctx context.Context, habitID, date string, completed bool) (*model.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := logKey{habitID: habitID, date: date}

	log, ok := s.logs[key]
	if !ok {
		log = model.HabitLog{
			ID:        uuid.New().String(),
			HabitID:   habitID,
			Date:      date,
			CreatedAt: now,
		}
	}
	log.Completed = completed
	log.UpdatedAt = now
	s.logs[key] = log

	return &log, nil
}

// ListByHabit は習慣の達成記録をdate昇順で返す。
func (s *MemoryStore) ListByHabit(ctx context.Context, habitID string) ([]model.HabitLog, error) {
	s.mu.RLock()
	logs := make([]model.HabitLog, 0)
	for key, log := range s.logs {
		if key.habitID == habitID {
			logs = append(logs, log)
		}
	}
	s.mu.RUnlock()

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date < logs[j].Date
	})
	return logs, nil
}

// CountOrphans は削除済みの習慣を参照している達成記録の件数を返す。
func (s *MemoryStore) CountOrphans(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for key := range s.logs {
		if _, ok := s.habits[key.habitID]; !ok {
			count++
		}
	}
	return count, nil
}

// DeleteOrphans は削除済みの習慣を参照している達成記録を削除する。
func (s *MemoryStore) DeleteOrphans(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key := range s.logs {
		if _, ok := s.habits[key.habitID]; !ok {
			delete(s.logs, key)
			deleted++
		}
	}
	return deleted, nil
}

// compile-time interface checks
var _ HabitRepository = (*MemoryStore)(nil)
var _ HabitLogRepository = (*MemoryStore)(nil)
var _ Pinger = (*MemoryStore)(nil)
