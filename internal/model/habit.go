// Package model はドメインモデルを定義する。
package model

import "time"

// Frequency は習慣の実施頻度を表す。
type Frequency string

const (
	// FrequencyDaily は毎日実施する習慣。
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly は毎週実施する習慣。
	FrequencyWeekly Frequency = "weekly"
)

// Valid はFrequencyが定義済みの値かどうかを返す。
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// HabitStatus は習慣の状態を表す。
type HabitStatus string

const (
	// HabitStatusActive は記録中の習慣。
	HabitStatusActive HabitStatus = "active"
	// HabitStatusArchived はアーカイブ済みの習慣。
	HabitStatusArchived HabitStatus = "archived"
)

// Valid はHabitStatusが定義済みの値かどうかを返す。
func (s HabitStatus) Valid() bool {
	return s == HabitStatusActive || s == HabitStatusArchived
}

// Habit はユーザーが所有する習慣を表す。
// Ownerは作成時に決まり、以後変更されない。
type Habit struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Frequency   Frequency   `json:"frequency"`
	Status      HabitStatus `json:"status"`
	Owner       string      `json:"owner"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// HabitUpdate は習慣の部分更新内容を表す。
// nilフィールドは変更しない。更新可能なフィールドはこの4つのみ。
type HabitUpdate struct {
	Title       *string
	Description *string
	Frequency   *Frequency
	Status      *HabitStatus
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (u HabitUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Frequency == nil && u.Status == nil
}

// Apply は更新内容をHabitに反映する。
func (u HabitUpdate) Apply(h *Habit) {
	if u.Title != nil {
		h.Title = *u.Title
	}
	if u.Description != nil {
		h.Description = *u.Description
	}
	if u.Frequency != nil {
		h.Frequency = *u.Frequency
	}
	if u.Status != nil {
		h.Status = *u.Status
	}
}

// HabitLog は習慣の1日分の達成記録を表す。
// (HabitID, Date) の組は一意。
type HabitLog struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DateLayout はHabitLog.Dateの書式。
const DateLayout = "2006-01-02"

// HabitStats は習慣の達成統計を表す。
type HabitStats struct {
	TotalDaysTracked int `json:"totalDaysTracked"`
	DaysCompleted    int `json:"daysCompleted"`
	CompletionRate   int `json:"completionRate"`
}
