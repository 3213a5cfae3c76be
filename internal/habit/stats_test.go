package habit

import (
	"testing"

	"github.com/hitoshi/habitrack/internal/model"
	"github.com/stretchr/testify/assert"
)

func logsOf(completed ...bool) []model.HabitLog {
	logs := make([]model.HabitLog, len(completed))
	for i, c := range completed {
		logs[i] = model.HabitLog{Completed: c}
	}
	return logs
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name string
		logs []model.HabitLog
		want model.HabitStats
	}{
		{name: "記録なしは0", logs: nil, want: model.HabitStats{}},
		{name: "全て達成は100", logs: logsOf(true, true, true), want: model.HabitStats{TotalDaysTracked: 3, DaysCompleted: 3, CompletionRate: 100}},
		{name: "全て未達成は0", logs: logsOf(false, false), want: model.HabitStats{TotalDaysTracked: 2, DaysCompleted: 0, CompletionRate: 0}},
		{name: "1/3は33に切り捨て", logs: logsOf(true, false, false), want: model.HabitStats{TotalDaysTracked: 3, DaysCompleted: 1, CompletionRate: 33}},
		{name: "2/3は67に切り上げ", logs: logsOf(true, true, false), want: model.HabitStats{TotalDaysTracked: 3, DaysCompleted: 2, CompletionRate: 67}},
		{name: "1/8の12.5は13", logs: logsOf(true, false, false, false, false, false, false, false), want: model.HabitStats{TotalDaysTracked: 8, DaysCompleted: 1, CompletionRate: 13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.logs))
		})
	}
}
