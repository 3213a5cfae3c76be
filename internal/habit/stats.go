package habit

import (
	"math"

	"github.com/hitoshi/habitrack/internal/model"
)

// ComputeStats は達成記録から統計を算出する。
// 達成率は100*達成日数/記録日数を整数に丸めた値。記録がない場合は0。
func ComputeStats(logs []model.HabitLog) model.HabitStats {
	stats := model.HabitStats{TotalDaysTracked: len(logs)}
	for _, l := range logs {
		if l.Completed {
			stats.DaysCompleted++
		}
	}
	if stats.TotalDaysTracked == 0 {
		return stats
	}
	rate := 100 * float64(stats.DaysCompleted) / float64(stats.TotalDaysTracked)
	stats.CompletionRate = int(math.Round(rate))
	return stats
}
