package journal

import (
	"math"
	"time"

	"github.com/onelinediary/server/internal/models"
)

// MoodStats summarizes mood scores of a period.
type MoodStats struct {
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

// DailyMood is one chart point.
type DailyMood struct {
	Date    string `json:"date"`
	Mood    int    `json:"mood"`
	Emotion string `json:"emotion"`
}

// Stats is the monthly statistics payload.
type Stats struct {
	EmotionStats    map[string]int `json:"emotionStats,omitempty"`
	MoodStats       MoodStats      `json:"moodStats"`
	DailyMood       []DailyMood    `json:"dailyMood,omitempty"`
	Streak          int            `json:"streak"`
	TotalEntries    int64          `json:"totalEntries"`
	MonthEntries    int            `json:"monthEntries"`
	PremiumRequired bool           `json:"premiumRequired"`
}

// ComputeStats builds Stats from the month's diaries (oldest first), recent
// creation times for the streak, and the lifetime total.
func ComputeStats(month []models.Diary, recent []time.Time, total int64, now time.Time, loc *time.Location) Stats {
	stats := Stats{
		EmotionStats: make(map[string]int),
		DailyMood:    make([]DailyMood, 0, len(month)),
		Streak:       Streak(recent, now, loc, StreakWindowDays),
		TotalEntries: total,
		MonthEntries: len(month),
	}
	if len(month) == 0 {
		return stats
	}

	sum := 0
	stats.MoodStats.Min = month[0].Mood
	stats.MoodStats.Max = month[0].Mood
	for _, d := range month {
		stats.EmotionStats[d.Emotion]++
		sum += d.Mood
		if d.Mood < stats.MoodStats.Min {
			stats.MoodStats.Min = d.Mood
		}
		if d.Mood > stats.MoodStats.Max {
			stats.MoodStats.Max = d.Mood
		}
		stats.DailyMood = append(stats.DailyMood, DailyMood{
			Date:    DayKey(d.CreatedAt, loc),
			Mood:    d.Mood,
			Emotion: d.Emotion,
		})
	}
	stats.MoodStats.Average = math.Round(float64(sum)/float64(len(month))*10) / 10
	return stats
}

// Redact drops per-entry detail for accounts without premium.
func (s Stats) Redact() Stats {
	s.EmotionStats = nil
	s.DailyMood = nil
	s.PremiumRequired = true
	return s
}
