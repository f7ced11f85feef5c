package garden

import (
	"math"
	"time"

	"github.com/onelinediary/server/internal/journal"
	"github.com/onelinediary/server/internal/models"
)

// Definition describes how an achievement is displayed.
type Definition struct {
	Type        models.AchievementType
	Title       string
	Description string
	Icon        string
}

// Definitions lists every known achievement in evaluation order.
var Definitions = []Definition{
	{Type: models.AchievementFirstDiary, Title: "첫 번째 일기", Description: "첫 번째 일기를 작성했습니다!", Icon: "🎉"},
	{Type: models.AchievementWeekStreak, Title: "일주일 연속", Description: "7일 연속으로 일기를 작성했습니다!", Icon: "🔥"},
	{Type: models.AchievementMonthStreak, Title: "한 달 연속", Description: "30일 연속으로 일기를 작성했습니다!", Icon: "🏆"},
	{Type: models.AchievementEmotionMaster, Title: "감정 마스터", Description: "모든 감정을 사용해보았습니다!", Icon: "😊"},
	{Type: models.AchievementPlantGrower, Title: "식물 키우기", Description: "식물을 최고 레벨까지 키웠습니다!", Icon: "/characters/lala-happy.png"},
}

// plantGrowerLevel is the plant level that completes plant_grower.
const plantGrowerLevel = 5

// LookupDefinition returns the definition of typ.
func LookupDefinition(typ models.AchievementType) (Definition, bool) {
	for _, def := range Definitions {
		if def.Type == typ {
			return def, true
		}
	}
	return Definition{}, false
}

// Snapshot is the state achievements are computed from.
type Snapshot struct {
	TotalDiaries     int64
	RecentDates      []time.Time
	DistinctEmotions int
	PlantLevel       int
}

// Progress maps achievement types to completion percentages in [0, 100].
type Progress map[models.AchievementType]float64

// ComputeProgress recomputes every achievement percentage from snap.
func ComputeProgress(snap Snapshot, now time.Time, loc *time.Location) Progress {
	progress := Progress{}
	if snap.TotalDiaries > 0 {
		progress[models.AchievementFirstDiary] = 100
	} else {
		progress[models.AchievementFirstDiary] = 0
	}

	streak := 0
	if snap.TotalDiaries > 0 {
		streak = journal.Streak(snap.RecentDates, now, loc, journal.StreakWindowDays)
	}
	progress[models.AchievementWeekStreak] = percent(streak, 7)
	progress[models.AchievementMonthStreak] = percent(streak, 30)
	progress[models.AchievementEmotionMaster] = percent(snap.DistinctEmotions, len(journal.Emotions))
	progress[models.AchievementPlantGrower] = percent(snap.PlantLevel, plantGrowerLevel)
	return progress
}

// Completed returns the types whose progress reached 100, in Definitions order.
func (p Progress) Completed() []models.AchievementType {
	var out []models.AchievementType
	for _, def := range Definitions {
		if p[def.Type] >= 100 {
			out = append(out, def.Type)
		}
	}
	return out
}

func percent(value, target int) float64 {
	if value <= 0 || target <= 0 {
		return 0
	}
	return math.Min(float64(value)/float64(target)*100, 100)
}
