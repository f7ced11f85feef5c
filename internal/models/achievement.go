package models

import "time"

// AchievementType identifies an unlockable achievement.
type AchievementType string

// Known achievement types.
const (
	AchievementFirstDiary    AchievementType = "first_diary"
	AchievementWeekStreak    AchievementType = "week_streak"
	AchievementMonthStreak   AchievementType = "month_streak"
	AchievementEmotionMaster AchievementType = "emotion_master"
	AchievementPlantGrower   AchievementType = "plant_grower"
)

// Achievement records a one-time unlock per user and type.
type Achievement struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64          `gorm:"not null;uniqueIndex:idx_achievements_user_type,priority:1"`           // Owning user ID.
	Type   AchievementType `gorm:"type:text;not null;uniqueIndex:idx_achievements_user_type,priority:2"` // Achievement type.

	Title       string `gorm:"type:text;not null"` // Display title.
	Description string `gorm:"type:text"`          // Display description.
	Icon        string `gorm:"type:text"`          // Display icon.

	UnlockedAt time.Time `gorm:"not null"` // Unlock timestamp.
}
