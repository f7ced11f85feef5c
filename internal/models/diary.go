package models

import "time"

// Diary is a single one-line journal entry.
type Diary struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_diaries_user_created,priority:1"` // Owning user ID.

	Content   string `gorm:"type:text;not null"`    // Entry text, at most 200 characters.
	Emotion   string `gorm:"type:text;not null"`    // One of the fixed emotion tags.
	Weather   string `gorm:"type:text;not null"`    // Weather tag.
	Mood      int    `gorm:"not null;default:5"`    // Mood score from 1 to 10.
	IsPrivate bool   `gorm:"not null;default:true"` // Whether the entry is hidden from others.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_diaries_user_created,priority:2"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`                                           // Last update timestamp.
}
