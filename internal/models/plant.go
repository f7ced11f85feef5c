package models

import "time"

// PlantStage names a tier of the plant growth ladder.
type PlantStage string

// PlantStage constants in growth order.
const (
	PlantStageSeed   PlantStage = "seed"
	PlantStageSprout PlantStage = "sprout"
	PlantStageStem   PlantStage = "stem"
	PlantStageLeaves PlantStage = "leaves"
	PlantStageTree   PlantStage = "tree"
	PlantStageFlower PlantStage = "flower"
	PlantStageFruit  PlantStage = "fruit"
)

// Plant tracks a user's virtual plant.
type Plant struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID.

	Type       PlantStage `gorm:"type:text;not null;default:'seed'"` // Current stage.
	Level      int        `gorm:"not null;default:1"`                // Stage index starting at 1.
	Experience int        `gorm:"not null;default:0"`                // Experience within the current stage.
	Name       string     `gorm:"type:text"`                         // Optional display name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
