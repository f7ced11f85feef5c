package garden

import "github.com/onelinediary/server/internal/models"

// DiaryExperience is granted for every diary written.
const DiaryExperience = 2

// MaxLevel is the final stage index.
const MaxLevel = 7

type stage struct {
	kind      models.PlantStage
	threshold int
}

// stages is ordered by level; threshold is the experience needed to leave the stage.
var stages = []stage{
	{kind: models.PlantStageSeed, threshold: 10},
	{kind: models.PlantStageSprout, threshold: 20},
	{kind: models.PlantStageStem, threshold: 40},
	{kind: models.PlantStageLeaves, threshold: 80},
	{kind: models.PlantStageTree, threshold: 160},
	{kind: models.PlantStageFlower, threshold: 320},
	{kind: models.PlantStageFruit, threshold: 640},
}

// Threshold returns the experience needed to advance from level.
func Threshold(level int) int {
	return stages[clampLevel(level)-1].threshold
}

// StageForLevel returns the stage name of level.
func StageForLevel(level int) models.PlantStage {
	return stages[clampLevel(level)-1].kind
}

// NewPlant returns the initial plant of a new account.
func NewPlant(userID uint64) models.Plant {
	return models.Plant{
		UserID:     userID,
		Type:       models.PlantStageSeed,
		Level:      1,
		Experience: 0,
	}
}

// AddExperience adds amount to the plant and reports whether it advanced a stage.
// A plant advances at most one stage per call and leftover experience is dropped.
// At MaxLevel experience stays at 0.
func AddExperience(p models.Plant, amount int) (models.Plant, bool) {
	p.Level = clampLevel(p.Level)
	p.Type = StageForLevel(p.Level)
	if amount <= 0 {
		return p, false
	}
	if p.Level >= MaxLevel {
		p.Experience = 0
		return p, false
	}
	p.Experience += amount
	if p.Experience < Threshold(p.Level) {
		return p, false
	}
	p.Level++
	p.Type = StageForLevel(p.Level)
	p.Experience = 0
	return p, true
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
