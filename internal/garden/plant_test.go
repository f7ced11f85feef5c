package garden

import (
	"testing"

	"github.com/onelinediary/server/internal/models"
)

func TestAddExperience_DiscardsLeftover(t *testing.T) {
	plant := models.Plant{Type: models.PlantStageSeed, Level: 1, Experience: 8}
	next, leveledUp := AddExperience(plant, 4)
	if !leveledUp {
		t.Fatalf("expected level up")
	}
	if next.Type != models.PlantStageSprout || next.Level != 2 {
		t.Fatalf("expected sprout level 2, got %s level %d", next.Type, next.Level)
	}
	if next.Experience != 0 {
		t.Fatalf("expected leftover experience discarded, got %d", next.Experience)
	}
}

func TestAddExperience_AdvancesOneStagePerCall(t *testing.T) {
	next, leveledUp := AddExperience(models.Plant{Level: 1}, 1000)
	if !leveledUp || next.Level != 2 || next.Experience != 0 {
		t.Fatalf("expected single stage advance, got level=%d exp=%d", next.Level, next.Experience)
	}
}

func TestAddExperience_FinalStagePinned(t *testing.T) {
	plant := models.Plant{Type: models.PlantStageFruit, Level: MaxLevel, Experience: 0}
	next, leveledUp := AddExperience(plant, 50)
	if leveledUp {
		t.Fatalf("expected no level up at final stage")
	}
	if next.Level != MaxLevel || next.Experience != 0 || next.Type != models.PlantStageFruit {
		t.Fatalf("expected pinned fruit, got %+v", next)
	}
}

func TestAddExperience_Invariants(t *testing.T) {
	plant := NewPlant(1)
	prevLevel := plant.Level
	for i := 0; i < 2000; i++ {
		amount := 1 + i%7
		plant, _ = AddExperience(plant, amount)
		if plant.Level < prevLevel {
			t.Fatalf("level decreased from %d to %d", prevLevel, plant.Level)
		}
		if plant.Experience < 0 || (plant.Level < MaxLevel && plant.Experience >= Threshold(plant.Level)) {
			t.Fatalf("experience %d out of range for level %d", plant.Experience, plant.Level)
		}
		if plant.Level == MaxLevel && plant.Experience != 0 {
			t.Fatalf("expected experience pinned at final stage, got %d", plant.Experience)
		}
		prevLevel = plant.Level
	}
	if plant.Level != MaxLevel {
		t.Fatalf("expected to reach final stage, got %d", plant.Level)
	}
}

func TestStageTable(t *testing.T) {
	want := []struct {
		stage     models.PlantStage
		threshold int
	}{
		{models.PlantStageSeed, 10},
		{models.PlantStageSprout, 20},
		{models.PlantStageStem, 40},
		{models.PlantStageLeaves, 80},
		{models.PlantStageTree, 160},
		{models.PlantStageFlower, 320},
		{models.PlantStageFruit, 640},
	}
	for i, w := range want {
		level := i + 1
		if StageForLevel(level) != w.stage || Threshold(level) != w.threshold {
			t.Fatalf("level %d: expected %s/%d, got %s/%d", level, w.stage, w.threshold, StageForLevel(level), Threshold(level))
		}
	}
}
