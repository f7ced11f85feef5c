package garden

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/journal"
	"github.com/onelinediary/server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxManualExperience bounds a single experience grant through the plant endpoint.
const MaxManualExperience = 100

var (
	// ErrUnknownAchievement indicates an achievement type outside Definitions.
	ErrUnknownAchievement = errors.New("unknown achievement type")
	// ErrInvalidExperience indicates a non-positive or oversized experience grant.
	ErrInvalidExperience = errors.New("experience must be between 1 and 100")
)

// DiaryResult is the gamification outcome of writing a diary.
type DiaryResult struct {
	Plant           models.Plant
	LeveledUp       bool
	NewAchievements []models.Achievement
}

// Store persists plants and achievements.
type Store struct {
	db      *gorm.DB
	diaries *journal.Store
}

// NewStore constructs a garden Store reading diary state through diaries.
func NewStore(db *gorm.DB, diaries *journal.Store) *Store {
	return &Store{db: db, diaries: diaries}
}

// WithDB returns a copy of the store bound to db, typically a transaction.
func (s *Store) WithDB(db *gorm.DB) *Store {
	if s == nil {
		return nil
	}
	return &Store{db: db, diaries: s.diaries.WithDB(db)}
}

// Plant returns the user's plant, creating a seed when none exists.
func (s *Store) Plant(ctx context.Context, userID uint64) (models.Plant, error) {
	var plant models.Plant
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, errEnsure := ensurePlant(tx, userID)
		if errEnsure != nil {
			return errEnsure
		}
		plant = p
		return nil
	})
	if errTx != nil {
		return models.Plant{}, errTx
	}
	return plant, nil
}

// CreatePlant inserts the initial plant for userID if it does not exist yet.
func CreatePlant(tx *gorm.DB, userID uint64) error {
	plant := NewPlant(userID)
	if errCreate := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&plant).Error; errCreate != nil {
		return fmt.Errorf("garden: create plant: %w", errCreate)
	}
	return nil
}

func ensurePlant(tx *gorm.DB, userID uint64) (models.Plant, error) {
	if errCreate := CreatePlant(tx, userID); errCreate != nil {
		return models.Plant{}, errCreate
	}
	var plant models.Plant
	if errFind := db.ForUpdate(tx).Where("user_id = ?", userID).Take(&plant).Error; errFind != nil {
		return models.Plant{}, fmt.Errorf("garden: load plant: %w", errFind)
	}
	return plant, nil
}

// Grow adds experience to the plant and optionally renames it.
func (s *Store) Grow(ctx context.Context, userID uint64, amount int, name string) (models.Plant, bool, error) {
	if amount <= 0 || amount > MaxManualExperience {
		return models.Plant{}, false, ErrInvalidExperience
	}
	return s.grow(ctx, userID, amount, strings.TrimSpace(name))
}

func (s *Store) grow(ctx context.Context, userID uint64, amount int, name string) (models.Plant, bool, error) {
	var (
		plant     models.Plant
		leveledUp bool
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, errEnsure := ensurePlant(tx, userID)
		if errEnsure != nil {
			return errEnsure
		}
		next, up := AddExperience(current, amount)
		updates := map[string]any{
			"type":       next.Type,
			"level":      next.Level,
			"experience": next.Experience,
			"updated_at": time.Now().UTC(),
		}
		if name != "" {
			next.Name = name
			updates["name"] = name
		}
		if errUpdate := tx.Model(&models.Plant{}).Where("id = ?", current.ID).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("garden: update plant: %w", errUpdate)
		}
		plant = next
		leveledUp = up
		return nil
	})
	if errTx != nil {
		return models.Plant{}, false, errTx
	}
	return plant, leveledUp, nil
}

// Achievements lists the user's unlocked achievements, oldest first.
func (s *Store) Achievements(ctx context.Context, userID uint64) ([]models.Achievement, error) {
	var rows []models.Achievement
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("garden: list achievements: %w", errFind)
	}
	return rows, nil
}

// Progress recomputes achievement progress from current diary and plant state.
func (s *Store) Progress(ctx context.Context, userID uint64) (Progress, error) {
	total, errCount := s.diaries.Count(ctx, userID)
	if errCount != nil {
		return nil, errCount
	}
	recent, errRecent := s.diaries.RecentDates(ctx, userID)
	if errRecent != nil {
		return nil, errRecent
	}
	emotions, errEmotions := s.diaries.DistinctEmotions(ctx, userID)
	if errEmotions != nil {
		return nil, errEmotions
	}
	var plant models.Plant
	level := 0
	errPlant := s.db.WithContext(ctx).Select("level").Where("user_id = ?", userID).Take(&plant).Error
	switch {
	case errPlant == nil:
		level = plant.Level
	case !errors.Is(errPlant, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("garden: load plant level: %w", errPlant)
	}
	snap := Snapshot{
		TotalDiaries:     total,
		RecentDates:      recent,
		DistinctEmotions: emotions,
		PlantLevel:       level,
	}
	return ComputeProgress(snap, s.diaries.Now(), s.diaries.Location()), nil
}

// Unlock records def for userID once. It reports false when the achievement
// was already unlocked; the unique (user_id, type) index makes this race-free.
func (s *Store) Unlock(ctx context.Context, userID uint64, def Definition) (models.Achievement, bool, error) {
	if _, ok := LookupDefinition(def.Type); !ok {
		return models.Achievement{}, false, ErrUnknownAchievement
	}
	row := models.Achievement{
		UserID:      userID,
		Type:        def.Type,
		Title:       def.Title,
		Description: def.Description,
		Icon:        def.Icon,
		UnlockedAt:  time.Now().UTC(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return models.Achievement{}, false, fmt.Errorf("garden: unlock %s: %w", def.Type, res.Error)
	}
	return row, res.RowsAffected == 1, nil
}

// EvaluateAchievements unlocks every completed achievement not yet recorded.
func (s *Store) EvaluateAchievements(ctx context.Context, userID uint64) ([]models.Achievement, error) {
	progress, errProgress := s.Progress(ctx, userID)
	if errProgress != nil {
		return nil, errProgress
	}
	unlocked := make([]models.Achievement, 0)
	for _, typ := range progress.Completed() {
		def, _ := LookupDefinition(typ)
		row, created, errUnlock := s.Unlock(ctx, userID, def)
		if errUnlock != nil {
			return nil, errUnlock
		}
		if created {
			unlocked = append(unlocked, row)
		}
	}
	return unlocked, nil
}

// RecordDiary grows the plant by DiaryExperience and evaluates achievements.
func (s *Store) RecordDiary(ctx context.Context, userID uint64) (DiaryResult, error) {
	plant, leveledUp, errGrow := s.grow(ctx, userID, DiaryExperience, "")
	if errGrow != nil {
		return DiaryResult{}, errGrow
	}
	unlocked, errEval := s.EvaluateAchievements(ctx, userID)
	if errEval != nil {
		return DiaryResult{}, errEval
	}
	return DiaryResult{Plant: plant, LeveledUp: leveledUp, NewAchievements: unlocked}, nil
}
