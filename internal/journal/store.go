package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onelinediary/server/internal/models"
	"github.com/onelinediary/server/internal/settings"
	"gorm.io/gorm"
)

// ErrNotFound indicates the diary does not exist or belongs to another user.
var ErrNotFound = errors.New("diary not found")

// StreakWindowDays bounds how far back streaks are counted.
const StreakWindowDays = 30

// ListQuery selects diaries for the list endpoint. A zero Year or Month lists
// the most recent entries regardless of month.
type ListQuery struct {
	Year  int
	Month time.Month
	Limit int
}

// Store persists diary entries. Calendar logic uses loc.
type Store struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewStore constructs a diary Store.
func NewStore(db *gorm.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc, now: time.Now}
}

// WithDB returns a copy of the store bound to db, typically a transaction.
func (s *Store) WithDB(db *gorm.DB) *Store {
	if s == nil {
		return nil
	}
	clone := *s
	clone.db = db
	return &clone
}

// Location returns the calendar location of the store.
func (s *Store) Location() *time.Location { return s.loc }

// Now returns the store clock reading.
func (s *Store) Now() time.Time { return s.now() }

// Create validates and inserts a diary for userID.
func (s *Store) Create(ctx context.Context, userID uint64, in Input) (models.Diary, error) {
	normalized, errNormalize := in.Normalize()
	if errNormalize != nil {
		return models.Diary{}, errNormalize
	}
	now := s.now().UTC()
	diary := models.Diary{
		UserID:    userID,
		Content:   normalized.Content,
		Emotion:   normalized.Emotion,
		Weather:   normalized.Weather,
		Mood:      normalized.Mood,
		IsPrivate: *normalized.IsPrivate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := s.db.WithContext(ctx).Create(&diary).Error; errCreate != nil {
		return models.Diary{}, fmt.Errorf("journal: create diary: %w", errCreate)
	}
	return diary, nil
}

// Update replaces the content of a diary owned by userID.
func (s *Store) Update(ctx context.Context, userID, id uint64, in Input) (models.Diary, error) {
	normalized, errNormalize := in.Normalize()
	if errNormalize != nil {
		return models.Diary{}, errNormalize
	}
	res := s.db.WithContext(ctx).
		Model(&models.Diary{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"content":    normalized.Content,
			"emotion":    normalized.Emotion,
			"weather":    normalized.Weather,
			"mood":       normalized.Mood,
			"is_private": *normalized.IsPrivate,
			"updated_at": s.now().UTC(),
		})
	if res.Error != nil {
		return models.Diary{}, fmt.Errorf("journal: update diary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Diary{}, ErrNotFound
	}
	var diary models.Diary
	if errFind := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&diary).Error; errFind != nil {
		return models.Diary{}, fmt.Errorf("journal: reload diary: %w", errFind)
	}
	return diary, nil
}

// Delete removes a diary owned by userID.
func (s *Store) Delete(ctx context.Context, userID, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Diary{})
	if res.Error != nil {
		return fmt.Errorf("journal: delete diary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns diaries newest first. With a month, rows are fetched over the
// wide MonthWindow and then filtered to the exact local month before the limit applies.
func (s *Store) List(ctx context.Context, userID uint64, q ListQuery) ([]models.Diary, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = settings.DefaultDiaryListLimit
	}
	if limit > settings.MaxDiaryListLimit {
		limit = settings.MaxDiaryListLimit
	}

	if q.Year == 0 || q.Month == 0 {
		var rows []models.Diary
		if errFind := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Limit(limit).
			Find(&rows).Error; errFind != nil {
			return nil, fmt.Errorf("journal: list diaries: %w", errFind)
		}
		return rows, nil
	}

	rows, errMonth := s.monthRows(ctx, userID, q.Year, q.Month, "created_at DESC, id DESC")
	if errMonth != nil {
		return nil, errMonth
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Month returns every diary of the local calendar month, oldest first.
func (s *Store) Month(ctx context.Context, userID uint64, year int, month time.Month) ([]models.Diary, error) {
	return s.monthRows(ctx, userID, year, month, "created_at ASC, id ASC")
}

func (s *Store) monthRows(ctx context.Context, userID uint64, year int, month time.Month, order string) ([]models.Diary, error) {
	start, end := MonthWindow(year, month, s.loc)
	var rows []models.Diary
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order(order).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("journal: query month window: %w", errFind)
	}
	return FilterMonth(rows, year, month, s.loc), nil
}

// Today returns the newest diary written on the current local day, or nil.
func (s *Store) Today(ctx context.Context, userID uint64) (*models.Diary, error) {
	start, end := DayBounds(s.now(), s.loc)
	var diary models.Diary
	errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at DESC, id DESC").
		Take(&diary).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, fmt.Errorf("journal: find today diary: %w", errFind)
	}
	return &diary, nil
}

// Count returns the number of diaries written by userID.
func (s *Store) Count(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.Diary{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("journal: count diaries: %w", errCount)
	}
	return count, nil
}

// RecentDates returns creation times of diaries within the streak window.
func (s *Store) RecentDates(ctx context.Context, userID uint64) ([]time.Time, error) {
	start, _ := DayBounds(s.now().AddDate(0, 0, -StreakWindowDays), s.loc)
	var rows []models.Diary
	if errFind := s.db.WithContext(ctx).
		Select("created_at").
		Where("user_id = ? AND created_at >= ?", userID, start).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("journal: recent dates: %w", errFind)
	}
	dates := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.CreatedAt)
	}
	return dates, nil
}

// DistinctEmotions returns the number of distinct emotion tags userID has used.
func (s *Store) DistinctEmotions(ctx context.Context, userID uint64) (int, error) {
	var emotions []string
	if errPluck := s.db.WithContext(ctx).
		Model(&models.Diary{}).
		Where("user_id = ?", userID).
		Distinct("emotion").
		Pluck("emotion", &emotions).Error; errPluck != nil {
		return 0, fmt.Errorf("journal: distinct emotions: %w", errPluck)
	}
	return len(emotions), nil
}

// Stats aggregates the local calendar month for userID.
func (s *Store) Stats(ctx context.Context, userID uint64, year int, month time.Month) (Stats, error) {
	rows, errMonth := s.Month(ctx, userID, year, month)
	if errMonth != nil {
		return Stats{}, errMonth
	}
	recent, errRecent := s.RecentDates(ctx, userID)
	if errRecent != nil {
		return Stats{}, errRecent
	}
	total, errCount := s.Count(ctx, userID)
	if errCount != nil {
		return Stats{}, errCount
	}
	return ComputeStats(rows, recent, total, s.now(), s.loc), nil
}
