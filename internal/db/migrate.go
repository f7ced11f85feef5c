package db

import (
	"fmt"

	"github.com/onelinediary/server/internal/models"
	"gorm.io/gorm"
)

// indexStatements are created after AutoMigrate on every dialect.
var indexStatements = []struct {
	name string
	sql  string
}{
	{
		name: "idx_subscriptions_one_active",
		sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active ON subscriptions (user_id) WHERE status = 'active'`,
	},
	{
		name: "idx_subscriptions_status_end",
		sql:  `CREATE INDEX IF NOT EXISTS idx_subscriptions_status_end ON subscriptions (status, end_date)`,
	},
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

func autoMigrate(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Diary{},
		&models.Plant{},
		&models.Achievement{},
		&models.Subscription{},
		&models.PaymentEvent{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	for _, stmt := range indexStatements {
		if errIndex := conn.Exec(stmt.sql).Error; errIndex != nil {
			return fmt.Errorf("db: create index %s: %w", stmt.name, errIndex)
		}
	}
	return migrateLegacyThemes(conn)
}

// migratePostgres applies PostgreSQL-specific schema updates and constraints.
func migratePostgres(conn *gorm.DB) error {
	if errAuto := autoMigrate(conn); errAuto != nil {
		return errAuto
	}
	if errCheck := conn.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_diaries_mood') THEN
				ALTER TABLE diaries ADD CONSTRAINT chk_diaries_mood CHECK (mood BETWEEN 1 AND 10);
			END IF;
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_plants_level') THEN
				ALTER TABLE plants ADD CONSTRAINT chk_plants_level CHECK (level BETWEEN 1 AND 7);
			END IF;
		END $$;
	`).Error; errCheck != nil {
		return fmt.Errorf("db: add check constraints: %w", errCheck)
	}
	return nil
}

// migrateSQLite applies the shared schema; SQLite cannot add CHECK constraints to existing tables.
func migrateSQLite(conn *gorm.DB) error {
	return autoMigrate(conn)
}

// migrateLegacyThemes moves themes stored as "theme_<name>" nicknames into the theme column.
func migrateLegacyThemes(conn *gorm.DB) error {
	var users []models.User
	if errFind := conn.Model(&models.User{}).
		Select("id", "nickname").
		Where("nickname LIKE ?", "theme_%").
		Find(&users).Error; errFind != nil {
		return fmt.Errorf("db: find legacy themes: %w", errFind)
	}
	for _, user := range users {
		theme, ok := legacyTheme(user.Nickname)
		if !ok {
			continue
		}
		if errUpdate := conn.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{"theme": theme, "nickname": ""}).Error; errUpdate != nil {
			return fmt.Errorf("db: migrate legacy theme for user %d: %w", user.ID, errUpdate)
		}
	}
	return nil
}

func legacyTheme(nickname string) (string, bool) {
	const prefix = "theme_"
	if len(nickname) <= len(prefix) || nickname[:len(prefix)] != prefix {
		return "", false
	}
	return nickname[len(prefix):], true
}
