package models

import "time"

// AuthProviderCredentials marks accounts that sign in with email and password.
const AuthProviderCredentials = "credentials"

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email        string `gorm:"type:text;not null;uniqueIndex"`       // Unique login email, stored lowercase.
	PasswordHash string `gorm:"type:text"`                            // Bcrypt hash; empty for OAuth accounts.
	Name         string `gorm:"type:text"`                            // Display name.
	Nickname     string `gorm:"type:text"`                            // Optional nickname.
	Gender       string `gorm:"type:text"`                            // Self-reported gender.
	BirthDate    string `gorm:"type:text"`                            // Birth date as YYYY-MM-DD.
	Theme        string `gorm:"type:text;not null;default:'default'"` // Selected UI theme.

	Provider      string `gorm:"type:text;not null;default:'credentials'"` // Sign-in provider.
	ProviderID    string `gorm:"type:text;index"`                          // Subject issued by the OAuth provider.
	EmailVerified bool   `gorm:"not null;default:false"`                   // Whether the email was verified by the provider.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
