package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/onelinediary/server/internal/billing"
	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/garden"
	"github.com/onelinediary/server/internal/identity"
	"github.com/onelinediary/server/internal/models"
	"github.com/onelinediary/server/internal/security"
	"github.com/onelinediary/server/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest accepted signup password.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrMissingFields      = errors.New("모든 필드를 입력해주세요.")
	ErrPasswordTooShort   = errors.New("비밀번호는 최소 6자 이상이어야 합니다.")
	ErrInvalidEmail       = errors.New("올바른 이메일 형식을 입력해주세요.")
	ErrEmailTaken         = errors.New("이미 사용 중인 이메일입니다.")
	ErrInvalidCredentials = errors.New("이메일 또는 비밀번호가 올바르지 않습니다.")
	ErrThemeRequired      = errors.New("Theme is required")
	ErrUnknownTheme       = errors.New("Unknown theme")
	ErrPremiumTheme       = errors.New("Premium subscription required")
)

// SignupInput is the credentials signup request body.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the user-editable profile.
type Profile struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birthDate"`
	Theme     string `json:"theme"`
}

// ProfileInput is the profile create/update request body.
type ProfileInput struct {
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birthDate"`
}

// Service manages accounts and their initial resources.
type Service struct {
	db *gorm.DB
}

// NewService constructs an account Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// IsValidationError reports whether err should be returned to the client as a 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrEmailTaken)
}

// Signup validates in and creates a credentials account with its seed plant
// and free subscription.
func (s *Service) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := identity.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return models.User{}, ErrMissingFields
	}
	if len([]rune(in.Password)) < MinPasswordLength {
		return models.User{}, ErrPasswordTooShort
	}
	if !emailPattern.MatchString(email) {
		return models.User{}, ErrInvalidEmail
	}

	var existing int64
	if errCount := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; errCount != nil {
		return models.User{}, fmt.Errorf("account: check email: %w", errCount)
	}
	if existing > 0 {
		return models.User{}, ErrEmailTaken
	}

	hash, errHash := security.HashPassword(in.Password)
	if errHash != nil {
		return models.User{}, errHash
	}
	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Theme:        settings.DefaultTheme,
		Provider:     models.AuthProviderCredentials,
	}
	if errInit := s.InitializeNewUser(ctx, &user); errInit != nil {
		if db.IsUniqueViolation(errInit) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, errInit
	}
	log.WithField("user_id", user.ID).Info("account: user signed up")
	return user, nil
}

// InitializeNewUser inserts user together with a seed plant and an active free
// subscription. Either all three rows are created or none.
func (s *Service) InitializeNewUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("account: initialize user: nil user")
	}
	if user.Theme == "" {
		user.Theme = settings.DefaultTheme
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(user).Error; errCreate != nil {
			return fmt.Errorf("account: create user: %w", errCreate)
		}
		if errPlant := garden.CreatePlant(tx, user.ID); errPlant != nil {
			return errPlant
		}
		return billing.CreateFree(tx, user.ID, time.Now().UTC())
	})
}

// Authenticate checks email and password for a credentials account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	var user models.User
	errFind := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if errFind != nil {
		return models.User{}, fmt.Errorf("account: find user: %w", errFind)
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ProvisionOAuthUser creates the local account for a first OAuth sign-in.
// A concurrent sign-in that already created the account wins.
func (s *Service) ProvisionOAuthUser(ctx context.Context, subject identity.Subject) (uint64, error) {
	email := identity.NormalizeEmail(subject.Email)
	if email == "" {
		return 0, identity.ErrUserNotFound
	}
	user := models.User{
		Email:         email,
		Name:          strings.TrimSpace(subject.Name),
		Provider:      subject.Provider,
		ProviderID:    subject.ID,
		EmailVerified: true,
		Theme:         settings.DefaultTheme,
	}
	errInit := s.InitializeNewUser(ctx, &user)
	if errInit == nil {
		return user.ID, nil
	}
	if !db.IsUniqueViolation(errInit) {
		return 0, errInit
	}
	var existing models.User
	if errFind := s.db.WithContext(ctx).Select("id").Where("email = ?", email).Take(&existing).Error; errFind != nil {
		return 0, fmt.Errorf("account: find provisioned user: %w", errFind)
	}
	return existing.ID, nil
}

// User loads the account row.
func (s *Service) User(ctx context.Context, userID uint64) (models.User, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.User{}, identity.ErrUserNotFound
	}
	if errFind != nil {
		return models.User{}, fmt.Errorf("account: find user: %w", errFind)
	}
	return user, nil
}

// Profile returns the user's profile.
func (s *Service) Profile(ctx context.Context, userID uint64) (Profile, error) {
	user, errUser := s.User(ctx, userID)
	if errUser != nil {
		return Profile{}, errUser
	}
	return profileOf(user), nil
}

// UpdateProfile replaces the profile fields of the user.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, in ProfileInput) (Profile, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"name":       strings.TrimSpace(in.Name),
		"gender":     strings.TrimSpace(in.Gender),
		"birth_date": strings.TrimSpace(in.BirthDate),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return Profile{}, fmt.Errorf("account: update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Profile{}, identity.ErrUserNotFound
	}
	return s.Profile(ctx, userID)
}

// Theme returns the user's selected theme.
func (s *Service) Theme(ctx context.Context, userID uint64) (string, error) {
	user, errUser := s.User(ctx, userID)
	if errUser != nil {
		return "", errUser
	}
	if user.Theme == "" {
		return settings.DefaultTheme, nil
	}
	return user.Theme, nil
}

// SetTheme stores theme for the user. Themes other than the default require premium.
func (s *Service) SetTheme(ctx context.Context, userID uint64, theme string, premium bool) error {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return ErrThemeRequired
	}
	if !settings.IsTheme(theme) {
		return ErrUnknownTheme
	}
	if theme != settings.DefaultTheme && !premium {
		return ErrPremiumTheme
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"theme":      theme,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("account: update theme: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func profileOf(user models.User) Profile {
	theme := user.Theme
	if theme == "" {
		theme = settings.DefaultTheme
	}
	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Gender:    user.Gender,
		BirthDate: user.BirthDate,
		Theme:     theme,
	}
}
