package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/identity"
	"github.com/onelinediary/server/internal/models"
	"gorm.io/gorm"
)

func openTestService(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "account-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn, NewService(conn)
}

func TestSignup_Validation(t *testing.T) {
	_, svc := openTestService(t)

	cases := []struct {
		name string
		in   SignupInput
		want error
	}{
		{name: "missing name", in: SignupInput{Email: "a@b.co", Password: "secret1"}, want: ErrMissingFields},
		{name: "short password", in: SignupInput{Name: "a", Email: "a@b.co", Password: "12345"}, want: ErrPasswordTooShort},
		{name: "bad email", in: SignupInput{Name: "a", Email: "not-an-email", Password: "secret1"}, want: ErrInvalidEmail},
		{name: "email without tld", in: SignupInput{Name: "a", Email: "a@b", Password: "secret1"}, want: ErrInvalidEmail},
	}
	for _, tc := range cases {
		_, err := svc.Signup(context.Background(), tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidationError(err) {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestSignup_InitializesAccount(t *testing.T) {
	conn, svc := openTestService(t)

	user, err := svc.Signup(context.Background(), SignupInput{Name: "하루", Email: " Diary@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "diary@example.com" || user.Provider != models.AuthProviderCredentials {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Fatalf("expected hashed password")
	}

	var plant models.Plant
	if errPlant := conn.Where("user_id = ?", user.ID).Take(&plant).Error; errPlant != nil {
		t.Fatalf("load plant: %v", errPlant)
	}
	if plant.Type != models.PlantStageSeed || plant.Level != 1 || plant.Experience != 0 {
		t.Fatalf("unexpected plant: %+v", plant)
	}
	var sub models.Subscription
	if errSub := conn.Where("user_id = ?", user.ID).Take(&sub).Error; errSub != nil {
		t.Fatalf("load subscription: %v", errSub)
	}
	if sub.PlanType != models.PlanFree || sub.Status != models.SubscriptionActive {
		t.Fatalf("unexpected subscription: %+v", sub)
	}

	if _, err := svc.Signup(context.Background(), SignupInput{Name: "둘", Email: "diary@example.com", Password: "secret2"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	_, svc := openTestService(t)
	created, err := svc.Signup(context.Background(), SignupInput{Name: "a", Email: "login@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "LOGIN@example.com", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, user.ID)
	}
	if _, err := svc.Authenticate(context.Background(), "login@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestProvisionOAuthUser_ThroughResolver(t *testing.T) {
	conn, svc := openTestService(t)
	resolver := identity.NewResolver(conn, svc)

	subject := identity.Subject{ID: "109876543210987654321", Email: "oauth@example.com", Name: "구글", Provider: "google"}
	first, err := resolver.Resolve(context.Background(), subject)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), subject)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable id, got %d and %d", first, second)
	}
	again, err := svc.ProvisionOAuthUser(context.Background(), subject)
	if err != nil {
		t.Fatalf("provision existing: %v", err)
	}
	if again != first {
		t.Fatalf("expected existing id %d, got %d", first, again)
	}

	var plants int64
	if errCount := conn.Model(&models.Plant{}).Where("user_id = ?", first).Count(&plants).Error; errCount != nil {
		t.Fatalf("count plants: %v", errCount)
	}
	if plants != 1 {
		t.Fatalf("expected one plant, got %d", plants)
	}
}

func TestProfileAndTheme(t *testing.T) {
	_, svc := openTestService(t)
	user, err := svc.Signup(context.Background(), SignupInput{Name: "a", Email: "theme@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	profile, err := svc.UpdateProfile(context.Background(), user.ID, ProfileInput{Name: "새 이름", Gender: "female", BirthDate: "1995-04-01"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.Name != "새 이름" || profile.BirthDate != "1995-04-01" || profile.Theme != "default" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if _, err := svc.UpdateProfile(context.Background(), 9999, ProfileInput{Name: "x"}); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := svc.SetTheme(context.Background(), user.ID, "spring", false); !errors.Is(err, ErrPremiumTheme) {
		t.Fatalf("expected ErrPremiumTheme, got %v", err)
	}
	if err := svc.SetTheme(context.Background(), user.ID, "neon", true); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if err := svc.SetTheme(context.Background(), user.ID, "spring", true); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	theme, err := svc.Theme(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	if theme != "spring" {
		t.Fatalf("expected spring, got %q", theme)
	}
}
