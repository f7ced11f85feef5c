package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/models"
	"gorm.io/gorm"
)

type stubProvisioner struct {
	calls int
	id    uint64
}

func (p *stubProvisioner) ProvisionOAuthUser(_ context.Context, _ Subject) (uint64, error) {
	p.calls++
	return p.id, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "identity-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestResolve_LocalID(t *testing.T) {
	conn := openTestDB(t)
	user := models.User{Email: "local@example.com"}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	id, err := NewResolver(conn, nil).Resolve(context.Background(), Subject{ID: "1", Email: "other@example.com"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != user.ID {
		t.Fatalf("expected id=%d, got %d", user.ID, id)
	}
}

func TestResolve_OversizedSubjectFallsBackToEmail(t *testing.T) {
	conn := openTestDB(t)
	user := models.User{Email: "oauth@example.com", Provider: "google"}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	resolver := NewResolver(conn, nil)
	for _, subject := range []string{"108234567890123456789", "2147483648", "google-oauth2|abc"} {
		id, err := resolver.Resolve(context.Background(), Subject{ID: subject, Email: " OAuth@Example.com "})
		if err != nil {
			t.Fatalf("resolve %q: %v", subject, err)
		}
		if id != user.ID {
			t.Fatalf("resolve %q: expected id=%d, got %d", subject, user.ID, id)
		}
	}
}

func TestResolve_UnknownEmailFails(t *testing.T) {
	conn := openTestDB(t)

	_, err := NewResolver(conn, nil).Resolve(context.Background(), Subject{ID: "99999999999", Email: "ghost@example.com", Provider: "google"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolve_ProvisionsOnlyOAuthSubjects(t *testing.T) {
	conn := openTestDB(t)
	provisioner := &stubProvisioner{id: 55}
	resolver := NewResolver(conn, provisioner)

	if _, err := resolver.Resolve(context.Background(), Subject{ID: "x", Email: "cred@example.com", Provider: models.AuthProviderCredentials}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for credentials subject, got %v", err)
	}

	id, err := resolver.Resolve(context.Background(), Subject{ID: "x", Email: "new@example.com", Provider: "kakao"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 55 || provisioner.calls != 1 {
		t.Fatalf("expected provisioned id=55 with one call, got id=%d calls=%d", id, provisioner.calls)
	}
}

func TestResolve_OAuthSubjectNeverMatchesLocalID(t *testing.T) {
	conn := openTestDB(t)
	local := models.User{Email: "first@example.com"}
	if errCreate := conn.Create(&local).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	provisioner := &stubProvisioner{id: 77}
	resolver := NewResolver(conn, provisioner)

	id, err := resolver.Resolve(context.Background(), Subject{ID: "1", Email: "newcomer@example.com", Provider: "kakao"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id == local.ID || id != 77 || provisioner.calls != 1 {
		t.Fatalf("expected a provisioned account instead of local user %d, got id=%d calls=%d", local.ID, id, provisioner.calls)
	}

	id, err = resolver.Resolve(context.Background(), Subject{ID: "1", Email: "First@example.com", Provider: "kakao"})
	if err != nil {
		t.Fatalf("resolve by email: %v", err)
	}
	if id != local.ID {
		t.Fatalf("expected email match id=%d, got %d", local.ID, id)
	}
}
