package identity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/onelinediary/server/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrUserNotFound indicates the session does not map to a stored user.
var ErrUserNotFound = errors.New("user not found")

// MaxLocalUserID is the largest subject treated as a local user ID. Larger or
// non-numeric subjects are resolved by email.
const MaxLocalUserID = math.MaxInt32

// Subject is the identity asserted by a validated session.
type Subject struct {
	ID       string
	Email    string
	Name     string
	Provider string
}

// Provisioner creates the local account for a first-time OAuth sign-in.
type Provisioner interface {
	ProvisionOAuthUser(ctx context.Context, subject Subject) (uint64, error)
}

// Resolver maps session subjects to canonical user IDs.
type Resolver struct {
	db          *gorm.DB
	provisioner Provisioner
}

// NewResolver constructs a Resolver. provisioner may be nil to disable auto-provisioning.
func NewResolver(db *gorm.DB, provisioner Provisioner) *Resolver {
	return &Resolver{db: db, provisioner: provisioner}
}

// Resolve returns the canonical user ID for subject. OAuth subjects are
// resolved by email only, since a provider account ID may collide with a
// local user ID.
func (r *Resolver) Resolve(ctx context.Context, subject Subject) (uint64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("identity: resolver not initialized")
	}

	if id, ok := localUserID(subject.ID); ok && !isOAuthProvider(subject.Provider) {
		var user models.User
		errFind := r.db.WithContext(ctx).Select("id").Where("id = ?", id).Take(&user).Error
		if errFind == nil {
			return user.ID, nil
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("identity: find user by id: %w", errFind)
		}
	}

	id, errLookup := r.LookupByEmail(ctx, subject.Email)
	if errLookup == nil {
		return id, nil
	}
	if !errors.Is(errLookup, ErrUserNotFound) {
		return 0, errLookup
	}

	if r.provisioner == nil || !isOAuthProvider(subject.Provider) || NormalizeEmail(subject.Email) == "" {
		return 0, ErrUserNotFound
	}
	provisioned, errProvision := r.provisioner.ProvisionOAuthUser(ctx, subject)
	if errProvision != nil {
		return 0, fmt.Errorf("identity: provision oauth user: %w", errProvision)
	}
	log.WithFields(log.Fields{
		"user_id":  provisioned,
		"provider": subject.Provider,
	}).Info("identity: provisioned oauth user")
	return provisioned, nil
}

// LookupByEmail returns the ID of the user registered with email.
func (r *Resolver) LookupByEmail(ctx context.Context, email string) (uint64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("identity: resolver not initialized")
	}
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return 0, ErrUserNotFound
	}
	var user models.User
	errFind := r.db.WithContext(ctx).Select("id").Where("email = ?", normalized).Take(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if errFind != nil {
		return 0, fmt.Errorf("identity: find user by email: %w", errFind)
	}
	return user.ID, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localUserID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 || id > MaxLocalUserID {
		return 0, false
	}
	return id, true
}

func isOAuthProvider(provider string) bool {
	p := strings.TrimSpace(provider)
	return p != "" && p != models.AuthProviderCredentials
}
