package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/account"
	"github.com/onelinediary/server/internal/billing"
	"github.com/onelinediary/server/internal/identity"
	log "github.com/sirupsen/logrus"
)

// UserHandler serves the caller's profile and theme.
type UserHandler struct {
	accounts      *account.Service
	subscriptions *billing.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(accounts *account.Service, subscriptions *billing.Service) *UserHandler {
	return &UserHandler{accounts: accounts, subscriptions: subscriptions}
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// GetProfile returns the caller's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := getUserID(c)
	profile, errProfile := h.accounts.Profile(c.Request.Context(), userID)
	if errProfile != nil {
		respondUserError(c, userID, errProfile, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// SaveProfile stores name, gender and birth date for the caller.
func (h *UserHandler) SaveProfile(c *gin.Context) {
	userID := getUserID(c)
	var body account.ProfileInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	profile, errUpdate := h.accounts.UpdateProfile(c.Request.Context(), userID, body)
	if errUpdate != nil {
		respondUserError(c, userID, errUpdate, "Failed to save profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

// GetTheme returns the caller's theme.
func (h *UserHandler) GetTheme(c *gin.Context) {
	userID := getUserID(c)
	theme, errTheme := h.accounts.Theme(c.Request.Context(), userID)
	if errTheme != nil {
		respondUserError(c, userID, errTheme, "Failed to load theme")
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// SaveTheme selects a theme. Themes other than the default need premium.
func (h *UserHandler) SaveTheme(c *gin.Context) {
	userID := getUserID(c)
	ctx := c.Request.Context()
	var body themeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": account.ErrThemeRequired.Error()})
		return
	}
	premium, errPremium := h.subscriptions.IsPremium(ctx, userID)
	if errPremium != nil {
		log.WithError(errPremium).WithField("user_id", userID).Error("user: subscription lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save theme"})
		return
	}
	if errSet := h.accounts.SetTheme(ctx, userID, body.Theme, premium); errSet != nil {
		switch {
		case errors.Is(errSet, account.ErrThemeRequired), errors.Is(errSet, account.ErrUnknownTheme):
			c.JSON(http.StatusBadRequest, gin.H{"error": errSet.Error()})
		case errors.Is(errSet, account.ErrPremiumTheme):
			c.JSON(http.StatusForbidden, gin.H{"error": errSet.Error()})
		default:
			respondUserError(c, userID, errSet, "Failed to save theme")
		}
		return
	}
	theme, _ := h.accounts.Theme(ctx, userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "theme": theme, "message": "테마가 성공적으로 저장되었습니다."})
}

func respondUserError(c *gin.Context, userID uint64, err error, message string) {
	if errors.Is(err, identity.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.WithError(err).WithField("user_id", userID).Error("user: request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
