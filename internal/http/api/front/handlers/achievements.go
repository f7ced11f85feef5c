package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/garden"
	"github.com/onelinediary/server/internal/models"
	log "github.com/sirupsen/logrus"
)

// AchievementHandler serves achievement endpoints.
type AchievementHandler struct {
	garden *garden.Store
}

// NewAchievementHandler constructs an AchievementHandler.
func NewAchievementHandler(gardenStore *garden.Store) *AchievementHandler {
	return &AchievementHandler{garden: gardenStore}
}

type grantAchievementRequest struct {
	Type string `json:"type"`
}

// List returns unlocked achievements and the progress toward each one.
func (h *AchievementHandler) List(c *gin.Context) {
	userID := getUserID(c)
	ctx := c.Request.Context()

	rows, errList := h.garden.Achievements(ctx, userID)
	if errList != nil {
		log.WithError(errList).WithField("user_id", userID).Error("achievements: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch achievements"})
		return
	}
	progress, errProgress := h.garden.Progress(ctx, userID)
	if errProgress != nil {
		log.WithError(errProgress).WithField("user_id", userID).Error("achievements: progress failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch achievements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievementViews(rows), "progress": progress})
}

// Grant unlocks a known achievement for the caller once.
func (h *AchievementHandler) Grant(c *gin.Context) {
	userID := getUserID(c)
	var body grantAchievementRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	def, ok := garden.LookupDefinition(models.AchievementType(strings.TrimSpace(body.Type)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid achievement type"})
		return
	}
	row, created, errUnlock := h.garden.Unlock(c.Request.Context(), userID, def)
	if errUnlock != nil {
		log.WithError(errUnlock).WithField("user_id", userID).Error("achievements: unlock failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create achievement"})
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "이미 달성한 업적입니다."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "achievement": achievementView(row)})
}
