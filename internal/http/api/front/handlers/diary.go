package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/garden"
	"github.com/onelinediary/server/internal/journal"
	log "github.com/sirupsen/logrus"
)

// DiaryHandler serves diary CRUD endpoints.
type DiaryHandler struct {
	diaries *journal.Store
	garden  *garden.Store
}

// NewDiaryHandler constructs a DiaryHandler.
func NewDiaryHandler(diaries *journal.Store, gardenStore *garden.Store) *DiaryHandler {
	return &DiaryHandler{diaries: diaries, garden: gardenStore}
}

// List returns today's diary, a month of diaries, or the most recent ones.
func (h *DiaryHandler) List(c *gin.Context) {
	userID := getUserID(c)
	ctx := c.Request.Context()

	if strings.EqualFold(strings.TrimSpace(c.Query("today")), "true") {
		today, errToday := h.diaries.Today(ctx, userID)
		if errToday != nil {
			log.WithError(errToday).WithField("user_id", userID).Error("diary: today lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch diaries"})
			return
		}
		if today == nil {
			c.JSON(http.StatusOK, gin.H{"hasTodayDiary": false, "diary": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"hasTodayDiary": true, "diary": diaryView(*today)})
		return
	}

	q := journal.ListQuery{}
	if limit, ok := parseIntQuery(c, "limit"); ok {
		q.Limit = limit
	}
	year, okYear := parseIntQuery(c, "year")
	month, okMonth := parseIntQuery(c, "month")
	if okYear || okMonth {
		if !okYear || !okMonth || month < 1 || month > 12 || year < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month or year"})
			return
		}
		q.Year = year
		q.Month = time.Month(month)
	}

	rows, errList := h.diaries.List(ctx, userID, q)
	if errList != nil {
		log.WithError(errList).WithField("user_id", userID).Error("diary: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch diaries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"diaries": diaryViews(rows)})
}

// Create writes a diary, grows the plant and evaluates achievements.
func (h *DiaryHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	ctx := c.Request.Context()

	var body journal.Input
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	diary, errCreate := h.diaries.Create(ctx, userID, body)
	if errCreate != nil {
		if journal.IsValidationError(errCreate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errCreate.Error()})
			return
		}
		log.WithError(errCreate).WithField("user_id", userID).Error("diary: create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create diary"})
		return
	}

	resp := gin.H{
		"success":         true,
		"diary":           diaryView(diary),
		"plant":           nil,
		"leveledUp":       false,
		"newAchievements": []gin.H{},
	}
	result, errRecord := h.garden.RecordDiary(ctx, userID)
	if errRecord != nil {
		log.WithError(errRecord).WithField("user_id", userID).Warn("diary: gamification update failed")
		c.JSON(http.StatusOK, resp)
		return
	}
	resp["plant"] = plantView(result.Plant)
	resp["leveledUp"] = result.LeveledUp
	resp["newAchievements"] = achievementViews(result.NewAchievements)
	c.JSON(http.StatusOK, resp)
}

// Update replaces the editable fields of a diary owned by the caller.
func (h *DiaryHandler) Update(c *gin.Context) {
	userID := getUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body journal.Input
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	diary, errUpdate := h.diaries.Update(c.Request.Context(), userID, id, body)
	if errUpdate != nil {
		switch {
		case journal.IsValidationError(errUpdate):
			c.JSON(http.StatusBadRequest, gin.H{"error": errUpdate.Error()})
		case errors.Is(errUpdate, journal.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Diary not found or update failed"})
		default:
			log.WithError(errUpdate).WithField("diary_id", id).Error("diary: update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update diary"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "diary": diaryView(diary)})
}

// Delete removes a diary owned by the caller.
func (h *DiaryHandler) Delete(c *gin.Context) {
	userID := getUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if errDelete := h.diaries.Delete(c.Request.Context(), userID, id); errDelete != nil {
		if errors.Is(errDelete, journal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Diary not found or delete failed"})
			return
		}
		log.WithError(errDelete).WithField("diary_id", id).Error("diary: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete diary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
