package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/billing"
	"github.com/onelinediary/server/internal/journal"
	"github.com/onelinediary/server/internal/settings"
	log "github.com/sirupsen/logrus"
)

// StatsHandler serves monthly diary statistics.
type StatsHandler struct {
	diaries       *journal.Store
	subscriptions *billing.Service
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(diaries *journal.Store, subscriptions *billing.Service) *StatsHandler {
	return &StatsHandler{diaries: diaries, subscriptions: subscriptions}
}

// Get returns statistics for ?month&year, defaulting to the current local month.
// Free accounts past the monthly analysis allowance receive a redacted summary.
func (h *StatsHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	ctx := c.Request.Context()

	now := h.diaries.Now().In(h.diaries.Location())
	year, month := now.Year(), now.Month()
	if v, ok := parseIntQuery(c, "year"); ok {
		year = v
	}
	if v, ok := parseIntQuery(c, "month"); ok {
		if v < 1 || v > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month or year"})
			return
		}
		month = time.Month(v)
	}

	stats, errStats := h.diaries.Stats(ctx, userID, year, month)
	if errStats != nil {
		log.WithError(errStats).WithField("user_id", userID).Error("stats: aggregate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	if stats.MonthEntries > settings.FreeStatsEntryLimit {
		premium, errPremium := h.subscriptions.IsPremium(ctx, userID)
		if errPremium != nil {
			log.WithError(errPremium).WithField("user_id", userID).Error("stats: subscription lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
			return
		}
		if !premium {
			stats = stats.Redact()
		}
	}
	c.JSON(http.StatusOK, stats)
}
