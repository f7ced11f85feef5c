package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/models"
	"gorm.io/gorm"
)

// BillFrontHandler lists the caller's subscription history.
type BillFrontHandler struct {
	db *gorm.DB
}

// NewBillFrontHandler constructs a BillFrontHandler.
func NewBillFrontHandler(db *gorm.DB) *BillFrontHandler {
	return &BillFrontHandler{db: db}
}

// List returns every subscription row of the caller, newest first.
func (h *BillFrontHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var rows []models.Subscription
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list subscriptions failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, subscriptionView(row))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": out})
}
