package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/garden"
	log "github.com/sirupsen/logrus"
)

// PlantHandler serves the plant endpoints.
type PlantHandler struct {
	garden *garden.Store
}

// NewPlantHandler constructs a PlantHandler.
func NewPlantHandler(gardenStore *garden.Store) *PlantHandler {
	return &PlantHandler{garden: gardenStore}
}

type growPlantRequest struct {
	Experience int    `json:"experience"`
	Name       string `json:"name"`
}

// Get returns the caller's plant, creating a seed on first access.
func (h *PlantHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	plant, errPlant := h.garden.Plant(c.Request.Context(), userID)
	if errPlant != nil {
		log.WithError(errPlant).WithField("user_id", userID).Error("plant: load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plant": plantView(plant)})
}

// Grow adds experience (default 1) and optionally renames the plant.
func (h *PlantHandler) Grow(c *gin.Context) {
	userID := getUserID(c)
	var body growPlantRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Experience == 0 {
		body.Experience = 1
	}
	plant, leveledUp, errGrow := h.garden.Grow(c.Request.Context(), userID, body.Experience, body.Name)
	if errGrow != nil {
		if errors.Is(errGrow, garden.ErrInvalidExperience) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errGrow.Error()})
			return
		}
		log.WithError(errGrow).WithField("user_id", userID).Error("plant: grow failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "plant": plantView(plant), "leveledUp": leveledUp})
}
