package handlers

import (
	"net/http"

	"stitchtherapy/middleware"
	"stitchtherapy/services/availability"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves therapist availability window CRUD.
type AvailabilityHandler struct {
	availability availability.AvailabilityService
}

// Create handles POST /api/availability. Therapists create their own windows.
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var input availability.WindowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid availability payload", err.Error())
		return
	}

	window, err := h.availability.Create(c.GetString(middleware.ContextUserID), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, window)
}

// ListMine handles GET /api/availability.
func (h *AvailabilityHandler) ListMine(c *gin.Context) {
	windows, err := h.availability.ListForTherapist(c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

// ListForTherapist handles GET /api/therapists/:id/availability. Public.
func (h *AvailabilityHandler) ListForTherapist(c *gin.Context) {
	windows, err := h.availability.ListForTherapist(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

// Update handles PUT /api/availability/:id.
func (h *AvailabilityHandler) Update(c *gin.Context) {
	var input availability.WindowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid availability payload", err.Error())
		return
	}

	window, err := h.availability.Update(
		c.GetString(middleware.ContextUserID),
		c.GetString(middleware.ContextRole),
		c.Param("id"),
		input,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

// Delete handles DELETE /api/availability/:id.
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	err := h.availability.Delete(
		c.GetString(middleware.ContextUserID),
		c.GetString(middleware.ContextRole),
		c.Param("id"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
