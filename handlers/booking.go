package handlers

import (
	"net/http"
	"strconv"
	"time"

	"stitchtherapy/middleware"
	"stitchtherapy/models"
	"stitchtherapy/services/booking"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	bookings booking.BookingService
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var input booking.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid booking payload", err.Error())
		return
	}

	b, err := h.bookings.Create(actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// CreateGuest handles POST /api/bookings/guest. No authentication.
func (h *BookingHandler) CreateGuest(c *gin.Context) {
	var input booking.GuestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid guest booking payload", err.Error())
		return
	}

	b, err := h.bookings.CreateGuest(input, middleware.ClientIP(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// List handles GET /api/bookings, scoped to the caller's role.
func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.bookings.ListForActor(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.GetByID(actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type verifyRequest struct {
	Payment  models.PaymentInfo `json:"payment"`
	Override bool               `json:"override"`
}

// VerifyPayment handles POST /api/bookings/:id/verify-payment.
func (h *BookingHandler) VerifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid verification payload", err.Error())
		return
	}

	b, err := h.bookings.VerifyPayment(actorFrom(c), c.Param("id"), req.Payment, req.Override)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
}

// Reschedule handles POST /api/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid reschedule payload", err.Error())
		return
	}

	b, err := h.bookings.Reschedule(actorFrom(c), c.Param("id"), req.ScheduledAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending scheduled verified completed cancelled"`
}

// UpdateStatus handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid status payload", err.Error())
		return
	}

	b, err := h.bookings.UpdateStatus(actorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes handles PATCH /api/bookings/:id/notes.
func (h *BookingHandler) UpdateNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid notes payload", err.Error())
		return
	}

	b, err := h.bookings.UpdateNotes(actorFrom(c), c.Param("id"), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// StartCall handles POST /api/bookings/:id/start-call.
func (h *BookingHandler) StartCall(c *gin.Context) {
	b, err := h.bookings.StartCall(actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// EndCall handles POST /api/bookings/:id/end-call.
func (h *BookingHandler) EndCall(c *gin.Context) {
	b, err := h.bookings.EndCall(actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type muteRequest struct {
	ParticipantID string `json:"participantId"`
}

// Mute handles POST /api/bookings/:id/mute.
func (h *BookingHandler) Mute(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid mute payload", err.Error())
		return
	}

	if err := h.bookings.Mute(actorFrom(c), c.Param("id"), req.ParticipantID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Slots handles GET /api/therapists/:id/slots?date=YYYY-MM-DD&duration=50.
// Public: this is what the booking page renders.
func (h *BookingHandler) Slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, "date query parameter is required", "")
		return
	}
	duration := 0
	if raw := c.Query("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.JSONError(c, http.StatusBadRequest, "duration must be a positive number of minutes", "")
			return
		}
		duration = parsed
	}

	listing, err := h.bookings.AvailableSlots(c.Param("id"), date, duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

type validateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateToken handles POST /api/meetings/:roomId/validate. The client app
// calls this with the raw link token before opening the signaling channel.
func (h *BookingHandler) ValidateToken(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid token payload", err.Error())
		return
	}

	b, err := h.bookings.ValidateCallToken(c.Param("roomId"), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":       true,
		"bookingId":   b.ID,
		"scheduledAt": b.ScheduledAt,
	})
}

// Clients handles GET /api/bookings/clients: a therapist's client directory.
func (h *BookingHandler) Clients(c *gin.Context) {
	entries, err := h.bookings.ClientDirectory(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": entries})
}

// Summary handles GET /api/reports/bookings?range=week.
func (h *BookingHandler) Summary(c *gin.Context) {
	summary, err := h.bookings.Summary(c.DefaultQuery("range", "all"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
