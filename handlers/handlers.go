// Package handlers adapts HTTP requests to the service layer.
package handlers

import (
	"errors"
	"net/http"

	"stitchtherapy/middleware"
	"stitchtherapy/models"
	"stitchtherapy/services/availability"
	"stitchtherapy/services/booking"
	"stitchtherapy/services/signaling"
	"stitchtherapy/services/user"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
)

// Bundle groups the handlers the router mounts.
type Bundle struct {
	Auth         *AuthHandler
	Users        *UsersHandler
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Signaling    *SignalingHandler
	Admin        *AdminHandler
}

// NewBundle wires handlers over their services.
func NewBundle(users user.UserService, avail availability.AvailabilityService, bookings booking.BookingService, hub *signaling.Hub, admin AdminDeps) *Bundle {
	return &Bundle{
		Auth:         &AuthHandler{users: users},
		Users:        &UsersHandler{users: users},
		Availability: &AvailabilityHandler{availability: avail},
		Bookings:     &BookingHandler{bookings: bookings},
		Signaling:    NewSignalingHandler(hub, bookings),
		Admin:        NewAdminHandler(admin),
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		conflict   *models.ConflictError
		forbidden  *models.AuthorizationError
		notFound   *models.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		utils.JSONError(c, http.StatusBadRequest, validation.Error(), "")
	case errors.As(err, &forbidden):
		utils.JSONError(c, http.StatusForbidden, forbidden.Error(), "")
	case errors.As(err, &notFound):
		utils.JSONError(c, http.StatusNotFound, notFound.Error(), "")
	case errors.As(err, &conflict):
		utils.JSONError(c, http.StatusConflict, conflict.Error(), "")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "internal server error", "")
	}
}

// actorFrom builds the acting identity from the authenticated request.
func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		ID:        c.GetString(middleware.ContextUserID),
		Role:      c.GetString(middleware.ContextRole),
		IPAddress: middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}
