package handlers

import (
	"net/http"

	"stitchtherapy/middleware"
	"stitchtherapy/services/booking"
	"stitchtherapy/services/signaling"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SignalingHandler upgrades connections into the call relay.
type SignalingHandler struct {
	hub      *signaling.Hub
	bookings booking.BookingService
	upgrader websocket.Upgrader
}

// NewSignalingHandler builds the websocket entry point.
func NewSignalingHandler(hub *signaling.Hub, bookings booking.BookingService) *SignalingHandler {
	return &SignalingHandler{
		hub:      hub,
		bookings: bookings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client connects cross-origin from the SPA.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connect handles GET /ws/signaling. A call-link token plus room in the
// query string authorizes anonymous joiners; authenticated staff connect
// with a bearer token instead.
func (h *SignalingHandler) Connect(c *gin.Context) {
	room := c.Query("room")
	token := c.Query("token")
	userID := c.GetString(middleware.ContextUserID)

	if userID == "" {
		if room == "" || token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "a session token and room are required", "")
			return
		}
		if _, err := h.bookings.ValidateCallToken(room, token); err != nil {
			respondError(c, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := signaling.NewClient(h.hub, conn, userID)
	if room != "" {
		h.hub.Join(client, room)
	}
	go client.Run()
}
