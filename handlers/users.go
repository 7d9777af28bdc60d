package handlers

import (
	"net/http"

	"stitchtherapy/services/user"

	"github.com/gin-gonic/gin"
)

// UsersHandler serves public and role-scoped user listings.
type UsersHandler struct {
	users user.UserService
}

// ListTherapists handles GET /api/therapists. Public, credentials stripped.
func (h *UsersHandler) ListTherapists(c *gin.Context) {
	therapists, err := h.users.ListTherapists()
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := make([]map[string]any, 0, len(therapists))
	for _, t := range therapists {
		profiles = append(profiles, t.PublicProfile())
	}
	c.JSON(http.StatusOK, gin.H{"therapists": profiles})
}

// GetTherapist handles GET /api/therapists/:id.
func (h *UsersHandler) GetTherapist(c *gin.Context) {
	account, err := h.users.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.PublicProfile())
}
