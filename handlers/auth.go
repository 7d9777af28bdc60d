package handlers

import (
	"net/http"

	"stitchtherapy/middleware"
	"stitchtherapy/models"
	"stitchtherapy/services/user"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves login, registration, and profile endpoints.
type AuthHandler struct {
	users user.UserService
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid login payload", err.Error())
		return
	}

	result, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register handles POST /api/auth/register. Self-registration always creates
// a client; staff accounts are provisioned by an admin.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid registration payload", err.Error())
		return
	}

	account, err := h.users.Register(req.Name, req.Email, req.Password, models.RoleClient)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	account, err := h.users.GetByID(c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// UpdateProfile handles PATCH /api/auth/me.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid profile payload", err.Error())
		return
	}

	account, err := h.users.UpdateProfile(c.GetString(middleware.ContextUserID), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
