package handlers

import (
	"net/http"

	auditRepo "stitchtherapy/database/repository/audit"
	settingsRepo "stitchtherapy/database/repository/settings"
	webhookRepo "stitchtherapy/database/repository/webhook"
	"stitchtherapy/models"
	"stitchtherapy/services/user"
	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminDeps bundles the stores the admin surface reads and writes.
type AdminDeps struct {
	Users    user.UserService
	Settings settingsRepo.SettingsRepository
	Webhooks webhookRepo.WebhookRepository
	Audit    auditRepo.AuditRepository
}

// AdminHandler serves the admin-only surface: user management, platform
// settings, webhook keys, and the audit log.
type AdminHandler struct {
	deps AdminDeps
}

// NewAdminHandler builds the admin surface.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// ListUsers handles GET /api/admin/users?role=therapist.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.deps.Users.ListByRole(c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createStaffRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=therapist admin"`
}

// CreateStaff handles POST /api/admin/users.
func (h *AdminHandler) CreateStaff(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid user payload", err.Error())
		return
	}

	account, err := h.deps.Users.Register(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// GetSettings handles GET /api/admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.deps.Settings.Get()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var settings models.PlatformSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid settings payload", err.Error())
		return
	}

	if err := h.deps.Settings.Update(&settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type createWebhookRequest struct {
	Label         string   `json:"label" binding:"required"`
	URL           string   `json:"url" binding:"required,url"`
	AllowedEvents []string `json:"allowedEvents" binding:"required,min=1"`
}

// CreateWebhookKey handles POST /api/admin/webhooks. The secret is returned
// exactly once; only its hash is stored.
func (h *AdminHandler) CreateWebhookKey(c *gin.Context) {
	var req createWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}

	secret, err := utils.RandomToken(24)
	if err != nil {
		respondError(c, err)
		return
	}

	key := &models.WebhookKey{
		ID:            uuid.NewString(),
		Label:         req.Label,
		URL:           req.URL,
		SecretHash:    utils.HashToken(secret),
		AllowedEvents: req.AllowedEvents,
		Active:        true,
	}
	if err := h.deps.Webhooks.Create(key); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "secret": secret})
}

// ListWebhookKeys handles GET /api/admin/webhooks.
func (h *AdminHandler) ListWebhookKeys(c *gin.Context) {
	keys, err := h.deps.Webhooks.GetAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// DeleteWebhookKey handles DELETE /api/admin/webhooks/:id.
func (h *AdminHandler) DeleteWebhookKey(c *gin.Context) {
	if err := h.deps.Webhooks.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AuditLog handles GET /api/admin/audit.
func (h *AdminHandler) AuditLog(c *gin.Context) {
	entries, err := h.deps.Audit.Recent(200)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
