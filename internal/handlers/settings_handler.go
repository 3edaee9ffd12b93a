package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "glidepath/internal/errors"
	"glidepath/internal/models"
	"glidepath/internal/services"
)

// SettingsHandler handles settings-related requests. Responses always carry
// the full snapshot state: the settings themselves, the saving flag, and any
// error from the last remote attempt.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateSettingsRequest represents a partial settings update; omitted fields
// are left unchanged.
type UpdateSettingsRequest struct {
	Currency             *string `json:"currency" binding:"omitempty,iso4217"`
	Theme                *string `json:"theme" binding:"omitempty,theme"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	ExportFormat         *string `json:"export_format" binding:"omitempty,export_format"`
}

// GetSettings returns the user's settings snapshot, loading it from the
// remote record on first access.
// @Summary     Get settings
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SettingsState "Settings snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	state := h.settingsService.Load(c.Request.Context(), userID)
	c.JSON(http.StatusOK, state)
}

// UpdateSettings applies a partial update optimistically. The response body
// reflects the post-attempt snapshot; on remote failure the settings are the
// reverted pre-call values and the error field is set.
// @Summary     Update settings
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateSettingsRequest true "Fields to change"
// @Success     200 {object} services.SettingsState "Post-attempt snapshot"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /settings [patch]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	patch := services.SettingsPatch{
		Currency:             req.Currency,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if req.Theme != nil {
		theme := models.Theme(*req.Theme)
		patch.Theme = &theme
	}
	if req.ExportFormat != nil {
		format := models.ExportFormat(*req.ExportFormat)
		patch.ExportFormat = &format
	}

	state := h.settingsService.Update(c.Request.Context(), userID, patch)
	status := http.StatusOK
	if state.Error != "" {
		status = http.StatusBadGateway
	}
	c.JSON(status, state)
}

// ResetSettingsError clears the snapshot's error flag.
// @Summary     Clear settings error
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SettingsState "Settings snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /settings/error [delete]
func (h *SettingsHandler) ResetSettingsError(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.settingsService.ResetError(userID)
	c.JSON(http.StatusOK, h.settingsService.State(userID))
}
