package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ridebooking/internal/domain"
	"ridebooking/internal/pkg/response"
)

type Handler struct {
	prefs *PreferenceService
}

func NewHandler(prefs *PreferenceService) *Handler {
	return &Handler{prefs: prefs}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/preferences", h.GetPreferences)
	rg.PUT("/preferences", h.UpdatePreferences)
}

type updatePreferencesRequest struct {
	InAppEnabled bool `json:"in_app_enabled"`
	EmailEnabled bool `json:"email_enabled"`
	PushEnabled  bool `json:"push_enabled"`
	SoundEnabled bool `json:"sound_enabled"`

	BookingUpdates      bool `json:"booking_updates"`
	CounterpartMessages bool `json:"counterpart_messages"`
	Promotions          bool `json:"promotions"`
}

func (h *Handler) GetPreferences(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	p := h.prefs.Get(c.Request.Context(), userID, role)
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p := &Preference{
		UserID:              userID,
		Role:                role,
		InAppEnabled:        req.InAppEnabled,
		EmailEnabled:        req.EmailEnabled,
		PushEnabled:         req.PushEnabled,
		SoundEnabled:        req.SoundEnabled,
		BookingUpdates:      req.BookingUpdates,
		CounterpartMessages: req.CounterpartMessages,
		Promotions:          req.Promotions,
	}
	if err := h.prefs.Update(c.Request.Context(), p); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save preferences")
		return
	}

	response.Success(c, http.StatusOK, p)
}

func identity(c *gin.Context) (uuid.UUID, domain.ActorRole, bool) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return uuid.Nil, "", false
	}
	return userID, domain.ActorRole(c.GetString("role")), true
}
