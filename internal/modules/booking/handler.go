package booking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
	"ridebooking/internal/modules/timeline"
	"ridebooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/timeline", h.GetTimeline)

		bookings.POST("/:id/offer", h.SendOffer)
		bookings.POST("/:id/offer/accept", h.AcceptOffer)
		bookings.POST("/:id/offer/decline", h.DeclineOffer)
		bookings.POST("/:id/payment", h.MarkPaymentSent)
		bookings.POST("/:id/payment/confirm", h.ConfirmPayment)
		bookings.POST("/:id/stage/advance", h.AdvanceRideStage)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, ToResponse(b, currentRole(c)))
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ToResponse(b, currentRole(c)))
}

func (h *Handler) ListBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var query struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	_ = c.ShouldBindQuery(&query)

	role := currentRole(c)
	list, err := h.service.ListForUser(c.Request.Context(), userID, role, query.Limit, query.Offset)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, ToResponse(&list[i], role))
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) GetTimeline(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	order := timeline.OrderAscending
	if c.Query("order") == "desc" {
		order = timeline.OrderDescending
	}

	events, err := h.service.GetTimeline(c.Request.Context(), id, order)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, events)
}

func (h *Handler) SendOffer(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req SendOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.SendOffer(c.Request.Context(), currentRole(c), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ToResponse(b, currentRole(c)))
}

func (h *Handler) AcceptOffer(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*domain.Booking, error) {
		return h.service.AcceptOffer(c.Request.Context(), currentRole(c), id)
	})
}

func (h *Handler) DeclineOffer(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*domain.Booking, error) {
		return h.service.DeclineOffer(c.Request.Context(), currentRole(c), id)
	})
}

func (h *Handler) MarkPaymentSent(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*domain.Booking, error) {
		return h.service.MarkPaymentSent(c.Request.Context(), currentRole(c), id)
	})
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*domain.Booking, error) {
		return h.service.ConfirmPayment(c.Request.Context(), id)
	})
}

func (h *Handler) AdvanceRideStage(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (*domain.Booking, error) {
		return h.service.AdvanceRideStage(c.Request.Context(), currentRole(c), id)
	})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	b, err := h.service.Cancel(c.Request.Context(), currentRole(c), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ToResponse(b, currentRole(c)))
}

func (h *Handler) transition(c *gin.Context, fn func(id uuid.UUID) (*domain.Booking, error)) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := fn(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ToResponse(b, currentRole(c)))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrPickupTooSoon):
		response.Error(c, http.StatusBadRequest, "PICKUP_TOO_SOON", "Pickup time is below the minimum lead time")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Your role cannot perform this action")
	case errors.Is(err, lifecycle.ErrInvalidState):
		response.Error(c, http.StatusConflict, "INVALID_STATE", "The booking is not in a phase that allows this action")
	case errors.Is(err, lifecycle.ErrUnknownTransition):
		response.Error(c, http.StatusBadRequest, "UNKNOWN_TRANSITION", "Unknown lifecycle action")
	case errors.Is(err, lifecycle.ErrMissingDriver), errors.Is(err, lifecycle.ErrMissingPrice):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrPaymentNotConfirmed):
		response.Error(c, http.StatusConflict, "PAYMENT_NOT_CONFIRMED", "The payment provider has not confirmed this booking yet")
	case errors.Is(err, ErrPaymentCheckFailed):
		response.Error(c, http.StatusBadGateway, "PAYMENT_CHECK_FAILED", "Could not verify payment, try again")
	case errors.Is(err, ErrDuplicateCode):
		response.Error(c, http.StatusConflict, "DUPLICATE_CODE", "Booking code already exists, retry the request")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func currentRole(c *gin.Context) domain.ActorRole {
	return domain.ActorRole(c.GetString("role"))
}
