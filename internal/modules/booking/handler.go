package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roomreserve/internal/bookingerr"
	"roomreserve/internal/domain"
	"roomreserve/internal/middleware"
	"roomreserve/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings", h.List)
	rg.GET("/bookings/pending", h.ListPending)
	rg.GET("/bookings/:id", h.Get)

	// Booking lifecycle management
	rg.POST("/bookings/:id/confirm", h.Confirm)
	rg.POST("/bookings/:id/cancel", h.Cancel)
	rg.POST("/bookings/:id/complete", h.Complete)

	// Administrative purge, distinct from cancellation
	rg.DELETE("/bookings/:id", middleware.AdminOnly(), h.Deactivate)

	// Availability
	rg.GET("/rooms/:id/availability", h.CheckAvailability)
	rg.GET("/rooms/:id/free-slots", h.FreeSlots)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) List(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	bookings, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

// ListPending is the shortcut for the approval queue: the caller's visible
// bookings still waiting for confirmation.
func (h *Handler) ListPending(c *gin.Context) {
	q := ListBookingsQuery{Status: string(domain.BookingPending)}
	bookings, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.Confirm(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR",
			"Cancellation reason is required", gin.H{"field": "reason"})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), middleware.ActorFrom(c), id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.Complete(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": id})
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	roomID, ok := bookingID(c)
	if !ok {
		return
	}
	res, err := h.service.CheckAvailability(
		c.Request.Context(),
		roomID,
		c.Query("date"),
		c.Query("start_time"),
		c.Query("end_time"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) FreeSlots(c *gin.Context) {
	roomID, ok := bookingID(c)
	if !ok {
		return
	}
	slots, err := h.service.FreeSlots(c.Request.Context(), roomID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"free_slots": slots})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

// writeError maps the domain error taxonomy onto HTTP responses. Every
// rejection carries a machine-distinguishable code plus structured detail.
func writeError(c *gin.Context, err error) {
	var ve *bookingerr.ValidationError
	if errors.As(err, &ve) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR",
			ve.Message, gin.H{"field": ve.Field})
		return
	}

	var ce *bookingerr.ConflictError
	if errors.As(err, &ce) {
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT",
			"Room is not available for the selected time", gin.H{
				"conflicting_booking_id": ce.ConflictingID,
				"conflicting_start":      ce.Start,
				"conflicting_end":        ce.End,
			})
		return
	}

	var te *bookingerr.InvalidTransitionError
	if errors.As(err, &te) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_TRANSITION",
			te.Error(), gin.H{
				"current_status":   te.Current,
				"requested_status": te.Requested,
			})
		return
	}

	var pe *bookingerr.PermissionError
	if errors.As(err, &pe) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", pe.Error())
		return
	}

	var ne *bookingerr.NotFoundError
	if errors.As(err, &ne) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", ne.Error())
		return
	}

	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error")
}
