package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roomreserve/internal/bookingerr"
	"roomreserve/internal/middleware"
	"roomreserve/internal/pkg/response"
	"roomreserve/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms", h.ListRooms)
	rg.GET("/rooms/stats", middleware.RequireRole("manager", "admin"), h.Stats)
	rg.GET("/rooms/:id", h.GetRoom)
}

// ListRooms handles GET /api/v1/rooms with optional location and
// min_capacity filters.
func (h *Handler) ListRooms(c *gin.Context) {
	var f repository.RoomFilters

	if loc := c.Query("location"); loc != "" {
		if val, err := strconv.ParseInt(loc, 10, 64); err == nil {
			f.LocationID = val
		}
	}
	if minCap := c.Query("min_capacity"); minCap != "" {
		if val, err := strconv.Atoi(minCap); err == nil && val > 0 {
			f.MinCapacity = val
		}
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list rooms")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

// Stats handles GET /api/v1/rooms/stats, the occupancy overview for
// managers and admins.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute room stats")
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return
	}

	room, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		var ne *bookingerr.NotFoundError
		if errors.As(err, &ne) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", ne.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load room")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room": room})
}
