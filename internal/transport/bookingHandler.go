package transport

import (
	"net/http"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/sandbox"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	state *sandbox.State
}

func NewBookingHandler(state *sandbox.State) *BookingHandler {
	return &BookingHandler{state: state}
}

type CreateBookingRequest struct {
	EventID  string `json:"eventId" binding:"required"`
	Quantity int    `json:"quantity"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type bookingsResponse struct {
	Bookings   []entity.Booking `json:"bookings"`
	TotalPages int              `json:"totalPages"`
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "eventId and quantity are required"})
		return
	}

	booking, err := h.state.Book(currentUserID(c), req.EventID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// ListAllBookings is the admin view.
func (h *BookingHandler) ListAllBookings(c *gin.Context) {
	page := h.state.ListBookings(pageParam(c), "")
	c.JSON(http.StatusOK, bookingsResponse{Bookings: page.Items, TotalPages: page.TotalPages})
}

func (h *BookingHandler) ListOwnBookings(c *gin.Context) {
	page := h.state.ListBookings(pageParam(c), currentUserID(c))
	c.JSON(http.StatusOK, bookingsResponse{Bookings: page.Items, TotalPages: page.TotalPages})
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "status is required"})
		return
	}
	status, err := entity.ParseBookingStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	actor, err := h.state.User(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.state.SetBookingStatus(actor, c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	actor, err := h.state.User(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.state.DeleteBooking(actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}
