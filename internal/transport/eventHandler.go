package transport

import (
	"net/http"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/sandbox"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	state *sandbox.State
}

func NewEventHandler(state *sandbox.State) *EventHandler {
	return &EventHandler{state: state}
}

type eventsResponse struct {
	Events     []entity.Event `json:"events"`
	TotalPages int            `json:"totalPages"`
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	page := h.state.ListEvents(pageParam(c))
	c.JSON(http.StatusOK, eventsResponse{Events: page.Items, TotalPages: page.TotalPages})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.state.Event(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req entity.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event payload"})
		return
	}

	event, err := h.state.CreateEvent(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req entity.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event payload"})
		return
	}

	event, err := h.state.UpdateEvent(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.state.DeleteEvent(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
