package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "intouch/internal/errors"
	"intouch/internal/pagination"
	"intouch/internal/services"
)

// ConnectionHandler handles connection endpoints.
type ConnectionHandler struct {
	connections services.ConnectionServicer
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(connections services.ConnectionServicer) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

// CreateConnectionRequest represents the create-connection request body.
type CreateConnectionRequest struct {
	Name                  string `json:"connection_name" binding:"required,max=100"`
	ReminderFrequencyDays int    `json:"reminder_frequency_days" binding:"required,min=1"`
	ReachOutPriority      *int   `json:"reach_out_priority" binding:"omitempty,min=0,max=10"`
	Notes                 string `json:"notes"`
	Type                  string `json:"connection_type" binding:"omitempty,max=50"`
	KnowFrom              string `json:"know_from" binding:"omitempty,max=255"`
}

// UpdateConnectionRequest represents a partial connection update. Fields left
// out of the JSON body keep their stored values.
type UpdateConnectionRequest struct {
	Name                  *string `json:"connection_name" binding:"omitempty,max=100"`
	ReminderFrequencyDays *int    `json:"reminder_frequency_days" binding:"omitempty,min=1"`
	ReachOutPriority      *int    `json:"reach_out_priority" binding:"omitempty,min=0,max=10"`
	Notes                 *string `json:"notes"`
	Type                  *string `json:"connection_type" binding:"omitempty,max=50"`
	KnowFrom              *string `json:"know_from" binding:"omitempty,max=255"`
}

// List godoc
// @Summary List connections ranked by outreach urgency
// @Description Returns one page of 50 connections ordered by how overdue they are for contact.
// @Tags connections
// @Produce json
// @Param page path int true "Page number (1-based)"
// @Success 200 {object} pagination.Response[services.ConnectionListItem]
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections/page/{page} [get]
func (h *ConnectionHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Anything that is not a plain integer falls back to the first page.
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		page = 1
	}

	result, err := h.connections.ListConnections(userID, pagination.NewPage(page))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Search godoc
// @Summary Search connections by name
// @Description Case-insensitive substring match on the connection name.
// @Tags connections
// @Produce json
// @Param query path string true "Search term"
// @Success 200 {object} map[string][]services.ConnectionListItem
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections/search/{query} [get]
func (h *ConnectionHandler) Search(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	query := strings.TrimSpace(c.Param("query"))
	if query == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Search query is required"))
		return
	}

	items, err := h.connections.SearchConnections(userID, query)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// Get godoc
// @Summary Get a single connection
// @Tags connections
// @Produce json
// @Param id path int true "Connection ID"
// @Success 200 {object} models.Connection
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections/id/{id} [get]
func (h *ConnectionHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	conn, err := h.connections.GetConnectionByID(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connection": conn})
}

// Create godoc
// @Summary Create a connection
// @Tags connections
// @Accept json
// @Produce json
// @Param request body CreateConnectionRequest true "Connection details"
// @Success 201 {object} models.Connection
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections [post]
func (h *ConnectionHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	priority := 0
	if req.ReachOutPriority != nil {
		priority = *req.ReachOutPriority
	}

	conn, err := h.connections.CreateConnection(userID, services.ConnectionCreate{
		Name:                  req.Name,
		ReminderFrequencyDays: req.ReminderFrequencyDays,
		ReachOutPriority:      priority,
		Notes:                 req.Notes,
		Type:                  req.Type,
		KnowFrom:              req.KnowFrom,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"connection": conn})
}

// Update godoc
// @Summary Update a connection
// @Description Partial update. Only the fields present in the body are changed.
// @Tags connections
// @Accept json
// @Produce json
// @Param id path int true "Connection ID"
// @Param request body UpdateConnectionRequest true "Fields to update"
// @Success 200 {object} models.Connection
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections/{id} [put]
func (h *ConnectionHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	conn, err := h.connections.UpdateConnection(userID, id, services.ConnectionUpdate{
		Name:                  req.Name,
		ReminderFrequencyDays: req.ReminderFrequencyDays,
		ReachOutPriority:      req.ReachOutPriority,
		Notes:                 req.Notes,
		Type:                  req.Type,
		KnowFrom:              req.KnowFrom,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connection": conn})
}

// MarkContacted godoc
// @Summary Mark a connection as contacted now
// @Description Sets last_contacted_at to the current time, resetting the outreach clock.
// @Tags connections
// @Produce json
// @Param id path int true "Connection ID"
// @Success 200 {object} models.Connection
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections/{id}/contacted [post]
func (h *ConnectionHandler) MarkContacted(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	conn, err := h.connections.MarkContacted(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connection": conn})
}

// Delete godoc
// @Summary Delete a connection
// @Tags connections
// @Param id path int true "Connection ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /connections/{id} [delete]
func (h *ConnectionHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.connections.DeleteConnection(userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
