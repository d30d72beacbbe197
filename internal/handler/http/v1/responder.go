package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/resq_dispatch/internal/models"
)

const defaultNearestLimit = 3

// @Summary List responders
// @Tags Responders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Responder
// @Router /responders [get]
func (h *Handler) listResponders(c *gin.Context) {
	log := h.logger.WithField("method", "listResponders")

	responders, err := h.responders.ListResponders(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, responders)
}

// @Summary Nearest responders
// @Description Available units first, then by distance to the point.
// @Tags Responders
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param limit query int false "Max results" default(3)
// @Success 200 {array} models.Responder
// @Failure 400 {object} map[string]any "Validation error"
// @Router /responders/nearest [get]
func (h *Handler) nearestResponders(c *gin.Context) {
	var query NearestQuery
	log := h.logger.WithField("method", "nearestResponders")

	if !h.bindQuery(c, log, &query) {
		return
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultNearestLimit
	}

	point := models.Coordinates{Lat: *query.Lat, Lng: *query.Lng}
	responders, err := h.responders.Nearest(c.Request.Context(), point, limit)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, responders)
}

// @Summary Update responder location
// @Tags Responders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Responder ID, e.g. RESP-001"
// @Param location body UpdateLocationRequest true "New position"
// @Success 200 {object} models.Responder
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 404 {object} map[string]string "Responder not found"
// @Router /responders/{id}/location [put]
func (h *Handler) updateResponderLocation(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "updateResponderLocation").WithField("id", id)

	var input UpdateLocationRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	responder, err := h.responders.UpdateLocation(c.Request.Context(), id, models.Coordinates{Lat: *input.Lat, Lng: *input.Lng})
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, responder)
}

// @Summary Update responder status
// @Tags Responders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Responder ID"
// @Param status body UpdateResponderStatusRequest true "New status"
// @Success 200 {object} models.Responder
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 404 {object} map[string]string "Responder not found"
// @Router /responders/{id}/status [put]
func (h *Handler) updateResponderStatus(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "updateResponderStatus").WithField("id", id)

	var input UpdateResponderStatusRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	responder, err := h.responders.UpdateStatus(c.Request.Context(), id, models.ResponderStatus(input.Status))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, responder)
}
