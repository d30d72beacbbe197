package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/resq_dispatch/internal/models"
)

// @Summary Report a new incident
// @Description Register an emergency call as a new incident with status "new".
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param incident body CreateIncidentRequest true "Incident intake form"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]any "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if !h.bindJSON(c, log, &input) {
		return
	}

	incident, err := h.incidents.AddIncident(c.Request.Context(), DTOToIncidentDraft(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(incident))
}

// @Summary List incidents
// @Description List incidents, newest first, narrowed by the optional filters.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status or 'all'"
// @Param type query string false "Type or 'all'"
// @Param barangay query string false "Barangay or 'all'"
// @Param search query string false "Case-insensitive text search"
// @Param dateFrom query string false "YYYY-MM-DD, inclusive"
// @Param dateTo query string false "YYYY-MM-DD, inclusive"
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]any "Invalid filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	var query ListIncidentsQuery
	log := h.logger.WithField("method", "listIncidents")

	if !h.bindQuery(c, log, &query) {
		return
	}

	incidents, err := h.incidents.ListIncidents(c.Request.Context(), QueryToIncidentFilter(query))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID, e.g. INC-0001"
// @Success 200 {object} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidents.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Change incident status
// @Description Move the incident to a new status and append a timeline entry.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]any "Unknown status"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Transition not allowed"
// @Router /incidents/{id}/status [patch]
func (h *Handler) updateIncidentStatus(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "updateIncidentStatus").WithField("id", id)

	var input UpdateStatusRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	status, err := models.ParseIncidentStatus(input.Status)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	actor := input.UpdatedBy
	if actor == "" {
		if session, ok := sessionFrom(c); ok {
			actor = session.User.Name
		}
	}

	incident, err := h.incidents.UpdateStatus(c.Request.Context(), id, status, actor)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Assign a responder
// @Description Assign a responder unit; the incident becomes "assigned".
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param assignment body AssignResponderRequest true "Responder to assign"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 404 {object} map[string]string "Incident or responder not found"
// @Failure 409 {object} map[string]string "Assignment not allowed"
// @Router /incidents/{id}/assign [post]
func (h *Handler) assignResponder(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "assignResponder").WithField("id", id)

	var input AssignResponderRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	name, unit := input.ResponderName, input.Unit
	if name == "" || unit == "" {
		responder, err := h.responders.GetResponder(c.Request.Context(), input.ResponderID)
		if err != nil {
			h.respondError(c, log, err)
			return
		}
		if name == "" {
			name = responder.Name
		}
		if unit == "" {
			unit = responder.Unit
		}
	}

	incident, err := h.incidents.AssignResponder(c.Request.Context(), id, input.ResponderID, name, unit)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Add a timeline entry
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param event body TimelineEventRequest true "Timeline entry"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id}/timeline [post]
func (h *Handler) addTimelineEvent(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "addTimelineEvent").WithField("id", id)

	var input TimelineEventRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	actor := input.User
	if actor == "" {
		if session, ok := sessionFrom(c); ok {
			actor = session.User.Name
		}
	}

	incident, err := h.incidents.AddTimelineEvent(c.Request.Context(), id, input.Event, input.Description, actor)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Select an incident
// @Description Mark the incident as the one shown in the detail panel.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id}/select [post]
func (h *Handler) selectIncident(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "selectIncident").WithField("id", id)

	incident, err := h.incidents.SelectIncident(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Get the selected incident
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} IncidentResponse
// @Success 204 "Nothing selected"
// @Router /incidents/selected [get]
func (h *Handler) getSelectedIncident(c *gin.Context) {
	log := h.logger.WithField("method", "getSelectedIncident")

	incident, err := h.incidents.SelectedIncident(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	if incident == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Clear the selection
// @Tags Incidents
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /incidents/selected [delete]
func (h *Handler) clearSelectedIncident(c *gin.Context) {
	log := h.logger.WithField("method", "clearSelectedIncident")

	if _, err := h.incidents.SelectIncident(c.Request.Context(), ""); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List barangays
// @Description Distinct barangays referenced by incidents, sorted.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} string
// @Router /incidents/barangays [get]
func (h *Handler) listBarangays(c *gin.Context) {
	log := h.logger.WithField("method", "listBarangays")

	barangays, err := h.incidents.Barangays(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, barangays)
}
