package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Incident report
// @Description Aggregates incidents created in the inclusive date range.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} models.Report
// @Failure 400 {object} map[string]any "Invalid date"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /reports [get]
func (h *Handler) getReport(c *gin.Context) {
	var query ReportQuery
	log := h.logger.WithField("method", "getReport")

	if !h.bindQuery(c, log, &query) {
		return
	}

	report, err := h.reports.Report(c.Request.Context(), parseDate(query.From), parseDate(query.To))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
