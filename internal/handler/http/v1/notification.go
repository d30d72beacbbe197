package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary List notifications
// @Description Newest first, at most 50.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (h *Handler) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.notifications.All())
}

// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CountResponse
// @Router /notifications/unread-count [get]
func (h *Handler) unreadNotificationCount(c *gin.Context) {
	c.JSON(http.StatusOK, CountResponse{Count: h.notifications.UnreadCount()})
}

// @Summary Mark a notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *Handler) markNotificationRead(c *gin.Context) {
	id := c.Param("id")
	if !h.notifications.MarkAsRead(c.Request.Context(), id) {
		h.logger.WithField("method", "markNotificationRead").WithField("id", id).Warn("Notification not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CountResponse "Number of notifications changed"
// @Router /notifications/read-all [post]
func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	c.JSON(http.StatusOK, CountResponse{Count: h.notifications.MarkAllAsRead(c.Request.Context())})
}

// @Summary Remove a notification
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id} [delete]
func (h *Handler) removeNotification(c *gin.Context) {
	id := c.Param("id")
	if !h.notifications.Remove(c.Request.Context(), id) {
		h.logger.WithField("method", "removeNotification").WithField("id", id).Warn("Notification not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Clear all notifications
// @Tags Notifications
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /notifications [delete]
func (h *Handler) clearNotifications(c *gin.Context) {
	h.notifications.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}
