package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shenikar/resq_dispatch/internal/models"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Открытые маршруты
	api.GET("/system/health", h.healthCheck)
	api.POST("/auth/login", h.login)

	protected := api.Group("")
	protected.Use(SessionAuthMiddleware(h.auth, h.logger))

	dispatch := RequireRoles(models.RoleDispatcher, models.RoleAdmin)

	// Сессия
	protected.POST("/auth/logout", h.logout)
	protected.GET("/auth/me", h.me)

	// Инциденты
	incidents := protected.Group("/incidents")
	{
		incidents.GET("", h.listIncidents)
		incidents.POST("", dispatch, h.createIncident)
		incidents.GET("/barangays", h.listBarangays)
		incidents.GET("/selected", h.getSelectedIncident)
		incidents.DELETE("/selected", h.clearSelectedIncident)
		incidents.GET("/:id", h.getIncident)
		incidents.PATCH("/:id/status", h.updateIncidentStatus)
		incidents.POST("/:id/assign", dispatch, h.assignResponder)
		incidents.POST("/:id/timeline", h.addTimelineEvent)
		incidents.POST("/:id/select", h.selectIncident)
	}

	// Экипажи
	responders := protected.Group("/responders")
	{
		responders.GET("", h.listResponders)
		responders.GET("/nearest", h.nearestResponders)
		responders.PUT("/:id/location", h.updateResponderLocation)
		responders.PUT("/:id/status", h.updateResponderStatus)
	}

	// Уведомления
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.listNotifications)
		notifications.DELETE("", h.clearNotifications)
		notifications.GET("/unread-count", h.unreadNotificationCount)
		notifications.POST("/read-all", h.markAllNotificationsRead)
		notifications.POST("/:id/read", h.markNotificationRead)
		notifications.DELETE("/:id", h.removeNotification)
	}

	protected.GET("/reports", dispatch, h.getReport)

	protected.GET("/chat/messages", h.listChatMessages)
	protected.POST("/chat/messages", h.sendChatMessage)

	// Геосервисы
	geoGroup := protected.Group("/geo")
	{
		geoGroup.GET("/distance", h.geoDistance)
		geoGroup.GET("/reverse", h.geoReverse)
		geoGroup.GET("/geocode", h.geoGeocode)
		geoGroup.GET("/current", h.geoCurrent)
	}

	if h.hub != nil {
		protected.GET("/ws", h.hub.ServeWS)
	}
}
