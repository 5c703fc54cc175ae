package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	authed := api.Group("")
	authed.Use(IdentityMiddleware(h.cfg.JWTSecret, h.logger))

	// Маршруты для обращений граждан
	incidents := authed.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id/status", h.updateStatus)
		incidents.GET("/:id/history", h.getHistory)
	}

	// Маршруты аналитики для администраторов
	authed.GET("/analytics/dashboard", h.getDashboard)
}
