package routes

import (
	"context"
	"net/http"
	"time"

	"calibook/database"
	"calibook/handlers"
	"calibook/middleware"
	"calibook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the inbound messaging endpoint the transport
// adapter posts to.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.POST("/turn", hb.ChatTurnHandler)
	}
}

// RegisterAdminRoutes registers the dashboard CRUD surface. Everything here
// requires a bearer token; appointment creation goes through the arbiter.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	api.Use(middleware.JWTAuthMiddleware())
	{
		api.POST("/providers", hb.CreateProviderHandler)
		api.GET("/providers/:id", hb.GetProviderHandler)
		api.PUT("/providers/:id", hb.UpdateProviderHandler)
		api.DELETE("/providers/:id", hb.DeleteProviderHandler)
		api.GET("/providers/:id/sessions", hb.ActiveSessionsHandler)

		api.POST("/providers/:id/agents", hb.CreateAgentHandler)
		api.GET("/providers/:id/agents", hb.ListAgentsHandler)
		api.PUT("/agents/:id", hb.UpdateAgentHandler)
		api.PUT("/agents/:id/mode", hb.SetAgentModeHandler)

		api.PUT("/hours", hb.UpsertHoursHandler)
		api.GET("/hours/:scopeId", hb.GetHoursHandler)
		api.DELETE("/hours/:scopeId/:weekday", hb.DeleteHoursHandler)

		api.POST("/agents/:id/blocked", hb.CreateBlockedRangeHandler)
		api.DELETE("/blocked/:id", hb.DeleteBlockedRangeHandler)

		api.PUT("/tiers", hb.UpsertTierHandler)
		api.GET("/tiers/:id", hb.ListTiersHandler)
		api.DELETE("/tiers/:id", hb.DeleteTierHandler)

		api.PUT("/providers/:id/extras", hb.UpsertExtraHandler)
		api.GET("/providers/:id/extras", hb.ListExtrasHandler)
		api.DELETE("/extras/:id", hb.DeleteExtraHandler)

		api.POST("/appointments", hb.CreateAppointmentHandler)
		api.GET("/agents/:id/appointments", hb.ListAppointmentsHandler)
		api.POST("/appointments/:id/cancel", hb.CancelAppointmentHandler)
		api.PUT("/appointments/:id/status", hb.UpdateAppointmentStatusHandler)

		api.POST("/blacklist", hb.AddBlacklistHandler)
		api.DELETE("/blacklist/:phone", hb.RemoveBlacklistHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		mongoOK := database.MongoClient.Ping(ctx, nil) == nil
		redisOK := utils.GetSessionCacheClient().Ping(ctx).Err() == nil
		status := http.StatusOK
		if !mongoOK || !redisOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"mongo": mongoOK, "redis": redisOK})
	})
}

// CORSMiddleware returns the CORS policy for the dashboard origin.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
