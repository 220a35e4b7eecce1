// File: calibook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calibook/config"
	"calibook/database"
	agentRepoPkg "calibook/database/repository/agent"
	appointmentRepoPkg "calibook/database/repository/appointment"
	blacklistRepoPkg "calibook/database/repository/blacklist"
	pricingRepoPkg "calibook/database/repository/pricing"
	providerRepoPkg "calibook/database/repository/provider"
	scheduleRepoPkg "calibook/database/repository/schedule"
	sessionRepoPkg "calibook/database/repository/session"
	"calibook/handlers"
	"calibook/middleware"
	"calibook/routes"
	"calibook/services/booking"
	"calibook/services/calendar"
	"calibook/services/gate"
	"calibook/services/pricing"
	"calibook/services/session"
	"calibook/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSMiddleware())

	// repositories.
	provRepo := providerRepoPkg.NewMongoProviderRepo()
	agentRepo := agentRepoPkg.NewMongoAgentRepo()
	schedRepo := scheduleRepoPkg.NewMongoScheduleRepo()
	apptRepo := appointmentRepoPkg.NewMongoAppointmentRepo()
	priceRepo := pricingRepoPkg.NewMongoPricingRepo()
	blRepo := blacklistRepoPkg.NewMongoBlacklistRepo(15 * time.Minute)

	idle := time.Duration(config.AppConfig.SessionIdleMinutes) * time.Minute
	sessRepo := sessionRepoPkg.NewMongoSessionRepo(idle)

	// services.
	loader := &calendar.Loader{Schedule: schedRepo, Appointments: apptRepo}
	bookingGate := &gate.Gate{
		Blacklist:       blRepo,
		SurfaceWhenAway: config.AppConfig.SurfaceWhenAway,
	}
	resolver := &pricing.Resolver{Repo: priceRepo}
	arbiter := booking.NewArbiter(provRepo, agentRepo, apptRepo, loader, bookingGate)
	engine := session.NewEngine(
		sessRepo, provRepo, agentRepo, priceRepo, resolver, loader, bookingGate, arbiter,
		idle,
		config.AppConfig.ChatHistoryCap,
		config.AppConfig.WindowsPerBatch,
		config.AppConfig.BookingHorizonDays,
	)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Engine:          engine,
		Arbiter:         arbiter,
		ProviderRepo:    provRepo,
		AgentRepo:       agentRepo,
		ScheduleRepo:    schedRepo,
		PricingRepo:     priceRepo,
		AppointmentRepo: apptRepo,
		SessionRepo:     sessRepo,
		BlacklistRepo:   blRepo,
	}

	routes.RegisterChatRoutes(router, handlerBundle)
	routes.RegisterAdminRoutes(router, handlerBundle)
	routes.RegisterHealthRoute(router)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
