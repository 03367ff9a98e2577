package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	cmdhandler "gps-tracker/internal/command/handler"
	cmdrepository "gps-tracker/internal/command/repository"
	cmdservice "gps-tracker/internal/command/service"
	"gps-tracker/internal/config"
	"gps-tracker/internal/database"
	devhandler "gps-tracker/internal/device/handler"
	devrepository "gps-tracker/internal/device/repository"
	devservice "gps-tracker/internal/device/service"
	geohandler "gps-tracker/internal/geofence/handler"
	georepository "gps-tracker/internal/geofence/repository"
	geoservice "gps-tracker/internal/geofence/service"
	"gps-tracker/internal/ingestion"
	locrepository "gps-tracker/internal/location/repository"
	"gps-tracker/internal/logger"
	"gps-tracker/internal/middleware"
	"gps-tracker/internal/monitor"
	"gps-tracker/internal/systemlog"
)

// Dependencies bundles the shared singletons the router wires the feature
// stacks around.
type Dependencies struct {
	Config  *config.Config
	DB      *database.Database
	Monitor *monitor.Monitor

	// AlertPublisher may be nil when no MQTT broker is configured.
	AlertPublisher geoservice.AlertPublisher
}

func SetupRoutes(deps *Dependencies) *gin.Engine {
	cfg := deps.Config
	db := deps.DB

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware in order: recovery, request ID, logging, security headers,
	// CORS, request size limit, general rate limit.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	deviceRepo := devrepository.NewRepository(db)
	locationRepo := locrepository.NewRepository(db)
	commandRepo := cmdrepository.NewRepository(db)
	geofenceRepo := georepository.NewRepository(db)
	syslogRepo := systemlog.NewRepository(db)

	syslogService := systemlog.NewService(syslogRepo)
	commandService := cmdservice.NewService(commandRepo, deviceRepo, syslogService)
	geofenceService := geoservice.NewService(geofenceRepo, commandService, syslogService, deps.AlertPublisher)
	deviceService := devservice.NewService(deviceRepo, locationRepo, geofenceRepo)
	ingestionService := ingestion.NewService(deviceRepo, locationRepo, commandService, geofenceService, deps.Monitor, syslogService)

	ingestionHandler := ingestion.NewHandler(ingestionService)
	deviceHandler := devhandler.NewHandler(deviceService)
	commandHandler := cmdhandler.NewHandler(commandService)
	geofenceHandler := geohandler.NewHandler(geofenceService)
	syslogHandler := systemlog.NewHandler(syslogService)

	api := router.Group("/api")
	{
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ok",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})

		api.GET("/health", func(c *gin.Context) {
			if err := db.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "Database connection failed",
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"message": "Service is running",
			})
		})

		// Device-facing boundary. Trackers authenticate by hardware ID only;
		// unknown devices get the reboot recovery envelope instead of 404.
		ingestionHandler.RegisterRoutes(api)

		// Dashboard surface behind JWT bearer auth.
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			deviceHandler.RegisterRoutes(protected)
			commandHandler.RegisterRoutes(protected)
			geofenceHandler.RegisterRoutes(protected)
			syslogHandler.RegisterRoutes(protected)
		}
	}

	logger.Info("All routes initialized")
	return router
}
