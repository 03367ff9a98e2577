package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gps-tracker/internal/config"
	"gps-tracker/internal/database"
	devrepository "gps-tracker/internal/device/repository"
	"gps-tracker/internal/events"
	geoservice "gps-tracker/internal/geofence/service"
	"gps-tracker/internal/logger"
	"gps-tracker/internal/monitor"
	"gps-tracker/internal/routes"
	"gps-tracker/internal/systemlog"
	"gps-tracker/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// MQTT is optional: without a broker the dashboards fall back to
	// polling and everything else keeps working.
	var publisher *events.Publisher
	var mqttClient *mqtt.Client
	if cfg.MQTT.Broker != "" {
		mqttClient = mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         true,
			KeepAlive:            30,
			ConnectTimeout:       10,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
		})
		if err := mqttClient.Connect(); err != nil {
			logger.Warn("MQTT broker unreachable, continuing without event publishing", zap.Error(err))
			mqttClient = nil
		} else {
			publisher = events.NewPublisher(mqttClient, cfg.MQTT.TopicPrefix)
			defer mqttClient.Disconnect()
		}
	}

	deviceRepo := devrepository.NewRepository(db)
	syslogService := systemlog.NewService(systemlog.NewRepository(db))

	var statusPublisher monitor.StatusPublisher
	if publisher != nil {
		statusPublisher = publisher
	}
	deviceMonitor := monitor.NewMonitor(
		deviceRepo,
		syslogService,
		statusPublisher,
		monitor.SystemClock(),
		cfg.Monitor.SweepInterval,
		cfg.Monitor.HeartbeatTimeout,
	)
	deviceMonitor.Start()
	defer deviceMonitor.Stop()

	var alertPublisher geoservice.AlertPublisher
	if publisher != nil {
		alertPublisher = publisher
	}
	router := routes.SetupRoutes(&routes.Dependencies{
		Config:         cfg,
		DB:             db,
		Monitor:        deviceMonitor,
		AlertPublisher: alertPublisher,
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}
