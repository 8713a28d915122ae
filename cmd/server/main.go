package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital-appointments/internal/config"
	"hospital-appointments/internal/database"
	"hospital-appointments/internal/handler"
	"hospital-appointments/internal/metrics"
	"hospital-appointments/internal/repository"
	"hospital-appointments/internal/service"
	"hospital-appointments/pkg/logger"
	"hospital-appointments/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log := logger.New(cfg.Log.Level)
	log.Info("Configuration loaded successfully")

	// 2. Session signing key, injected rather than global
	tokens := utils.NewTokenManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection and schema
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 4. Initialize repositories
	hospitalRepo := repository.NewHospitalRepo(db)
	patientRepo := repository.NewPatientRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	doctorRepo := repository.NewDoctorRepo(db)
	appointmentRepo := repository.NewAppointmentRepo(db)

	// 5. Initialize services
	authService := service.NewAuthService(hospitalRepo, patientRepo, sessionRepo, auditRepo, tokens, log)
	hospitalService := service.NewHospitalService(hospitalRepo, doctorRepo, auditRepo)
	doctorService := service.NewDoctorService(db, doctorRepo, auditRepo, log)
	appointmentService := service.NewAppointmentService(db, appointmentRepo, doctorRepo, hospitalRepo, patientRepo, auditRepo, log, m, cfg.Appointment.AssignMaxAttempts)
	assignmentService := service.NewAssignmentService(db, appointmentRepo, doctorRepo, auditRepo, log, m, cfg.Appointment.AssignMaxAttempts)

	// 6. Routes
	gin.SetMode(cfg.Server.GinMode)
	r := handler.NewRouter(handler.RouterDeps{
		Config:      cfg,
		Logger:      log,
		Tokens:      tokens,
		Metrics:     m,
		Gatherer:    registry,
		Auth:        handler.NewAuthHandler(authService, cfg.JWT.RefreshTokenExpiry),
		Hospitals:   handler.NewHospitalHandler(hospitalService),
		Doctors:     handler.NewDoctorHandler(doctorService),
		Appointment: handler.NewAppointmentHandler(appointmentService, assignmentService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Serve until interrupted
	go func() {
		log.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exited")
}
