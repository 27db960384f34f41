package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dentect/dentist-clinic-backend/internal/config"
	"github.com/Dentect/dentist-clinic-backend/internal/email"
	"github.com/Dentect/dentist-clinic-backend/internal/handler"
	authHandler "github.com/Dentect/dentist-clinic-backend/internal/handler/auth"
	patientHandler "github.com/Dentect/dentist-clinic-backend/internal/handler/patient"
	"github.com/Dentect/dentist-clinic-backend/internal/middleware"
	"github.com/Dentect/dentist-clinic-backend/internal/repository/postgres"
	"github.com/Dentect/dentist-clinic-backend/internal/router"
	authService "github.com/Dentect/dentist-clinic-backend/internal/service/auth"
	patientService "github.com/Dentect/dentist-clinic-backend/internal/service/patient"
	pkgauth "github.com/Dentect/dentist-clinic-backend/pkg/auth"
	"github.com/Dentect/dentist-clinic-backend/pkg/logger"
	"github.com/Dentect/dentist-clinic-backend/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appLogger := logger.NewLogger(nil)

	// Repositories
	dentistRepo := postgres.NewDentistRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	txRunner := postgres.NewBaseRepository(db)

	// Services
	jwtSvc := pkgauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(12)

	var emailSvc email.Service
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewService(cfg.SMTP)
	}

	authSvc := authService.NewService(dentistRepo, jwtSvc, hasher, emailSvc, appLogger)
	patientSvc := patientService.NewService(dentistRepo, patientRepo, outboxRepo, &txRunner, appLogger)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	patientH := patientHandler.NewHandler(patientSvc)

	r := router.NewRouter(authMiddleware, authH, patientH, h, router.RouterConfig{
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
		CORSConfig:     middleware.DefaultCORSConfig(),
		MetricsPrefix:  "clinic_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
