package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resourceroom/internal/app"
	"resourceroom/internal/calendar"
	"resourceroom/internal/config"
	"resourceroom/internal/handlers"
	"resourceroom/internal/security"
	"resourceroom/internal/service"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()
	loc := cfg.Location()
	ctx := context.Background()

	// Open storage and run migrations or index creation
	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	// Optional goal cache
	var goalCache service.GoalCache
	redisCache, err := app.OpenGoalCache(ctx, cfg)
	if err != nil {
		log.Printf("Warning: goal cache disabled: %v", err)
	} else if redisCache != nil {
		goalCache = redisCache
	}

	// Welcome emails
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	var mailer service.WelcomeMailer
	if emailService.IsEnabled() {
		mailer = emailService
	}

	if cfg.JWTSecret == "your-secret-key" {
		log.Println("Warning: JWT_SECRET is not set, using the development secret")
	}
	if cfg.RegistrationCode == "" {
		log.Println("Warning: TEACHER_REGISTRATION_CODE is not set, registration is closed")
	}

	// Initialize services
	clock := calendar.SystemClock{}
	tokenManager := security.NewTokenManager(cfg.JWTSecret, cfg.TokenDuration)

	studentService := service.NewStudentService(stores.Students)
	attendanceService := service.NewAttendanceService(studentService, stores.Students, stores.Sessions, clock, loc)
	tokenService := service.NewTokenService(stores.Students, stores.Sessions, clock, loc)
	goalService := service.NewGoalService(stores.Goals, goalCache, clock, loc)
	authService := service.NewAuthService(stores.Teachers, goalService, tokenManager, mailer, cfg.RegistrationCode)

	// Initialize handlers
	authLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, authLimiter, cfg.AllowedOrigins)

	authHandler := handlers.NewAuthHandler(authService)
	studentHandler := handlers.NewStudentHandler(studentService, attendanceService, tokenService)
	goalHandler := handlers.NewGoalHandler(goalService, loc)
	healthHandler := handlers.NewHealthHandler(stores.Ping, version)

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware, authHandler, studentHandler, goalHandler, healthHandler)

	// Configure server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      middleware.Chain(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s (storage: %s, timezone: %s)", addr, stores.Backend, loc)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Let pending group normalizations finish before closing storage
	studentService.Wait()
	authLimiter.Stop()

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Printf("Error closing goal cache: %v", err)
		}
	}
	if err := stores.Close(shutdownCtx); err != nil {
		log.Printf("Error closing storage: %v", err)
	}

	log.Println("Server stopped")
}
