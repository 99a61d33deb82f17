package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gatherly/gatherly/internal/ai"
	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/background"
	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/internal/handlers"
	middlewareCustom "github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/repositories"
	"github.com/gatherly/gatherly/internal/routes"
	"github.com/gatherly/gatherly/internal/services"
	pkgauth "github.com/gatherly/gatherly/pkg/auth"
	pkglogger "github.com/gatherly/gatherly/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	chatRepo := repositories.NewChatMessageRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
		cfg.Auth.ResetTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Timing delay for credential checks
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   100,
		RandomDelayMs: 50,
	})

	// Email delivery
	var emailSender services.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		sesSender, err := services.NewSESEmailSender(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize SES email sender", slog.Any("error", err))
			os.Exit(1)
		}
		emailSender = sesSender
	default:
		emailSender = services.NewLogEmailSender(logger)
	}

	// AI responder
	var responder ai.Responder
	switch cfg.AI.Provider {
	case "openai":
		responder = ai.NewOpenAIResponder(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens, cfg.AI.Timeout, logger)
	default:
		responder = ai.NewMockResponder()
	}

	// Initialize services
	auditService := services.NewAuditService(auditRepo, logger, auditLogger)
	authService := services.NewAuthService(userRepo, tokenManager, nil, emailSender, auditService, timingDelay, logger, auditLogger, cfg.Server.FrontendURL)
	mfaService := services.NewMFAService(userRepo, emailSender, auditService, authService, logger, cfg.Auth.MFACodeExpiry)
	authService.SetChallenger(mfaService)
	helpDeskService := services.NewHelpDeskService(chatRepo, responder, logger)
	eventService := services.NewEventService(eventRepo, auditService, logger)
	adminService := services.NewAdminService(userRepo, auditService, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, mfaService)
	helpDeskHandler := handlers.NewHelpDeskHandler(helpDeskService)
	eventHandler := handlers.NewEventHandler(eventService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Cleanup manager for stale MFA codes and old audit rows
	cleanupManager := background.NewCleanupManager(userRepo, auditRepo, logger, cfg.Auth.CleanupInterval, cfg.Auth.AuditRetention)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.FrontendURL)
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, helpDeskHandler, eventHandler, adminHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Roles:        []string{models.RoleAdmin},
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
