package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/authstack/go-auth-service/internal/auth"
	"github.com/authstack/go-auth-service/internal/config"
	"github.com/authstack/go-auth-service/internal/database"
	"github.com/authstack/go-auth-service/internal/email"
	httpServer "github.com/authstack/go-auth-service/internal/http"
	"github.com/authstack/go-auth-service/internal/logging"
	"github.com/authstack/go-auth-service/internal/user"
)

// @title           Auth Service API
// @version         1.0
// @description     User authentication API: registration, login, logout and password reset via emailed one-time codes.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize the Firestore-backed user directory
	ctx := context.Background()
	firestoreClient, err := database.NewFirestoreClient(ctx, cfg.Firestore)
	if err != nil {
		return fmt.Errorf("failed to initialize Firestore: %w", err)
	}
	defer firestoreClient.Close()

	userRepo := user.NewRepository(firestoreClient)

	// Initialize session token signer
	tokenService, err := auth.NewPasetoService(cfg.Auth.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize email notifier
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
	)

	// Initialize the credential and session manager
	authService := auth.NewService(
		userRepo,
		emailService,
		tokenService,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		logger,
		cfg.Auth.SessionTokenTTL,
		cfg.Auth.ResetCodeTTL,
	)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(
		authService,
		!cfg.Server.IsDevelopment(), // isProduction
		cfg.Auth.SessionTokenTTL,
	)
	authMiddleware := auth.NewMiddleware(tokenService)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		logger,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
