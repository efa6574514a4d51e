package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"taskmeet/internal/adapter/api"
	"taskmeet/internal/adapter/api/handler"
	apimiddleware "taskmeet/internal/adapter/api/middleware"
	"taskmeet/internal/adapter/api/router"
	"taskmeet/internal/domain/service"
	"taskmeet/internal/infrastructure/firebase"
	"taskmeet/internal/infrastructure/jwtauth"
	"taskmeet/internal/infrastructure/ratelimit"
	"taskmeet/internal/infrastructure/websocket"
	"taskmeet/internal/usecase"
	"taskmeet/pkg/config"
	"taskmeet/pkg/logger"
	"taskmeet/pkg/response"
)

const limiterCleanupInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Configure(cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fb *firebase.App
	if cfg.StorageDriver == config.StorageFirestore || cfg.AuthProvider == config.AuthFirebase {
		if fb, err = firebase.NewApp(ctx, cfg); err != nil {
			return err
		}
	}

	store, err := openStores(ctx, cfg, fb)
	if err != nil {
		return err
	}

	verifier, issuer, err := newAuth(ctx, cfg, fb)
	if err != nil {
		_ = store.close()
		return err
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine(ctx, limiterCleanupInterval)

	directory := usecase.NewDirectory(store.userRepo)
	chatUseCase := usecase.NewChatUseCase(store.chatRepo, directory, wsManager, limiter, cfg.StorageTimeout)
	callUseCase := usecase.NewCallUseCase(store.callRepo, wsManager, cfg.StorageTimeout)
	userUseCase := usecase.NewUserUseCase(store.userRepo, directory)
	dispatcher := websocket.NewDispatcher(wsManager, usecase.NewRealtimeGateway(chatUseCase, callUseCase), limiter)

	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(wsManager, cfg.StorageDriver, store.probe),
		User:      handler.NewUserHandler(userUseCase),
		Chat:      handler.NewChatHandler(chatUseCase),
		Call:      handler.NewCallHandler(callUseCase),
		WebSocket: handler.NewWebSocketHandler(ctx, wsManager, dispatcher, verifier, directory, cfg.AllowedOrigins, cfg.WSSendBuffer),
	}
	if cfg.IsDevelopment() && issuer != nil {
		handlers.DevToken = handler.NewDevTokenHandler(issuer)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.HTTPErrorHandler

	router.Setup(e, handlers,
		apimiddleware.NewAuthMiddleware(verifier),
		apimiddleware.NewAdminMiddleware(userUseCase),
		apimiddleware.RateLimit(limiter),
	)

	go func() {
		logger.Info("Starting server on port %s (%s, storage=%s, auth=%s)...", cfg.ServerPort, cfg.Environment, cfg.StorageDriver, cfg.AuthProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Error("Server stopped: %v", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
		"realtime": func(context.Context) error {
			cancel()
			wsManager.CloseAll()
			return nil
		},
		"storage": func(context.Context) error {
			return store.close()
		},
	})

	if exitCode := <-wait; exitCode != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", exitCode)
	}
	logger.Info("Server exited cleanly")
	return nil
}

// newAuth returns the token verifier for the configured provider. The issuer is
// only available for locally signed JWTs.
func newAuth(ctx context.Context, cfg *config.Config, fb *firebase.App) (service.TokenVerifier, service.TokenIssuer, error) {
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		client, err := fb.AuthClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil

	case config.AuthJWT:
		if cfg.JWTSecret == config.DefaultJWTSecret && !cfg.IsDevelopment() {
			logger.Warn("JWT_SECRET is the built-in default; set a real secret outside development")
		}
		auth := jwtauth.NewAuthenticator(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		return auth, auth, nil
	}

	return nil, nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
}
