package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	v1 "github.com/shenikar/civic_incident_tracker/internal/handler/http/v1"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// ServeOptions - флаги команды serve
type ServeOptions struct {
	Port           string
	SkipMigrations bool
}

// NewServeCommand создает команду запуска HTTP-сервера
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			if opts.Port != "" {
				cfg.HTTPPort = opts.Port
			}
			return runServe(cmd.Context(), cfg, log, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "HTTP port (overrides HTTP_PORT)")
	cmd.Flags().BoolVar(&opts.SkipMigrations, "skip-migrations", false, "do not apply migrations on start")

	return cmd
}

// newRouter настраивает gin: API v1 и Swagger UI
func newRouter(handler *v1.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return router
}

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts *ServeOptions) error {
	// Контекст для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Запуск миграций
	if !opts.SkipMigrations {
		if err := runMigrations(cfg, log); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, only anonymous requests will be accepted")
	}

	handler := v1.NewHandler(a.service, log, cfg)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: newRouter(handler),
	}

	// Запуск сервера в горутине
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("error starting HTTP server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal, shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server gracefully stopped")
	return nil
}
