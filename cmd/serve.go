package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slotbook/config"
	"slotbook/cron"
	"slotbook/database"
	"slotbook/handlers"
	"slotbook/middleware"
	"slotbook/routes"
	"slotbook/utils"
)

func newServeCmd() *cobra.Command {
	var ensureIndexes bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the expiry sweeper and the expiry worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			logger := a.logger
			cfg := config.AppConfig

			if ensureIndexes {
				if err := a.repo.EnsureIndexes(ctx); err != nil {
					return err
				}
			}

			utils.StartHealthMonitor(ctx, time.Minute, database.Ping, utils.RedisClients())

			bg := newBackground(ctx, logger)
			defer bg.Stop()
			bg.Go("sweeper", a.sweeper.Run)
			if cfg.RedisEnabled {
				bg.Go("expiry-worker", func(ctx context.Context) error {
					return cron.RunExpiryWorker(ctx, a.sweeper, logger)
				})
			}

			if config.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(utils.ErrorHandler())
			router.Use(middleware.RequestLogger(logger))
			router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

			hb := handlers.NewHandlerBundle(
				handlers.NewBookingHandler(a.service),
				handlers.NewPaymentHandler(a.service, a.sandbox),
				[]byte(cfg.JWTSecret),
			)
			routes.RegisterRoutes(router, hb)

			srv := &http.Server{
				Addr:              "0.0.0.0:" + cfg.AppPort,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			logger.Info("Server is shutting down")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("Server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&ensureIndexes, "ensure-indexes", true, "create store indexes or schema on startup")
	return cmd
}
