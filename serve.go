package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/api"
	configx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/config"
	logx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	logCfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return err
	}
	logx.Init(*logCfg)

	appCfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return err
	}
	httpCfg, err := configx.New[api.Config]("HTTP")
	if err != nil {
		return err
	}
	authCfg, err := configx.New[api.AuthConfig]("AUTH")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: *appCfg}
	defer a.Close()

	orch, err := buildOrchestrator(ctx, a)
	if err != nil {
		return err
	}

	if !httpCfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         httpCfg.Addr,
		Handler:      api.NewRouter(orch, *httpCfg, []byte(authCfg.JWTSecret)),
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", httpCfg.Addr).
			Str("state_backend", appCfg.StateBackend).
			Str("catalog_backend", appCfg.CatalogBackend).
			Msg("http server listening")
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

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
