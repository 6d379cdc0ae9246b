package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"spinlog/internal/apitest"
)

func newFakeAPICmd() *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "fakeapi",
		Short: "Serve an in-memory backend for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.FakeAPI.Addr
			}

			if !cfg.IsDevelopment() {
				logger.Warn("fake backend started outside the development environment")
			}
			if !cfg.FakeAPI.RequireAuth {
				logger.Warn("fake backend accepts unauthenticated writes")
			}

			backend := apitest.New(apitest.Options{
				JWTSecret:   cfg.FakeAPI.JWTSecret,
				RequireAuth: cfg.FakeAPI.RequireAuth,
			})
			if seed {
				demo, err := seedDemoData(backend)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Demo account: %s / %s\n", demo.Email, demoPassword)
			}

			root := chi.NewRouter()
			root.Use(middleware.RequestID)
			root.Use(apitest.AccessLog(logger.With("fakeapi")))
			root.Use(apitest.CORS(cfg.FakeAPI.AllowedOrigin))
			root.Handle("/metrics", promhttp.Handler())
			root.Mount("/", backend.Routes())

			server := &http.Server{
				Addr:              addr,
				Handler:           root,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Zerolog().Info().Str("addr", addr).Msg("fake backend listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down fake backend")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to fake_api.addr)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load a demo account with reviews, follows and a list")
	return cmd
}
