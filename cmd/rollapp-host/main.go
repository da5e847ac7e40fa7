// Command rollapp-host runs a built-in example rollup application against
// a running rollup HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/crabrolls-cartesi/rollapp-host/examples/blog"
	"github.com/crabrolls-cartesi/rollapp-host/examples/echo"
	rollapp "github.com/crabrolls-cartesi/rollapp-host/internal/rollup/app"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/client"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/environment"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/portal"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/supervisor"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

func main() {
	Execute()
}

func buildApp(name string) (rollapp.Application, error) {
	switch name {
	case "", "echo":
		return echo.New(), nil
	case "blog":
		return blog.New(), nil
	default:
		return nil, fmt.Errorf("rollapp-host: unknown app %q (want echo or blog)", name)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	application, err := buildApp(cfg.App)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rollupClient := client.NewClient(client.WithBaseURL(cfg.RollupURL), client.WithLogger(logger))
	wallets := portal.NewWallets()
	book := types.DefaultAddressBook()
	dispatcher := portal.NewDispatcher(book, wallets)
	env := environment.New(rollupClient, wallets)

	metrics := supervisor.NewMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	sup := supervisor.New(rollupClient, dispatcher, env, application, supervisor.Options{
		PortalConfig: &cfg.PortalConfig,
		Logger:       logger,
		Metrics:      metrics,
	})

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: router}

	errc := make(chan error, 2)
	go func() {
		logger.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("rollapp-host: metrics server: %w", err)
			return
		}
		errc <- nil
	}()
	go func() {
		logger.Info("running supervisor", slog.String("rollup_url", cfg.RollupURL), slog.String("app", cfg.App))
		errc <- sup.Run(ctx)
	}()

	err = <-errc
	_ = metricsServer.Shutdown(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
