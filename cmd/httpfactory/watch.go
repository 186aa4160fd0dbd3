package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpfactory "github.com/rajindersingh041/http-factory"
	"github.com/rajindersingh041/http-factory/broker"
)

var (
	watchInterval   time.Duration
	watchListen     string
	watchPathParams map[string]string
	watchQuery      map[string]string
)

var watchCmd = &cobra.Command{
	Use:   "watch [service] <endpoint>",
	Short: "Poll an endpoint on an interval",
	Long: `Poll an endpoint on a fixed interval until interrupted. Each poll
prints one line with the status code, latency, and body size.

With --listen, an ops server exposes Prometheus metrics at /metrics and a
liveness probe at /healthz while the watch runs.`,
	Example: `  httpfactory watch upstox market_status --path segment=NSE_EQ --interval 10s
  httpfactory watch groww sector_data --listen :9090`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, endpoint, err := serviceEndpointArgs(args)
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		svc, err := buildService(name, httpfactory.WithMetricsRegistry(registry))
		if err != nil {
			return err
		}
		defer svc.Close()

		var opts []broker.CallOption
		if len(watchPathParams) > 0 {
			opts = append(opts, broker.WithPathParams(watchPathParams))
		}
		if len(watchQuery) > 0 {
			opts = append(opts, broker.WithQuery(watchQuery))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watchListen != "" {
			srv := opsServer(watchListen, registry, svc)
			go func() {
				logger.Info("Ops server listening", zap.String("addr", watchListen))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Ops server failed", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Ops server shutdown", zap.Error(err))
				}
			}()
		}

		poll := func() {
			start := time.Now()
			resp, err := svc.Call(ctx, endpoint, opts...)
			stamp := time.Now().Format("15:04:05")
			if err != nil {
				fmt.Printf("%s  ERR  %v\n", stamp, err)
				return
			}
			fmt.Printf("%s  %d  %-8s %dB\n",
				stamp, resp.StatusCode, time.Since(start).Round(time.Millisecond), len(resp.Body))
		}

		poll()
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				fmt.Println()
				printStats(svc.Stats())
				return nil
			case <-ticker.C:
				poll()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "polling interval")
	watchCmd.Flags().StringVar(&watchListen, "listen", "", "serve /metrics and /healthz on this address")
	watchCmd.Flags().StringToStringVar(&watchPathParams, "path", nil, "path parameters (k=v)")
	watchCmd.Flags().StringToStringVar(&watchQuery, "query", nil, "query parameters (k=v)")
}

// opsServer serves the watch loop's metrics registry and a health probe.
func opsServer(addr string, registry *prometheus.Registry, svc broker.Service) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := svc.Health(req.Context())
		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
