// Command mealsvc runs the SEA Catering subscription API.
//
// Serve:
//
//	CSRF_SECRET=change-me go run ./cmd/mealsvc serve
//
// Seed demo data:
//
//	go run ./cmd/mealsvc seed
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seacatering/mealsvc/config"
	"github.com/seacatering/mealsvc/internal/api"
	"github.com/seacatering/mealsvc/internal/seed"
	"github.com/seacatering/mealsvc/internal/store"
	"github.com/seacatering/mealsvc/lifecycle"
	"github.com/seacatering/mealsvc/logz"
	"github.com/seacatering/mealsvc/metrics"
	otelinit "github.com/seacatering/mealsvc/otel"
)

const serviceName = "mealsvc"

// AppConfig is loaded from the environment at startup.
type AppConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" default:"info"`
	DBPath          string        `env:"DB_PATH" default:"data/mealsvc.db"`
	CSRFSecret      string        `env:"CSRF_SECRET" required:"false"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" required:"false"`
	TrustedProxies  []string      `env:"TRUSTED_PROXIES" required:"false"`
	AdminAllowCIDRs []string      `env:"ADMIN_ALLOW_CIDRS" required:"false"`
	OTLPEndpoint    string        `env:"OTLP_ENDPOINT" required:"false"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" default:"30s"`
	SessionSweep    time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1h"`
}

func main() {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "SEA Catering meal subscription service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad[AppConfig]()
			if cfg.CSRFSecret == "" {
				return fmt.Errorf("CSRF_SECRET must be set")
			}
			logger := logz.New(cfg.LogLevel)
			logger.Info("starting", "service", serviceName, "addr", cfg.HTTPAddr)

			shutdown := otelinit.Init(otelinit.Config{
				ServiceName: serviceName,
				Endpoint:    cfg.OTLPEndpoint,
			})
			defer shutdown(context.Background())

			st, err := store.OpenSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			srv := api.NewServer(api.Config{
				CSRFSecret:      cfg.CSRFSecret,
				AllowedOrigins:  cfg.AllowedOrigins,
				TrustedProxies:  cfg.TrustedProxies,
				AdminAllowCIDRs: cfg.AdminAllowCIDRs,
				RequestTimeout:  cfg.RequestTimeout,
			}, logger, st, metrics.New(serviceName, logger))

			handler := srv.Routes()

			return lifecycle.Run(cmd.Context(),
				func(ctx context.Context) error {
					httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
					ln, err := net.Listen("tcp", cfg.HTTPAddr)
					if err != nil {
						return err
					}
					logger.Info("http server listening", "addr", ln.Addr().String())

					errCh := make(chan error, 1)
					go func() { errCh <- httpSrv.Serve(ln) }()

					select {
					case <-ctx.Done():
						logger.Info("shutting down http server")
						return httpSrv.Shutdown(context.Background())
					case err := <-errCh:
						return err
					}
				},
				srv.SweepSessions(cfg.SessionSweep),
			)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo meal plans, users, and testimonials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad[AppConfig]()
			logger := logz.New(cfg.LogLevel)

			st, err := store.OpenSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			return seed.Run(cmd.Context(), st, logger)
		},
	}
}
