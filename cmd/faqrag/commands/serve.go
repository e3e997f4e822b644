package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/54b3r/faqrag-go/internal/logging"
	"github.com/54b3r/faqrag-go/internal/server"
)

// NewServeCmd constructs the `faqrag serve` command, which starts the HTTP
// server exposing POST /search.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the faqrag HTTP server",
		Long: `Start the faqrag HTTP server.

Endpoints:
  GET  /            landing page (FAQRAG_INDEX_FILE)
  POST /search      {"question": "...", "search_type": "semantic|sparse|hybrid"}
  GET  /api/health  liveness
  GET  /api/ready   readiness (Qdrant and LLM endpoint)
  GET  /metrics     Prometheus metrics

Examples:
  faqrag serve
  faqrag serve --port 9090
  MODEL_PROVIDER=ollama faqrag serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Flags win; otherwise env (possibly set from YAML by the root command).
			if !cmd.Flags().Changed("host") {
				host = envOr("FAQRAG_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = envInt("FAQRAG_PORT", port)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := server.NewMetrics(reg)

			deps, err := buildPipeline(ctx, log, metrics)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer deps.close()

			srv, err := server.New(deps.pipeline, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				IndexFile: envOr("FAQRAG_INDEX_FILE", "index.html"),
				Pingers: []server.Pinger{
					server.NewQdrantPinger(deps.qdrant),
					server.NewLLMPinger(deps.provider.HealthCheck(), string(deps.provider.Backend)),
				},
				CORSOrigins:     splitList(envOr("FAQRAG_CORS_ORIGINS", "*")),
				RateLimit:       envFloat("FAQRAG_RATE_LIMIT", 0),
				RateBurst:       envInt("FAQRAG_RATE_BURST", 0),
				Metrics:         metrics,
				MetricsGatherer: reg,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting", slog.String("addr", fmt.Sprintf("%s:%d", host, port)))
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env: FAQRAG_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on (env: FAQRAG_PORT)")

	return cmd
}
