package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/PolarWolf314/condlock/internal/api"
	logger "github.com/PolarWolf314/condlock/internal/logging"
	"github.com/PolarWolf314/condlock/internal/oracle"
	"github.com/PolarWolf314/condlock/internal/ratelimit"
	"github.com/PolarWolf314/condlock/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	serveVerbose bool
	serveDebug   bool
	serveConfig  string
	serveListen  string
	ServeLogger  logger.Logger
)

func init() {
	ServeCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "enable verbose output")
	ServeCmd.Flags().BoolVarP(&serveDebug, "debug", "d", false, "enable debug output")
	ServeCmd.Flags().StringVar(&serveConfig, "config", "", "path to config.toml (default: user config directory)")
	ServeCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "address to listen on (default from config, 127.0.0.1:8420)")
}

// ServeCmd runs the local JSON API.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the encrypt, decrypt and inspect operations over HTTP",
	Long: `Runs a local JSON API for other programs to lock and unlock notes.

Routes:
  POST /v1/encrypt   {"note", "asset", "targetPrice", "minPrice", "unlockTime"}
  POST /v1/decrypt   {"envelope"}
  POST /v1/inspect   {"envelope"}
  GET  /v1/assets    ?q=BTC&limit=20
  GET  /healthz
  GET  /metrics

The server listens on loopback by default. Notes travel in plain JSON, so put
it behind TLS before exposing it to a network.

Examples:
  condlock serve
  condlock serve --listen 127.0.0.1:9000 --verbose`,
	Args: cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ServeLogger = logger.Logger{Verbose: serveVerbose, Debug: serveDebug}
		// The shared helpers log through Logger.
		Logger = ServeLogger
		configPath = serveConfig
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ServeLogger.Infof("Starting serve command")

		sess, err := loadSession()
		if err != nil {
			fmt.Println(formatNoteError(err))
			return reported(err)
		}
		cfg := sess.config

		addr := cfg.Server.Listen
		if serveListen != "" {
			addr = serveListen
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		catalog := loadCatalog(cmd.Context(), cfg)
		checker, err := newChecker(cfg, catalog, oracle.NewMetrics(registry))
		if err != nil {
			fmt.Println(formatNoteError(err))
			return reported(err)
		}

		server := api.New(api.Options{
			Checker:      checker,
			Catalog:      catalog,
			History:      sess.history,
			Limiter:      ratelimit.New(cfg.Server.RequestsPerSecond, cfg.Server.Burst, 10*time.Minute),
			Registry:     registry,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			RoundTimeout: cfg.Oracle.RoundTimeout.Duration,
			Logger:       ServeLogger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Println(ui.Success.Sprint("✓") + " Serving on " + ui.Path.Sprint("http://"+addr) + " " + ui.Muted.Sprint("Ctrl-C to stop"))
		if err := server.ListenAndServe(ctx, addr); err != nil {
			return ServeLogger.ErrorfAndReturn("Server stopped: %v", err)
		}
		fmt.Println(ui.Info.Sprint("→") + " Server stopped")
		return nil
	},
}
