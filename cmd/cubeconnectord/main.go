// cubeconnectord is the base-station pairing daemon: it drives a single
// cubeconnector.Connector over a simulated radio link (internal/radiosim),
// persists pairing state to SQLite (internal/store), and exposes
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sifteo/cubeconnectord/internal/config"
	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
	"github.com/sifteo/cubeconnectord/internal/cubemetrics"
	"github.com/sifteo/cubeconnectord/internal/cubeslot"
	"github.com/sifteo/cubeconnectord/internal/radiosim"
	"github.com/sifteo/cubeconnectord/internal/store"
	appversion "github.com/sifteo/cubeconnectord/internal/version"
)

// shutdownTimeout is the maximum time to wait for the metrics server to
// drain active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// ackTimeout bounds how long the radio stand-in waits for a cube's
// acknowledgement before the connector treats the attempt as timed out.
const ackTimeout = 500 * time.Millisecond

// neighborBeaconInterval is how often the neighbor-key beacon re-sends
// its idPattern/mask frame while pairing is in progress.
const neighborBeaconInterval = 50 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Parse flags.
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	// 2. Load config.
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	// 3. Set up logger.
	logger := newLogger(cfg.Log)

	logger.Info("cubeconnectord starting",
		slog.String("version", appversion.Version),
		slog.String("radio_listen_addr", cfg.Radio.ListenAddr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	// 4. Open the pairing store.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open pairing store",
			slog.String("path", cfg.Store.Path),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close pairing store", slog.String("error", err.Error()))
		}
	}()

	// 5. Create Prometheus metrics collector.
	reg := prometheus.NewRegistry()
	collector := cubemetrics.NewCollector(reg)

	// 6. Create the cube-slot manager and connector.
	slots := cubeslot.NewManager()

	conn, err := radiosim.DialUDP(cfg.Radio.ListenAddr, cfg.Radio.CubeAddr)
	if err != nil {
		logger.Error("failed to open radio socket",
			slog.String("listen_addr", cfg.Radio.ListenAddr),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("failed to close radio socket", slog.String("error", err.Error()))
		}
	}()

	beaconConn, err := radiosim.DialUDP(cfg.Radio.NeighborAddr, cfg.Radio.NeighborPeerAddr)
	if err != nil {
		logger.Error("failed to open neighbor-beacon socket",
			slog.String("listen_addr", cfg.Radio.NeighborAddr),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := beaconConn.Close(); err != nil {
			logger.Warn("failed to close neighbor-beacon socket", slog.String("error", err.Error()))
		}
	}()
	beacon := radiosim.NewNeighborBeacon(beaconConn, neighborBeaconInterval)
	defer beacon.Stop()

	connOpts := cubeconnector.Options{
		DisableReconnect: cfg.Protocol.DisableReconnect,
	}
	connector, err := cubeconnector.New(logger, cubeconnector.NewSystemPRNG(), beacon, slots, st, connOpts)
	if err != nil {
		logger.Error("failed to construct connector", slog.String("error", err.Error()))
		return 1
	}
	connector.WithMetrics(collector)

	// 7. Run servers and background goroutines.
	if err := runServers(cfg, connector, conn, reg, logger); err != nil {
		logger.Error("cubeconnectord exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("cubeconnectord stopped")
	return 0
}

// runServers drives the radio host, the periodic task flush, and the
// metrics HTTP server under a single errgroup with a signal-aware
// context for graceful shutdown.
func runServers(
	cfg *config.Config,
	connector *cubeconnector.Connector,
	conn *radiosim.UDPConn,
	reg *prometheus.Registry,
	logger *slog.Logger,
) error {
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	host := radiosim.NewHost(conn, connector, logger, radiosim.DeadlineAfter(ackTimeout))
	g.Go(func() error {
		if err := host.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("radio host: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return runTaskFlush(gCtx, connector, cfg.Protocol.TaskFlushInterval)
	})

	lc := net.ListenConfig{}
	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &lc, metricsSrv, cfg.Metrics.Addr)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// runTaskFlush ticks Connector.Task on interval. This ticker is the only
// thing that runs Task in the daemon: the connector's internal wake
// signal is not consumed, so dirty pairing records and recycled slots
// are persisted at most one interval after they change.
func runTaskFlush(ctx context.Context, connector *cubeconnector.Connector, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			connector.Task()
		}
	}
}

// gracefulShutdown shuts down the metrics server within shutdownTimeout.
// The radio host and task-flush goroutines exit on their own once ctx
// (already cancelled by the time this runs) propagates to them.
func gracefulShutdown(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

// listenAndServe creates a TCP listener using the ListenConfig (for noctx
// compliance) and serves HTTP requests until the server is shut down.
func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

// newMetricsServer creates an HTTP server for the Prometheus metrics endpoint.
func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

// newLogger creates a structured logger at the configured level and format.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
