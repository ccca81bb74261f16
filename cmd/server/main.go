package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eternalApril/hanabi/internal/buildinfo"
	"github.com/eternalApril/hanabi/internal/config"
	"github.com/eternalApril/hanabi/internal/logger"
	"github.com/eternalApril/hanabi/internal/server"
	"github.com/eternalApril/hanabi/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:    buildinfo.Name,
		Usage:   "in-memory key-value server speaking RESP2",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   ".",
				Usage:   "directory containing config.yaml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "address to listen on, overrides server.host",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on, overrides server.port",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error, overrides log.level",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	loader := config.NewLoader(c.String("config"))

	cfg, err := loader.Load()
	if err != nil {
		return cli.Exit("cant load config: "+err.Error(), 1)
	}

	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	log, level, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Hanabi starting",
		zap.String("version", buildinfo.String()),
		zap.String("config", loader.ConfigFileUsed()),
	)

	// the flag wins over the file for the whole run
	if !c.IsSet("log-level") {
		loader.Watch(func(newCfg *config.Config, err error) {
			if err != nil {
				log.Warn("cant reload config", zap.Error(err))
				return
			}
			level.SetLevel(logger.ParseLevel(newCfg.Log.Level))
			log.Info("config reloaded", zap.String("log_level", level.String()))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := storage.NewKeyspace()

	var metrics *server.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = server.NewMetrics(reg, db)

		metricsSrv := serveMetrics(cfg.Metrics.Addr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutdownCtx) //nolint:errcheck
		}()
	}

	engine := server.NewEngine(db, log, server.WithMetrics(metrics))
	srv := server.NewServer(engine, log, server.ServerOptions{
		MaxBulkLen:      cfg.Protocol.MaxBulkLen,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Metrics:         metrics,
	})

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("listener error", zap.Error(err))
		return cli.Exit("", 1)
	}
	log.Info("listening on", zap.String("address", address))

	if err := srv.Serve(ctx, listener); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", zap.Error(err))
		return cli.Exit("", 1)
	}

	log.Info("Hanabi stopped")
	return nil
}

// serveMetrics exposes reg on addr/metrics in the background
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics listening on", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return srv
}
