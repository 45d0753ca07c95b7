// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command gsping checks connectivity to the game-services backend and
// then prints the events of the requested domains until interrupted.
//
// Usage:
//
//	gsping [--config file.yaml] [--domain name]... [--metrics addr] [setting flags]
//
// SIGUSR1 suspends the event loops and SIGUSR2 resumes them.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogama/gsclient"
	"github.com/gogama/gsclient/config"
	"github.com/gogama/gsclient/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const tick = 50 * time.Millisecond

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "gsping:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := config.FlagSet("gsping")
	configPath := fs.String("config", "", "path to a YAML config file")
	domains := fs.StringSlice("domain", nil, "event domain to listen to, repeatable")
	metricsAddr := fs.String("metrics", "", "serve Prometheus metrics on this address")
	pingPath := fs.String("ping", "/v1/ping", "path of the connectivity check")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loader := config.NewLoader()
	if err := loader.BindFlags(fs); err != nil {
		return err
	}
	cfg, err := loader.Load(*configPath)
	if err != nil {
		return err
	}

	level, _ := cfg.Level()
	atom := zap.NewAtomicLevelAt(level)
	zcfg := zap.NewProductionConfig()
	zcfg.Level = atom
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if *configPath != "" {
		loader.Watch(func(c *config.Config, err error) {
			if err != nil {
				logger.Warn("ignoring config change", zap.Error(err))
				return
			}
			l, _ := c.Level()
			atom.SetLevel(l)
			logger.Info("log level changed", zap.Stringer("level", l))
		})
	}

	reg := prometheus.NewRegistry()
	client := &gsclient.Client{
		Logger:  logger,
		Metrics: gsclient.NewMetrics(reg),
		OnNetworkStateChange: func(up bool) {
			logger.Info("network state changed", zap.Bool("up", up))
		},
	}
	if err = cfg.Apply(client); err != nil {
		return err
	}
	defer client.Shutdown()

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lifecycle := make(chan os.Signal, 1)
	signal.Notify(lifecycle, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(lifecycle)

	start := time.Now()
	err = gsclient.Get(client, *pingPath, func(r *request.Result) {
		fields := []zap.Field{
			zap.Stringer("kind", r.Kind),
			zap.Int("status", r.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		}
		if r.Success() {
			logger.Info("ping succeeded", fields...)
		} else {
			logger.Warn("ping failed", append(fields, zap.Stringer("transport", r.Transport), zap.Error(r.Err))...)
		}
	})
	if err != nil {
		return err
	}

	if err = client.StartEventListening(); err != nil {
		return err
	}
	l := &printer{logger: logger}
	for _, domain := range *domains {
		if err = client.RegisterEventListener(domain, l); err != nil {
			return fmt.Errorf("listen to %q: %w", domain, err)
		}
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case sig := <-lifecycle:
			if sig == syscall.SIGUSR1 {
				client.Suspend()
				logger.Info("suspended")
			} else {
				client.Resume()
				logger.Info("resumed")
			}
		case <-ticker.C:
			client.Callbacks().Drain()
		}
	}
}

type printer struct {
	logger *zap.Logger
}

func (p *printer) OnEventReceived(domain string, r *request.Result) {
	p.logger.Info("event",
		zap.String("domain", domain),
		zap.String("type", r.GetString("type")),
		zap.String("payload", r.String()))
}

func (p *printer) OnEventError(domain string, r *request.Result) {
	p.logger.Warn("event error",
		zap.String("domain", domain),
		zap.Stringer("kind", r.Kind),
		zap.Int("status", r.StatusCode))
}
