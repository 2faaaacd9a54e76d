package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"procyon/app"
	"procyon/hal"
	"procyon/internal/buildinfo"
	"procyon/internal/config"
	"procyon/internal/logging"
	"procyon/internal/metrics"
	"procyon/kernel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	var reportEvery uint64
	flag.StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "Boot manifest (YAML). Empty boots the default table.")
	flag.IntVar(&cfg.TickHz, "hz", cfg.TickHz, "Clock tick rate.")
	flag.Uint64Var(&cfg.TickLimit, "ticks", cfg.TickLimit, "Stop after N ticks (0 = run forever).")
	flag.BoolVar(&cfg.VirtualClock, "virtual-clock", cfg.VirtualClock, "Count every yield as a tick instead of using the wall clock.")
	flag.Uint64Var(&cfg.IRQEvery, "irq-every", cfg.IRQEvery, "Raise the IRQ line every N ticks (0 = never).")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address.")
	flag.BoolVar(&cfg.CheckInvariants, "check", cfg.CheckInvariants, "Verify the process table after every IPC call.")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level.")
	flag.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "Human-readable debug logging.")
	flag.Uint64Var(&reportEvery, "report-every", 1000, "Ticks between test process console reports.")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	logCfg := logging.DefaultConfig()
	if cfg.LogDev {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.LogLevel
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	log := logger.Component("procyon").With(zap.String("boot", uuid.NewString()))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, cfg, reportEvery, log)
	var f *kernel.Fault
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.As(err, &f):
		os.Exit(3)
	default:
		log.Error("exit", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, reportEvery uint64, log *zap.Logger) error {
	manifest := config.DefaultManifest()
	if cfg.Manifest != "" {
		m, err := config.LoadManifest(cfg.Manifest)
		if err != nil {
			return err
		}
		manifest = m
	}

	h := hal.New(hal.Config{Tick: time.Second / time.Duration(cfg.TickHz)})
	m := metrics.New()
	sys, err := app.New(h, app.Config{
		Manifest:        manifest,
		Log:             log,
		Observer:        m,
		CheckInvariants: cfg.CheckInvariants,
		VirtualClock:    cfg.VirtualClock,
		ReportEvery:     reportEvery,
	})
	if err != nil {
		return err
	}
	log.Info("procyon starting",
		append(buildinfo.Fields(),
			zap.Int("slots", len(manifest.Slots)),
			zap.Int("hz", cfg.TickHz),
			zap.Bool("virtual_clock", cfg.VirtualClock),
		)...,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sys.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return hal.RunHeadless(gctx, h, sys.Pump, hal.HeadlessConfig{
			Hz:       cfg.TickHz,
			Ticks:    cfg.TickLimit,
			IRQLine:  hal.Line(cfg.IRQLine),
			IRQEvery: cfg.IRQEvery,
		})
	})
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.Info("procyon stopped", zap.Uint64("uptime", sys.Kernel().Uptime()))
	return err
}
