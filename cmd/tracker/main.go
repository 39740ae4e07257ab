package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"

	"github.com/gareth0712/hyperliquid-client/internal/obs"
	"github.com/gareth0712/hyperliquid-client/internal/ops"
	"github.com/gareth0712/hyperliquid-client/internal/tracker"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("config path is required")
	}
	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Profile.Enable {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profile.AppName,
			ServerAddress:   cfg.Profile.ServerAddress,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	var metrics *obs.Metrics
	if cfg.Stats.MetricsAddr != "" {
		metrics = obs.NewMetrics()
		metrics.Serve(cfg.Stats.MetricsAddr)
	}

	pool, err := tracker.New(cfg, metrics)
	if err != nil {
		log.Fatalf("tracker init failed: %v", err)
	}
	if err := pool.Run(ctx); err != nil {
		log.Fatalf("tracker run failed: %v", err)
	}
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
