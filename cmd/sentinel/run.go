package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgesoc/sentinel/pkg/checkpoint"
	"github.com/edgesoc/sentinel/pkg/config"
	"github.com/edgesoc/sentinel/pkg/connectivity"
	"github.com/edgesoc/sentinel/pkg/log"
	"github.com/edgesoc/sentinel/pkg/metrics"
	"github.com/edgesoc/sentinel/pkg/queue"
	"github.com/edgesoc/sentinel/pkg/resource"
	"github.com/edgesoc/sentinel/pkg/stack"
	"github.com/edgesoc/sentinel/pkg/state"
	"github.com/edgesoc/sentinel/pkg/vector"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the watcher fleet and the metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch-config")

		mgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfg := mgr.Current()

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})

		st := state.NewStore()

		// Metrics endpoint and exporter.
		go func() {
			if err := metrics.ListenAndServe(cfg.Prometheus.Port); err != nil {
				log.Errorf("metrics server error", err)
			}
		}()
		exporter := metrics.NewExporter(st, cfg.Intervals.MetricsUpdate())
		exporter.Start()
		log.Logger.Info().Int("port", cfg.Prometheus.Port).Msg("metrics endpoint started")

		// Resource controller.
		controller := resource.NewController(st, resource.Limits{
			CPUPercent: cfg.Limits.CPULimitPercent,
			RAMPercent: cfg.Limits.RAMLimitPercent,
			Hysteresis: cfg.Limits.HysteresisPercent,
		}, cfg.Intervals.ResourceSample(), log.WithProbe("resource"))
		controller.Start()

		// Connectivity probe set.
		prober := connectivity.NewProber(st, connectivity.Targets{
			SearchEndpoint: cfg.Search.Endpoint,
			QueueAddr:      cfg.Redis.Addr(),
		}, cfg.Intervals.ConnectivityCheck(), log.WithProbe("connectivity"))
		prober.Start()

		// Queue depth sampler.
		sampler := queue.NewSampler(cfg.Redis.Addr(), cfg.Redis.QueueKey, st,
			cfg.Intervals.ConnectivityCheck(), log.WithProbe("queue"))
		sampler.Start()

		// Container stack probe with the vector health proxy hooked in.
		orch, closeOrch, err := newOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer closeOrch()

		vec := vector.NewManager(vectorConfig(cfg), st, log.WithService("vector"))
		probe := stack.NewProbe(orch, cfg.Stack.Services, st,
			cfg.Intervals.StackProbe(), log.WithProbe("stack"))
		probe.OnHealth = vec.PublishHealth
		probe.Start()

		// Periodic state checkpointing.
		cp, err := checkpoint.Open(cfg.Checkpoint.Path)
		if err != nil {
			return err
		}
		cpStop := make(chan struct{})
		cpDone := make(chan struct{})
		go func() {
			defer close(cpDone)
			ticker := time.NewTicker(cfg.Intervals.Checkpoint())
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := cp.Save(st.Snapshot()); err != nil {
						log.Errorf("checkpoint save failed", err)
					}
				case <-cpStop:
					return
				}
			}
		}()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if watch {
			go func() {
				if err := mgr.Watch(ctx, log.WithComponent("config")); err != nil {
					log.Errorf("config watcher failed", err)
				}
			}()
		}

		log.Info("sentinel is running, press Ctrl+C to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		cancel()
		probe.Stop()
		sampler.Stop()
		prober.Stop()
		controller.Stop()
		exporter.Stop()
		close(cpStop)
		<-cpDone

		// Final checkpoint so status reflects the state at shutdown.
		if err := cp.Save(st.Snapshot()); err != nil {
			log.Errorf("final checkpoint save failed", err)
		}
		return cp.Close()
	},
}

func newOrchestrator(cfg *config.Config) (stack.Orchestrator, func(), error) {
	switch cfg.Stack.Backend {
	case "containerd":
		orch, err := stack.NewContainerdOrchestrator(cfg.Stack.ContainerdSocket,
			cfg.Stack.Namespace, cfg.Stack.NamePrefix)
		if err != nil {
			return nil, nil, err
		}
		return orch, func() { _ = orch.Close() }, nil
	default:
		orch := stack.NewComposeOrchestrator(cfg.Stack.ComposeFile, cfg.Stack.NamePrefix)
		return orch, func() {}, nil
	}
}

func vectorConfig(cfg *config.Config) vector.Config {
	return vector.Config{
		ConfigPath:     cfg.Vector.ConfigPath,
		LogReadPath:    cfg.Vector.LogReadPath,
		SearchEndpoint: cfg.Search.Endpoint,
		Region:         cfg.Search.Region,
		RedisAddr:      cfg.Redis.Addr(),
		QueueKey:       cfg.Redis.QueueKey,
		IndexPattern:   cfg.Vector.IndexPattern,
	}
}
