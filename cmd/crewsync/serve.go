package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewsync/crewsync/pkg/cache"
	"github.com/crewsync/crewsync/pkg/calc"
	"github.com/crewsync/crewsync/pkg/config"
	"github.com/crewsync/crewsync/pkg/engine"
	"github.com/crewsync/crewsync/pkg/events"
	"github.com/crewsync/crewsync/pkg/gateway"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
	"github.com/crewsync/crewsync/pkg/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the synchronization engine",
	Long: `Run the CrewSync engine: the batch processor, health monitor,
change-source listener, consumer gateway, and observability server.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("config", "c", "", "Path to YAML config file")
	serveCmd.Flags().String("data-dir", "", "Cache data directory (overrides config)")
	serveCmd.Flags().String("gateway-addr", "", "Gateway listen address (overrides config)")
	serveCmd.Flags().String("metrics-addr", "", "Metrics listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Cache.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("gateway-addr"); v != "" {
		cfg.Gateway.ListenAddr = v
	}
	if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
		cfg.Metrics.ListenAddr = v
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	metrics.SetVersion(Version)

	if err := os.MkdirAll(cfg.Cache.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	cacheStore, err := cache.NewBoltCache(cfg.Cache.DataDir)
	if err != nil {
		return err
	}
	defer cacheStore.Close()
	metrics.RegisterComponent("cache", true, "")

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	metrics.RegisterComponent("broker", true, "")

	// The aggregate source is in-memory until the persistent store
	// integration lands; mutations still flow through the engine.
	calcService := calc.NewService(calc.NewStaticSource(map[string]float64{}), cacheStore)

	reg := registry.NewRegistry(nil)

	eng, err := engine.New(engine.Options{
		Config:      cfg.Engine,
		Cache:       cacheStore,
		Calculator:  calcService,
		Transport:   broker,
		Registry:    reg,
		Consistency: calcService,
	})
	if err != nil {
		return err
	}
	eng.Start()
	defer eng.Stop()

	listener := engine.NewListener(eng, broker, cfg.Engine.ResubscribeDelay)
	listener.Start()
	defer listener.Stop()

	collector := metrics.NewCollector(eng)
	collector.Start()
	defer collector.Stop()

	gw, err := gateway.New(gateway.Options{
		Sessions:  eng,
		Transport: broker,
		Registry:  reg,
		Channel:   engine.ChannelSyncEvents,
		Admin:     eng,
	})
	if err != nil {
		return err
	}

	obs := metrics.NewServer(eng)

	errCh := make(chan error, 2)
	go func() {
		if err := gw.Start(cfg.Gateway.ListenAddr); err != nil {
			errCh <- fmt.Errorf("gateway error: %w", err)
		}
	}()
	go func() {
		if err := obs.Start(cfg.Metrics.ListenAddr); err != nil {
			errCh <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	log.Info("CrewSync is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = gw.Stop(ctx)
	_ = obs.Stop(ctx)
	return nil
}
