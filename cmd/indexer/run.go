package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goran-ethernal/DonationIndexor/internal/anomaly"
	"github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/config"
	"github.com/goran-ethernal/DonationIndexor/internal/db"
	"github.com/goran-ethernal/DonationIndexor/internal/decoder"
	"github.com/goran-ethernal/DonationIndexor/internal/hub"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/metrics"
	"github.com/goran-ethernal/DonationIndexor/internal/poller"
	"github.com/goran-ethernal/DonationIndexor/internal/reorg"
	"github.com/goran-ethernal/DonationIndexor/internal/rpc"
	"github.com/goran-ethernal/DonationIndexor/pkg/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewComponentLoggerFromConfig(common.ComponentPoller, cfg.Logging)
	logger.SetDefaultLogger(log)

	spec, err := decoder.NewEventSpec(cfg.Chain.EventABISignature)
	if err != nil {
		return fmt.Errorf("invalid event signature: %w", err)
	}
	log.Infof("Watching %s on %s (topic %s)", spec, cfg.Chain.ContractAddress, spec.Topic().Hex())

	log.Info("Connecting to chain node...")
	client, err := rpc.NewClient(ctx, cfg.Chain.RPCEndpoint,
		logger.NewComponentLoggerFromConfig(common.ComponentChainClient, cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()

	if cfg.Chain.ChainID != 0 {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to read chain id: %w", err)
		}
		if chainID.Uint64() != cfg.Chain.ChainID {
			return fmt.Errorf("chain id mismatch: node reports %s, configured %d", chainID, cfg.Chain.ChainID)
		}
	}
	log.Infof("Connected to chain node: %s", cfg.Chain.RPCEndpoint)

	storeLog := logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging)
	log.Infof("Opening %s store...", cfg.DB.Driver)
	eventStore, sqlDB, err := openStore(ctx, cfg.DB, storeLog)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer eventStore.Close()

	var detector *reorg.Detector
	if cfg.Indexer.Reorg.IsEnabled() {
		detector = reorg.NewDetector(eventStore, client, cfg.Indexer.Reorg.HistorySize,
			logger.NewComponentLoggerFromConfig(common.ComponentReorgDetector, cfg.Logging))
	}

	subscribers := hub.New(logger.NewComponentLoggerFromConfig(common.ComponentHub, cfg.Logging))
	defer subscribers.Close()

	p, err := poller.New(poller.ConfigFrom(cfg.Chain, cfg.Indexer), spec, client, eventStore, detector,
		subscribers, log)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}
	p.WithAnomalyChecker(anomaly.NewChecker(eventStore, cfg.Indexer.Anomaly))

	g, gctx := errgroup.WithContext(ctx)

	if sqlDB != nil {
		if m := db.NewMaintainer(cfg.DB.Path, sqlDB, cfg.DB.Maintenance, storeLog); m != nil {
			g.Go(func() error { return m.Run(gctx) })
		}
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics,
			logger.NewComponentLoggerFromConfig(common.ComponentMetrics, cfg.Logging))
		g.Go(func() error { return metricsServer.Run(gctx) })
		log.Infof("Metrics server listening on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, api.Dependencies{
			Chain:     client,
			Store:     eventStore,
			Indexer:   p,
			Hub:       subscribers,
			Contract:  cfg.Chain.Address(),
			Contracts: cfg.Chain.Contracts,
		}, logger.NewComponentLoggerFromConfig(common.ComponentAPI, cfg.Logging))
		g.Go(func() error { return apiServer.Start(gctx) })
	}

	g.Go(func() error { return p.Run(gctx) })

	log.Info("Starting DonationIndexor...")

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("DonationIndexor stopped successfully")
	return nil
}
