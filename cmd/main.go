// Command folio runs the portfolio rebalancing dashboard. It watches one
// wallet on one chain, computes the current USD allocation from Odos prices,
// and routes rebalancing swaps through the Odos smart order router.
//
// Usage:
//
//	folio --config folio.yaml              (dashboard daemon)
//	folio rebalance --config folio.yaml    (one-shot rebalance with terminal confirmation)
//	folio setup                            (interactive configuration wizard)
//
// Optional environment variables:
//
//	FOLIO_PRIVATE_KEY  hex private key for signing; read-only without it
//	ADVISOR_API_KEY    key for the AI portfolio advisor
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/folio/config"
	"github.com/vadiminshakov/folio/internal"
	"github.com/vadiminshakov/folio/internal/clients"
	"github.com/vadiminshakov/folio/internal/events"
	"github.com/vadiminshakov/folio/internal/services/advisor"
	"github.com/vadiminshakov/folio/internal/services/gate"
	"github.com/vadiminshakov/folio/internal/services/router"
	"github.com/vadiminshakov/folio/internal/setup"
	"github.com/vadiminshakov/folio/internal/web"
	"github.com/vadiminshakov/folio/pkg/retrier"
)

func main() {
	oneShot := false
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "setup":
			if err := setup.RunTUI(); err != nil {
				log.Fatal(err)
			}
			return
		case "rebalance":
			oneShot = true
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ethClient, err := clients.NewEthereumClient(ctx, cfg.RPCURL, cfg.WalletAddress,
		os.Getenv("FOLIO_PRIVATE_KEY"), cfg.ChainID, retrier.New())
	if err != nil {
		logger.Fatal("failed to connect to chain node", zap.Error(err))
	}

	odosClient := clients.NewOdosClient(cfg.AggregatorURL, cfg.ChainID)
	tradeRouter := router.New(cfg.Assets, odosClient, cfg.SlippageLimitPercent, logger)
	broadcaster := events.NewAllocationBroadcaster(256)

	// the browser collects its own confirmation; the one-shot flow asks in
	// the terminal
	var confirmer gate.Confirmer = gate.AutoConfirmer{}
	if oneShot {
		confirmer = gate.TUIConfirmer{}
	}
	executionGate := gate.New(ethClient, confirmer, cfg.GasLimit, logger)

	rebalancer := internal.NewRebalancer(cfg, odosClient, ethClient, tradeRouter, executionGate, broadcaster, logger)

	if oneShot {
		if err := runOnce(ctx, rebalancer); err != nil {
			logger.Fatal("rebalance failed", zap.Error(err))
		}
		return
	}

	var advisorSvc web.AdvisorService
	if cfg.AdvisorURL != "" {
		advisorSvc = advisor.New(cfg.AdvisorURL, os.Getenv("ADVISOR_API_KEY"), cfg.AdvisorModel)
	}

	server := web.NewServer(cfg.ListenAddr, cfg.Assets, rebalancer, broadcaster, advisorSvc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rebalancer.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("dashboard listening", zap.String("addr", cfg.ListenAddr))
		if cfg.TLSDomain != "" {
			return server.StartWithAutoTLS(ctx, cfg.TLSDomain, "")
		}
		return server.Start(ctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("stopped", zap.Error(err))
	}
}

func runOnce(ctx context.Context, rebalancer *internal.Rebalancer) error {
	rebalancer.Refresh(ctx)

	txHash, err := rebalancer.Rebalance(ctx)
	switch {
	case errors.Is(err, internal.ErrNothingToRebalance):
		fmt.Println("Allocations are within tolerance, nothing to rebalance.")
		return nil
	case errors.Is(err, gate.ErrDeclined):
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("Transaction submitted: %s\n", txHash)
	return nil
}
