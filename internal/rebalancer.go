// Package internal wires the allocation engine together and runs the
// poll/rebalance loop.
package internal

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/folio/config"
	"github.com/vadiminshakov/folio/internal/domain"
	"github.com/vadiminshakov/folio/internal/events"
	"github.com/vadiminshakov/folio/internal/services/allocation"
	"github.com/vadiminshakov/folio/internal/services/detector"
)

var (
	// ErrRebalanceInProgress is returned when a second rebalance is
	// attempted while one is pending. Only one may be in flight.
	ErrRebalanceInProgress = errors.New("rebalance already in progress")
	// ErrNothingToRebalance is returned when every allocation gap is inside
	// the tolerance band or every delta is below the minimum-trade floor.
	ErrNothingToRebalance = errors.New("allocations are within tolerance, nothing to rebalance")
)

type pricer interface {
	GetTokenPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error)
}

type balanceProvider interface {
	GetBalance(ctx context.Context, tokenAddress string) (*big.Int, error)
}

type preparer interface {
	Prepare(ctx context.Context, trades []domain.TradeInstruction, userAddr string) (domain.PreparedTransaction, error)
}

type executionGate interface {
	Confirm(trades []domain.TradeInstruction) error
	Submit(ctx context.Context, tx domain.PreparedTransaction) (string, error)
}

// Rebalancer owns one session: it refreshes balance/price snapshots on an
// interval, recomputes the current allocation, and drives the
// confirm -> prepare -> submit sequence on demand.
type Rebalancer struct {
	assets      []domain.Asset
	userAddr    string
	pollEvery   time.Duration
	pricer      pricer
	balances    balanceProvider
	targets     *allocation.Targets
	detector    *detector.Detector
	router      preparer
	gate        executionGate
	broadcaster *events.AllocationBroadcaster
	logger      *zap.Logger

	inFlight atomic.Bool

	mu       sync.RWMutex
	snapshot domain.AllocationSnapshot
}

// NewRebalancer creates a rebalancer for the configured session.
func NewRebalancer(cfg config.Config, p pricer, b balanceProvider, rt preparer, g executionGate,
	broadcaster *events.AllocationBroadcaster, logger *zap.Logger) *Rebalancer {

	return &Rebalancer{
		assets:      cfg.Assets,
		userAddr:    cfg.WalletAddress,
		pollEvery:   cfg.PollPriceInterval,
		pricer:      p,
		balances:    b,
		targets:     allocation.NewTargets(cfg.Targets),
		detector:    detector.New(cfg.Assets, cfg.TolerancePct, cfg.MinTradeUSD),
		router:      rt,
		gate:        g,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Run refreshes snapshots until the context is cancelled.
func (r *Rebalancer) Run(ctx context.Context) error {
	r.logger.Info("starting allocation loop",
		zap.String("wallet", r.userAddr),
		zap.Duration("poll_interval", r.pollEvery))

	r.Refresh(ctx)

	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("context done, stopping allocation loop")
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh fetches one balance snapshot and one price snapshot, recomputes
// the allocation and publishes it. A failed fetch degrades that asset to
// zero value for this cycle; prices from older cycles are never reused.
func (r *Rebalancer) Refresh(ctx context.Context) {
	prices := make(map[string]decimal.Decimal, len(r.assets))
	balances := make(map[string]*big.Int, len(r.assets))

	for i := range r.assets {
		asset := &r.assets[i]

		price, err := r.pricer.GetTokenPrice(ctx, asset.Address)
		if err != nil {
			r.logger.Warn("price fetch failed", zap.String("asset", asset.Symbol), zap.Error(err))
		} else {
			prices[asset.Symbol] = price
		}

		tokenAddress := asset.Address
		if asset.Native {
			tokenAddress = ""
		}
		balance, err := r.balances.GetBalance(ctx, tokenAddress)
		if err != nil {
			r.logger.Warn("balance fetch failed", zap.String("asset", asset.Symbol), zap.Error(err))
		} else {
			balances[asset.Symbol] = balance
		}
	}

	snapshot := allocation.Compute(r.assets, balances, prices)

	r.mu.Lock()
	r.snapshot = snapshot
	r.mu.Unlock()

	r.publish(snapshot)
}

// Snapshot returns the latest computed allocation.
func (r *Rebalancer) Snapshot() domain.AllocationSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Targets returns the current target percentages.
func (r *Rebalancer) Targets() map[string]int {
	return r.targets.Get()
}

// SetTarget applies one slider edit and republishes the state.
func (r *Rebalancer) SetTarget(symbol string, pct int) error {
	known := false
	for i := range r.assets {
		if r.assets[i].Symbol == symbol {
			known = true
			break
		}
	}
	if !known {
		return errors.Errorf("unknown asset %s", symbol)
	}

	r.targets.Set(symbol, pct)
	r.publish(r.Snapshot())
	return nil
}

// Preview returns the trades a rebalance would execute right now, or
// ErrNothingToRebalance when none is warranted.
func (r *Rebalancer) Preview() ([]domain.TradeInstruction, error) {
	snapshot := r.Snapshot()
	targets := r.targets.Get()

	if !r.detector.NeedsRebalance(snapshot, targets) {
		return nil, ErrNothingToRebalance
	}
	trades := r.detector.ComputeTrades(snapshot, targets)
	if len(trades) == 0 {
		return nil, ErrNothingToRebalance
	}
	return trades, nil
}

// Rebalance runs the full sequence once: decide, confirm, prepare, submit.
// It returns the submitted transaction hash. A second call while one
// attempt is pending returns ErrRebalanceInProgress.
func (r *Rebalancer) Rebalance(ctx context.Context) (string, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return "", ErrRebalanceInProgress
	}
	defer r.inFlight.Store(false)

	trades, err := r.Preview()
	if err != nil {
		return "", err
	}

	attemptID := uuid.NewString()
	logger := r.logger.With(zap.String("attempt_id", attemptID))
	for i := range trades {
		logger.Info("trade computed", zap.String("trade", trades[i].String()))
	}

	if err := r.gate.Confirm(trades); err != nil {
		return "", err
	}

	tx, err := r.router.Prepare(ctx, trades, r.userAddr)
	if err != nil {
		return "", err
	}

	txHash, err := r.gate.Submit(ctx, tx)
	if err != nil {
		return "", err
	}

	logger.Info("rebalance submitted", zap.String("tx_hash", txHash))
	return txHash, nil
}

func (r *Rebalancer) publish(snapshot domain.AllocationSnapshot) {
	if r.broadcaster == nil {
		return
	}

	update := events.AllocationUpdate{
		Timestamp: time.Now(),
		Percent:   make(map[string]string, len(r.assets)),
		Values:    make(map[string]string, len(r.assets)),
		TotalUSD:  snapshot.TotalUSD.StringFixed(2),
		Targets:   r.targets.Get(),
	}
	for i := range r.assets {
		symbol := r.assets[i].Symbol
		update.Percent[symbol] = snapshot.PercentOf(symbol).StringFixed(1)
		update.Values[symbol] = snapshot.Values[symbol].StringFixed(2)
	}

	r.broadcaster.Publish(update)
}
