// Package router turns trade instructions into a ready-to-sign transaction
// by driving the aggregator's quote and assemble endpoints.
package router

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/folio/internal/clients"
	"github.com/vadiminshakov/folio/internal/domain"
)

type aggregator interface {
	GetQuote(ctx context.Context, quote clients.QuoteRequest) (*clients.QuoteResponse, error)
	AssembleTransaction(ctx context.Context, pathID, userAddr string) (*clients.AssembleResponse, error)
}

// TradeRouter prepares a single atomic swap covering all rebalance legs.
type TradeRouter struct {
	assets               map[string]domain.Asset
	aggregator           aggregator
	slippageLimitPercent float64
	logger               *zap.Logger
}

// New creates a router over the configured asset set.
func New(assets []domain.Asset, agg aggregator, slippageLimitPercent float64, logger *zap.Logger) *TradeRouter {
	bySymbol := make(map[string]domain.Asset, len(assets))
	for _, a := range assets {
		bySymbol[a.Symbol] = a
	}
	return &TradeRouter{
		assets:               bySymbol,
		aggregator:           agg,
		slippageLimitPercent: slippageLimitPercent,
		logger:               logger,
	}
}

// Prepare partitions the trades into sells and buys, converts sells into
// absolute smallest-unit input amounts and buys into relative output
// proportions, then runs quote followed by assemble. Any failure aborts the
// whole operation; nothing is submitted and nothing is retried.
func (r *TradeRouter) Prepare(ctx context.Context, trades []domain.TradeInstruction, userAddr string) (domain.PreparedTransaction, error) {
	var sells, buys []domain.TradeInstruction
	for _, t := range trades {
		switch {
		case t.AmountUSD.IsNegative():
			sells = append(sells, t)
		case t.AmountUSD.IsPositive():
			buys = append(buys, t)
		}
	}
	if len(sells) == 0 || len(buys) == 0 {
		return domain.PreparedTransaction{}, errors.New("rebalance requires at least one sell and one buy")
	}

	inputTokens := make([]clients.InputToken, 0, len(sells))
	for _, t := range sells {
		asset, ok := r.assets[t.Symbol]
		if !ok {
			return domain.PreparedTransaction{}, errors.Errorf("unknown asset %s", t.Symbol)
		}
		inputTokens = append(inputTokens, clients.InputToken{
			TokenAddress: asset.Address,
			Amount:       asset.RawUnits(t.AmountUSD.Abs()).String(),
		})
	}

	totalBuy := decimal.Zero
	for _, t := range buys {
		totalBuy = totalBuy.Add(t.AmountUSD.Abs())
	}
	outputTokens := make([]clients.OutputToken, 0, len(buys))
	for _, t := range buys {
		asset, ok := r.assets[t.Symbol]
		if !ok {
			return domain.PreparedTransaction{}, errors.Errorf("unknown asset %s", t.Symbol)
		}
		outputTokens = append(outputTokens, clients.OutputToken{
			TokenAddress: asset.Address,
			Proportion:   t.AmountUSD.Abs().Div(totalBuy).InexactFloat64(),
		})
	}

	quote, err := r.aggregator.GetQuote(ctx, clients.QuoteRequest{
		InputTokens:          inputTokens,
		OutputTokens:         outputTokens,
		UserAddr:             userAddr,
		SlippageLimitPercent: r.slippageLimitPercent,
		ReferralCode:         0,
		DisableRFQs:          true,
		Compact:              true,
		Simple:               true,
	})
	if err != nil {
		return domain.PreparedTransaction{}, errors.Wrap(err, "failed to prepare rebalance")
	}

	r.logger.Debug("quote received",
		zap.String("path_id", quote.PathID),
		zap.Int("sells", len(sells)),
		zap.Int("buys", len(buys)))

	assembled, err := r.aggregator.AssembleTransaction(ctx, quote.PathID, userAddr)
	if err != nil {
		return domain.PreparedTransaction{}, errors.Wrap(err, "failed to prepare rebalance")
	}

	return domain.PreparedTransaction{
		To:    assembled.Transaction.To,
		Data:  assembled.Transaction.Data,
		Value: assembled.Transaction.Value,
	}, nil
}
