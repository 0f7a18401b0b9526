package router

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/folio/internal/clients"
	"github.com/vadiminshakov/folio/internal/domain"
)

const userAddr = "0x1111111111111111111111111111111111111111"

type fakeAggregator struct {
	quoteReq      *clients.QuoteRequest
	quoteErr      error
	assembleErr   error
	assembledFor  string
	assembleCalls int
}

func (f *fakeAggregator) GetQuote(_ context.Context, quote clients.QuoteRequest) (*clients.QuoteResponse, error) {
	f.quoteReq = &quote
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &clients.QuoteResponse{PathID: "path-1"}, nil
}

func (f *fakeAggregator) AssembleTransaction(_ context.Context, pathID, userAddr string) (*clients.AssembleResponse, error) {
	f.assembleCalls++
	f.assembledFor = pathID
	if f.assembleErr != nil {
		return nil, f.assembleErr
	}
	return &clients.AssembleResponse{
		Transaction: clients.AssembledTransaction{
			To:    "0x4E3288c9ca110bCC82bf38F09A7b425c095d92Bf",
			Data:  "0xdeadbeef",
			Value: "0",
		},
	}, nil
}

func testAssets() []domain.Asset {
	return []domain.Asset{
		{Symbol: "MATIC", Address: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Decimals: 18, Native: true},
		{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
		{Symbol: "WETH", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
	}
}

func trade(symbol string, usd int64) domain.TradeInstruction {
	return domain.TradeInstruction{Symbol: symbol, AmountUSD: decimal.NewFromInt(usd)}
}

func TestPreparePartitionsAndConverts(t *testing.T) {
	agg := &fakeAggregator{}
	r := New(testAssets(), agg, 0.3, zap.NewNop())

	tx, err := r.Prepare(context.Background(), []domain.TradeInstruction{
		trade("MATIC", 100),
		trade("USDC", -100),
	}, userAddr)
	require.NoError(t, err)

	require.Len(t, agg.quoteReq.InputTokens, 1)
	require.Equal(t, "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", agg.quoteReq.InputTokens[0].TokenAddress)
	// $100 scaled by USDC's 6 decimals
	require.Equal(t, "100000000", agg.quoteReq.InputTokens[0].Amount)

	require.Len(t, agg.quoteReq.OutputTokens, 1)
	require.Equal(t, "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", agg.quoteReq.OutputTokens[0].TokenAddress)
	require.InDelta(t, 1.0, agg.quoteReq.OutputTokens[0].Proportion, 1e-9)

	require.Equal(t, "path-1", agg.assembledFor)
	require.Equal(t, "0x4E3288c9ca110bCC82bf38F09A7b425c095d92Bf", tx.To)
	require.Equal(t, "0xdeadbeef", tx.Data)
	require.False(t, tx.HasValue())
}

func TestPrepareFixedExecutionParameters(t *testing.T) {
	agg := &fakeAggregator{}
	r := New(testAssets(), agg, 0.3, zap.NewNop())

	_, err := r.Prepare(context.Background(), []domain.TradeInstruction{
		trade("MATIC", 100),
		trade("USDC", -100),
	}, userAddr)
	require.NoError(t, err)

	require.Equal(t, userAddr, agg.quoteReq.UserAddr)
	require.InDelta(t, 0.3, agg.quoteReq.SlippageLimitPercent, 1e-9)
	require.Equal(t, 0, agg.quoteReq.ReferralCode)
	require.True(t, agg.quoteReq.DisableRFQs)
	require.True(t, agg.quoteReq.Compact)
	require.True(t, agg.quoteReq.Simple)
}

func TestPrepareSplitsBuyProportions(t *testing.T) {
	agg := &fakeAggregator{}
	r := New(testAssets(), agg, 0.3, zap.NewNop())

	_, err := r.Prepare(context.Background(), []domain.TradeInstruction{
		trade("MATIC", 75),
		trade("WETH", 25),
		trade("USDC", -100),
	}, userAddr)
	require.NoError(t, err)

	require.Len(t, agg.quoteReq.OutputTokens, 2)
	require.InDelta(t, 0.75, agg.quoteReq.OutputTokens[0].Proportion, 1e-9)
	require.InDelta(t, 0.25, agg.quoteReq.OutputTokens[1].Proportion, 1e-9)
}

func TestPrepareQuoteFailureAborts(t *testing.T) {
	agg := &fakeAggregator{quoteErr: errors.New("boom")}
	r := New(testAssets(), agg, 0.3, zap.NewNop())

	_, err := r.Prepare(context.Background(), []domain.TradeInstruction{
		trade("MATIC", 100),
		trade("USDC", -100),
	}, userAddr)

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to prepare rebalance")
	require.Zero(t, agg.assembleCalls, "assemble must not run after a failed quote")
}

func TestPrepareAssembleFailureAborts(t *testing.T) {
	agg := &fakeAggregator{assembleErr: errors.New("boom")}
	r := New(testAssets(), agg, 0.3, zap.NewNop())

	_, err := r.Prepare(context.Background(), []domain.TradeInstruction{
		trade("MATIC", 100),
		trade("USDC", -100),
	}, userAddr)

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to prepare rebalance")
}

func TestPrepareRequiresBothSides(t *testing.T) {
	agg := &fakeAggregator{}
	r := New(testAssets(), agg, 0.3, zap.NewNop())

	_, err := r.Prepare(context.Background(), []domain.TradeInstruction{trade("MATIC", 100)}, userAddr)
	require.Error(t, err)
	require.Nil(t, agg.quoteReq)
}
