package allocation

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/folio/internal/domain"
)

func testAssets() []domain.Asset {
	return []domain.Asset{
		{Symbol: "MATIC", Address: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Decimals: 18, Native: true},
		{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
		{Symbol: "WETH", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
	}
}

// wei returns amount * 10^decimals as a raw balance.
func wei(amount string, decimals int32) *big.Int {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return d.Shift(decimals).BigInt()
}

func TestComputeScenario(t *testing.T) {
	// MATIC $500 + USDC $300 + WETH $200 = $1000 -> 50/30/20
	balances := map[string]*big.Int{
		"MATIC": wei("1000", 18),
		"USDC":  wei("300", 6),
		"WETH":  wei("0.1", 18),
	}
	prices := map[string]decimal.Decimal{
		"MATIC": decimal.NewFromFloat(0.5),
		"USDC":  decimal.NewFromInt(1),
		"WETH":  decimal.NewFromInt(2000),
	}

	snapshot := Compute(testAssets(), balances, prices)

	require.True(t, snapshot.TotalUSD.Equal(decimal.NewFromInt(1000)), "total is %s", snapshot.TotalUSD)
	require.True(t, snapshot.Percent["MATIC"].Equal(decimal.NewFromInt(50)))
	require.True(t, snapshot.Percent["USDC"].Equal(decimal.NewFromInt(30)))
	require.True(t, snapshot.Percent["WETH"].Equal(decimal.NewFromInt(20)))
	require.True(t, snapshot.Values["MATIC"].Equal(decimal.NewFromInt(500)))
}

func TestComputeZeroTotal(t *testing.T) {
	snapshot := Compute(testAssets(), map[string]*big.Int{}, map[string]decimal.Decimal{})

	require.True(t, snapshot.TotalUSD.IsZero())
	for _, symbol := range []string{"MATIC", "USDC", "WETH"} {
		require.True(t, snapshot.Percent[symbol].IsZero(), "%s percent must be zero", symbol)
	}
}

func TestComputeZeroBalancesWithPrices(t *testing.T) {
	balances := map[string]*big.Int{
		"MATIC": big.NewInt(0),
		"USDC":  big.NewInt(0),
		"WETH":  big.NewInt(0),
	}
	prices := map[string]decimal.Decimal{
		"MATIC": decimal.NewFromFloat(0.5),
		"USDC":  decimal.NewFromInt(1),
		"WETH":  decimal.NewFromInt(2000),
	}

	snapshot := Compute(testAssets(), balances, prices)

	require.True(t, snapshot.TotalUSD.IsZero())
	require.True(t, snapshot.Percent["WETH"].IsZero())
}

func TestComputeMissingPriceDegradesToZero(t *testing.T) {
	balances := map[string]*big.Int{
		"MATIC": wei("1000", 18),
		"USDC":  wei("300", 6),
		"WETH":  wei("0.1", 18),
	}
	// no WETH price this cycle
	prices := map[string]decimal.Decimal{
		"MATIC": decimal.NewFromFloat(0.5),
		"USDC":  decimal.NewFromInt(1),
	}

	snapshot := Compute(testAssets(), balances, prices)

	require.True(t, snapshot.TotalUSD.Equal(decimal.NewFromInt(800)))
	require.True(t, snapshot.Values["WETH"].IsZero())
	require.True(t, snapshot.Percent["MATIC"].Equal(decimal.NewFromFloat(62.5)))
}

func TestComputeMissingBalanceDegradesToZero(t *testing.T) {
	balances := map[string]*big.Int{
		"USDC": wei("300", 6),
	}
	prices := map[string]decimal.Decimal{
		"MATIC": decimal.NewFromFloat(0.5),
		"USDC":  decimal.NewFromInt(1),
		"WETH":  decimal.NewFromInt(2000),
	}

	snapshot := Compute(testAssets(), balances, prices)

	require.True(t, snapshot.TotalUSD.Equal(decimal.NewFromInt(300)))
	require.True(t, snapshot.Percent["USDC"].Equal(decimal.NewFromInt(100)))
	require.True(t, snapshot.Percent["MATIC"].IsZero())
}
