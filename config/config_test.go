package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetYamlAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
rpc_url: https://polygon-rpc.com
wallet_address: "0x1111111111111111111111111111111111111111"
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)

	require.Equal(t, int64(137), cfg.ChainID)
	require.Equal(t, "https://api.odos.xyz", cfg.AggregatorURL)
	require.Equal(t, 30*time.Second, cfg.PollPriceInterval)
	require.True(t, decimal.NewFromInt(1).Equal(cfg.TolerancePct))
	require.True(t, decimal.NewFromInt(1).Equal(cfg.MinTradeUSD))
	require.InDelta(t, 0.3, cfg.SlippageLimitPercent, 1e-9)
	require.Equal(t, uint64(500000), cfg.GasLimit)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Len(t, cfg.Assets, 3)
	require.Equal(t, DefaultTargets(), cfg.Targets)
}

func TestGetYamlOverrides(t *testing.T) {
	path := writeConfig(t, `
chain_id: 1
rpc_url: https://eth.example.com
wallet_address: "0x1111111111111111111111111111111111111111"
aggregator_url: https://odos.example.com
poll_price_interval: 10s
tolerance_pct: "0.5"
min_trade_usd: "5"
gas_limit: 900000
listen_addr: ":9090"
assets:
  - symbol: WETH
    address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
    decimals: 18
    native: true
  - symbol: USDC
    address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
    decimals: 6
targets:
  WETH: 70
  USDC: 30
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)

	require.Equal(t, int64(1), cfg.ChainID)
	require.Equal(t, "https://odos.example.com", cfg.AggregatorURL)
	require.Equal(t, 10*time.Second, cfg.PollPriceInterval)
	require.True(t, decimal.RequireFromString("0.5").Equal(cfg.TolerancePct))
	require.True(t, decimal.NewFromInt(5).Equal(cfg.MinTradeUSD))
	require.Equal(t, uint64(900000), cfg.GasLimit)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Len(t, cfg.Assets, 2)
	require.True(t, cfg.Assets[0].Native)
	require.Equal(t, map[string]int{"WETH": 70, "USDC": 30}, cfg.Targets)
}

func TestGetYamlRequiresRPCURL(t *testing.T) {
	path := writeConfig(t, `
wallet_address: "0x1111111111111111111111111111111111111111"
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rpc_url")
}

func TestGetYamlRequiresWalletAddress(t *testing.T) {
	path := writeConfig(t, `
rpc_url: https://polygon-rpc.com
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "wallet_address")
}

func TestGetYamlRejectsUnknownTargetAsset(t *testing.T) {
	path := writeConfig(t, `
rpc_url: https://polygon-rpc.com
wallet_address: "0x1111111111111111111111111111111111111111"
targets:
  DOGE: 100
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DOGE")
}

func TestGetYamlRejectsBrokenAsset(t *testing.T) {
	path := writeConfig(t, `
rpc_url: https://polygon-rpc.com
wallet_address: "0x1111111111111111111111111111111111111111"
assets:
  - symbol: WETH
    address: ""
    decimals: 18
`)

	_, err := getYaml(path)
	require.Error(t, err)
}

func TestGetYamlRejectsBadTolerance(t *testing.T) {
	path := writeConfig(t, `
rpc_url: https://polygon-rpc.com
wallet_address: "0x1111111111111111111111111111111111111111"
tolerance_pct: "lots"
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tolerance_pct")
}
