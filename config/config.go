package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	defaultAggregatorURL     = "https://api.odos.xyz"
	defaultChainID           = 137
	defaultPollPriceInterval = 30 * time.Second
	defaultListenAddr        = ":8080"
	defaultGasLimit          = 500000
	defaultSlippagePct       = 0.3
)

// Config holds everything the rebalancer needs for one session.
type Config struct {
	// ChainID EVM chain the wallet and all assets live on.
	ChainID int64
	// RPCURL JSON-RPC endpoint of the chain node.
	RPCURL string
	// WalletAddress account being rebalanced.
	WalletAddress string
	// AggregatorURL base URL of the Odos API.
	AggregatorURL string
	// Assets configured asset set; order is the output order of trades.
	Assets []domain.Asset
	// Targets default target percentages keyed by symbol.
	Targets map[string]int
	// PollPriceInterval price/balance refresh period.
	PollPriceInterval time.Duration
	// TolerancePct percentage-point band below which no rebalance triggers.
	TolerancePct decimal.Decimal
	// MinTradeUSD floor below which a per-asset delta is dropped.
	MinTradeUSD decimal.Decimal
	// SlippageLimitPercent passed through to the aggregator quote.
	SlippageLimitPercent float64
	// GasLimit fixed gas limit for the swap transaction.
	GasLimit uint64
	// ListenAddr web dashboard address.
	ListenAddr string
	// TLSDomain enables autocert TLS for the dashboard when non-empty.
	TLSDomain string
	// AdvisorURL OpenAI-compatible endpoint for the portfolio advisor;
	// the advisor is disabled when empty.
	AdvisorURL string
	// AdvisorModel model name for the advisor.
	AdvisorModel string
}

type configTmp struct {
	ChainID              int64          `yaml:"chain_id"`
	RPCURL               string         `yaml:"rpc_url"`
	WalletAddress        string         `yaml:"wallet_address"`
	AggregatorURL        string         `yaml:"aggregator_url"`
	Assets               []assetTmp     `yaml:"assets"`
	Targets              map[string]int `yaml:"targets"`
	PollPriceInterval    time.Duration  `yaml:"poll_price_interval"`
	TolerancePctStr      string         `yaml:"tolerance_pct,omitempty"`
	MinTradeUSDStr       string         `yaml:"min_trade_usd,omitempty"`
	SlippageLimitPercent float64        `yaml:"slippage_limit_percent,omitempty"`
	GasLimit             uint64         `yaml:"gas_limit,omitempty"`
	ListenAddr           string         `yaml:"listen_addr,omitempty"`
	TLSDomain            string         `yaml:"tls_domain,omitempty"`
	AdvisorURL           string         `yaml:"advisor_url,omitempty"`
	AdvisorModel         string         `yaml:"advisor_model,omitempty"`
}

type assetTmp struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
	Native   bool   `yaml:"native,omitempty"`
}

// DefaultAssets is the Polygon mainnet set the dashboard ships with.
func DefaultAssets() []domain.Asset {
	return []domain.Asset{
		// WMATIC address is used for swaps, the balance is read natively
		{Symbol: "MATIC", Address: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Decimals: 18, Native: true},
		{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
		{Symbol: "WETH", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
	}
}

// DefaultTargets is the initial 50/30/20 split.
func DefaultTargets() map[string]int {
	return map[string]int{"MATIC": 50, "USDC": 30, "WETH": 20}
}

// Get reads configuration from the yaml file given via --config, falling
// back to CLI flags for the required fields.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	rpcURL := flag.String("rpc", "", "chain JSON-RPC endpoint")
	walletAddress := flag.String("wallet", "", "wallet address to rebalance")
	listenAddr := flag.String("listen", defaultListenAddr, "dashboard listen address")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	if *rpcURL == "" || *walletAddress == "" {
		return Config{}, fmt.Errorf("either --config or both --rpc and --wallet must be provided")
	}

	cfg := defaults()
	cfg.RPCURL = *rpcURL
	cfg.WalletAddress = *walletAddress
	cfg.ListenAddr = *listenAddr
	return cfg, nil
}

func defaults() Config {
	return Config{
		ChainID:              defaultChainID,
		AggregatorURL:        defaultAggregatorURL,
		Assets:               DefaultAssets(),
		Targets:              DefaultTargets(),
		PollPriceInterval:    defaultPollPriceInterval,
		TolerancePct:         decimal.NewFromInt(1),
		MinTradeUSD:          decimal.NewFromInt(1),
		SlippageLimitPercent: defaultSlippagePct,
		GasLimit:             defaultGasLimit,
		ListenAddr:           defaultListenAddr,
	}
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	cfg := defaults()

	if tmp.ChainID != 0 {
		cfg.ChainID = tmp.ChainID
	}
	if tmp.RPCURL == "" {
		return Config{}, fmt.Errorf("'rpc_url' is required in yaml config")
	}
	cfg.RPCURL = tmp.RPCURL
	if tmp.WalletAddress == "" {
		return Config{}, fmt.Errorf("'wallet_address' is required in yaml config")
	}
	cfg.WalletAddress = tmp.WalletAddress
	if tmp.AggregatorURL != "" {
		cfg.AggregatorURL = tmp.AggregatorURL
	}
	if len(tmp.Assets) > 0 {
		cfg.Assets = make([]domain.Asset, 0, len(tmp.Assets))
		for _, a := range tmp.Assets {
			if a.Symbol == "" || a.Address == "" || a.Decimals <= 0 {
				return Config{}, fmt.Errorf("incorrect asset entry in yaml config: %+v", a)
			}
			cfg.Assets = append(cfg.Assets, domain.Asset{
				Symbol:   a.Symbol,
				Address:  a.Address,
				Decimals: a.Decimals,
				Native:   a.Native,
			})
		}
	}
	if len(tmp.Targets) > 0 {
		cfg.Targets = tmp.Targets
	}
	for symbol := range cfg.Targets {
		if !hasAsset(cfg.Assets, symbol) {
			return Config{}, fmt.Errorf("target for unknown asset %q in yaml config", symbol)
		}
	}
	if tmp.PollPriceInterval > 0 {
		cfg.PollPriceInterval = tmp.PollPriceInterval
	}
	if tmp.TolerancePctStr != "" {
		cfg.TolerancePct, err = decimal.NewFromString(tmp.TolerancePctStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'tolerance_pct' param in yaml config (must be a decimal), error: %w", err)
		}
	}
	if tmp.MinTradeUSDStr != "" {
		cfg.MinTradeUSD, err = decimal.NewFromString(tmp.MinTradeUSDStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'min_trade_usd' param in yaml config (must be a decimal), error: %w", err)
		}
	}
	if tmp.SlippageLimitPercent > 0 {
		cfg.SlippageLimitPercent = tmp.SlippageLimitPercent
	}
	if tmp.GasLimit > 0 {
		cfg.GasLimit = tmp.GasLimit
	}
	if tmp.ListenAddr != "" {
		cfg.ListenAddr = tmp.ListenAddr
	}
	cfg.TLSDomain = tmp.TLSDomain
	cfg.AdvisorURL = tmp.AdvisorURL
	cfg.AdvisorModel = tmp.AdvisorModel

	return cfg, nil
}

func hasAsset(assets []domain.Asset, symbol string) bool {
	for _, a := range assets {
		if a.Symbol == symbol {
			return true
		}
	}
	return false
}
