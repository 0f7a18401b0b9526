// Package clients contains thin clients for the external services the
// rebalancer talks to: the Odos aggregator API and the chain node.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const odosRequestTimeout = 30 * time.Second

// OdosClient calls the Odos pricing and smart-order-router endpoints.
// Quote and assemble are single-shot: a failed call aborts the rebalance
// attempt, there is no retry.
type OdosClient struct {
	baseURL    string
	chainID    int64
	httpClient *http.Client
}

// NewOdosClient creates a client for the given aggregator base URL and chain.
func NewOdosClient(baseURL string, chainID int64) *OdosClient {
	return &OdosClient{
		baseURL: baseURL,
		chainID: chainID,
		httpClient: &http.Client{
			Timeout: odosRequestTimeout,
		},
	}
}

// InputToken is an absolute aggregator input amount in smallest units.
type InputToken struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

// OutputToken is a relative aggregator output weight; the router determines
// exact output amounts from the swap of the input set.
type OutputToken struct {
	TokenAddress string  `json:"tokenAddress"`
	Proportion   float64 `json:"proportion"`
}

// QuoteRequest is the /sor/quote/v2 request body.
type QuoteRequest struct {
	ChainID              int64         `json:"chainId"`
	InputTokens          []InputToken  `json:"inputTokens"`
	OutputTokens         []OutputToken `json:"outputTokens"`
	UserAddr             string        `json:"userAddr"`
	SlippageLimitPercent float64       `json:"slippageLimitPercent"`
	ReferralCode         int           `json:"referralCode"`
	DisableRFQs          bool          `json:"disableRFQs"`
	Compact              bool          `json:"compact"`
	Simple               bool          `json:"simple"`
}

// QuoteResponse carries the routing-path identifier consumed by assemble.
type QuoteResponse struct {
	PathID string `json:"pathId"`
}

type assembleRequest struct {
	PathID   string `json:"pathId"`
	UserAddr string `json:"userAddr"`
	Simulate bool   `json:"simulate"`
}

// AssembledTransaction is the ready-to-sign transaction returned by assemble.
type AssembledTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// AssembleResponse is the /sor/assemble response body.
type AssembleResponse struct {
	Transaction AssembledTransaction `json:"transaction"`
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

// GetTokenPrice fetches the current USD price of a token.
func (c *OdosClient) GetTokenPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/pricing/token/%d/%s", c.baseURL, c.chainID, tokenAddress)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to create price request")
	}

	body, err := c.do(req)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to fetch price for %s", tokenAddress)
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to unmarshal price response")
	}

	return resp.Price, nil
}

// GetQuote requests a swap route for the given input and output token sets.
func (c *OdosClient) GetQuote(ctx context.Context, quote QuoteRequest) (*QuoteResponse, error) {
	quote.ChainID = c.chainID

	body, err := c.post(ctx, c.baseURL+"/sor/quote/v2", quote)
	if err != nil {
		return nil, errors.Wrap(err, "quote request failed")
	}

	var resp QuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal quote response")
	}
	if resp.PathID == "" {
		return nil, errors.New("quote response carries no pathId")
	}

	return &resp, nil
}

// AssembleTransaction exchanges a routing-path identifier for a ready-to-sign
// transaction.
func (c *OdosClient) AssembleTransaction(ctx context.Context, pathID, userAddr string) (*AssembleResponse, error) {
	body, err := c.post(ctx, c.baseURL+"/sor/assemble", assembleRequest{
		PathID:   pathID,
		UserAddr: userAddr,
		Simulate: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assemble request failed")
	}

	var resp AssembleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal assemble response")
	}
	if resp.Transaction.To == "" {
		return nil, errors.New("assemble response carries no transaction")
	}

	return &resp, nil
}

func (c *OdosClient) post(ctx context.Context, url string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *OdosClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
