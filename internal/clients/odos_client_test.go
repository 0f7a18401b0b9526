package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	usdcAddress = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
	userAddr    = "0x1111111111111111111111111111111111111111"
)

func TestGetTokenPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/pricing/token/137/"+usdcAddress, r.URL.Path)
		w.Write([]byte(`{"price": 0.9998}`))
	}))
	defer srv.Close()

	c := NewOdosClient(srv.URL, 137)
	price, err := c.GetTokenPrice(context.Background(), usdcAddress)
	require.NoError(t, err)
	require.True(t, decimal.NewFromFloat(0.9998).Equal(price))
}

func TestGetTokenPriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOdosClient(srv.URL, 137)
	_, err := c.GetTokenPrice(context.Background(), usdcAddress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestGetQuoteSetsChainAndReturnsPath(t *testing.T) {
	var received QuoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sor/quote/v2", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"pathId": "path-42"}`))
	}))
	defer srv.Close()

	c := NewOdosClient(srv.URL, 137)
	quote, err := c.GetQuote(context.Background(), QuoteRequest{
		InputTokens:          []InputToken{{TokenAddress: usdcAddress, Amount: "100000000"}},
		OutputTokens:         []OutputToken{{TokenAddress: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Proportion: 1}},
		UserAddr:             userAddr,
		SlippageLimitPercent: 0.3,
		DisableRFQs:          true,
		Compact:              true,
		Simple:               true,
	})
	require.NoError(t, err)
	require.Equal(t, "path-42", quote.PathID)

	// the client stamps its own chain id regardless of the request value
	require.Equal(t, int64(137), received.ChainID)
	require.Equal(t, "100000000", received.InputTokens[0].Amount)
	require.Equal(t, userAddr, received.UserAddr)
}

func TestGetQuoteEmptyPathID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewOdosClient(srv.URL, 137)
	_, err := c.GetQuote(context.Background(), QuoteRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "pathId")
}

func TestAssembleTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sor/assemble", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "path-42", req["pathId"])
		require.Equal(t, userAddr, req["userAddr"])
		require.Equal(t, true, req["simulate"])

		w.Write([]byte(`{"transaction": {"to": "0xrouter", "data": "0xdead", "value": "0"}}`))
	}))
	defer srv.Close()

	c := NewOdosClient(srv.URL, 137)
	resp, err := c.AssembleTransaction(context.Background(), "path-42", userAddr)
	require.NoError(t, err)
	require.Equal(t, "0xrouter", resp.Transaction.To)
	require.Equal(t, "0xdead", resp.Transaction.Data)
}

func TestAssembleTransactionMissingTo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction": {}}`))
	}))
	defer srv.Close()

	c := NewOdosClient(srv.URL, 137)
	_, err := c.AssembleTransaction(context.Background(), "path-42", userAddr)
	require.Error(t, err)
}
