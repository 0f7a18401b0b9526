// Package advisor asks an OpenAI-compatible API for a qualitative read of
// the portfolio: health, risk, and rebalancing commentary. It is advisory
// text only and never feeds back into the trade computation.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/folio/internal/domain"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

const systemPrompt = `You are a DeFi portfolio advisor. You receive a wallet's current USD allocation and the user's target allocation for a small set of tokens on one chain.

Provide:
1. Portfolio Health Score (0-100)
2. Risk Analysis based on the current split
3. Rebalancing Recommendations relative to the stated targets
4. Gas-Efficient Strategy for any suggested trades

Be concise and concrete. Do not invent prices or balances beyond the data given.`

// Advisor is a client for an OpenAI-compatible chat completion endpoint.
type Advisor struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// New creates an advisor client.
func New(apiURL, apiKey, model string) *Advisor {
	return &Advisor{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Message message `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// BuildPrompt formats the portfolio state for the model.
func BuildPrompt(assets []domain.Asset, snapshot domain.AllocationSnapshot, targets map[string]int) string {
	var b strings.Builder
	b.WriteString("Analyze this DeFi portfolio:\n\n")
	fmt.Fprintf(&b, "Total value: $%s\n\n", snapshot.TotalUSD.StringFixed(2))
	b.WriteString("Current allocation:\n")
	for i := range assets {
		symbol := assets[i].Symbol
		fmt.Fprintf(&b, "- %s: $%s (%s%%)\n",
			symbol, snapshot.Values[symbol].StringFixed(2), snapshot.PercentOf(symbol).StringFixed(1))
	}
	b.WriteString("\nTarget allocation:\n")
	for i := range assets {
		symbol := assets[i].Symbol
		fmt.Fprintf(&b, "- %s: %d%%\n", symbol, targets[symbol])
	}
	return b.String()
}

// Analyze sends the portfolio state to the model and returns its commentary.
func (a *Advisor) Analyze(ctx context.Context, assets []domain.Asset, snapshot domain.AllocationSnapshot, targets map[string]int) (string, error) {
	if a.apiKey == "" {
		return "", errors.New("advisor API key is empty")
	}

	reqBody := chatRequest{
		Model: a.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(assets, snapshot, targets)},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	}

	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(a.retryDelay):
			}
		}

		response, err := a.sendRequest(ctx, reqBody)
		if err != nil {
			lastErr = err
			continue
		}
		return response, nil
	}

	return "", errors.Wrapf(lastErr, "failed after %d retries", a.maxRetries)
}

func (a *Advisor) sendRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisor API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal response")
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("advisor API error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("advisor API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}
