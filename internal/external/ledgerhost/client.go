// Package ledgerhost is the HTTP client for the marketplace's token ledger.
// All stake deposits, notification pings and payouts go through its transfer
// endpoint.
package ledgerhost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"arbitron/internal/domain/bank"
	"arbitron/internal/domain/money"
)

type Client struct {
	TransferURL string
	HTTP        *http.Client
}

var _ bank.Transferer = (*Client)(nil)

func New(baseURL string, transferPath string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		TransferURL: baseURL + transferPath,
		HTTP:        httpClient,
	}
}

type transferReq struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Memo     string `json:"memo,omitempty"`
}

type transferResp struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c *Client) Transfer(ctx context.Context, from, to string, amount money.Money, memo string) error {
	body, err := json.Marshal(transferReq{
		From:     from,
		To:       to,
		Amount:   amount.Amount,
		Currency: amount.Currency,
		Memo:     memo,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.TransferURL, bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 == 2 {
		return nil
	}

	var out transferResp
	_ = json.Unmarshal(raw, &out)

	switch out.Code {
	case "insufficient_funds":
		return fmt.Errorf("transfer %s -> %s: %w", from, to, bank.ErrInsufficientFunds)
	case "unknown_account":
		return fmt.Errorf("transfer %s -> %s: %w", from, to, bank.ErrInvalidAccount)
	}
	return fmt.Errorf("ledger %s: %s", resp.Status, string(raw))
}
