package tripay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

type Config struct {
	BaseURL      string
	APIKey       string
	PrivateKey   string
	MerchantCode string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type Channel struct {
	Group       string     `json:"group"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	FeeMerchant ChannelFee `json:"fee_merchant"`
	FeeCustomer ChannelFee `json:"fee_customer"`
	TotalFee    ChannelFee `json:"total_fee"`
	MinimumFee  *float64   `json:"minimum_fee"`
	MaximumFee  *float64   `json:"maximum_fee"`
	IconURL     string     `json:"icon_url"`
	Active      bool       `json:"active"`
}

type ChannelFee struct {
	Flat    float64 `json:"flat"`
	Percent float64 `json:"percent"`
}

type OrderItem struct {
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CreateTransactionRequest struct {
	Method        string      `json:"method"`
	MerchantRef   string      `json:"merchant_ref"`
	Amount        int64       `json:"amount"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	OrderItems    []OrderItem `json:"order_items"`
	CallbackURL   string      `json:"callback_url,omitempty"`
	ReturnURL     string      `json:"return_url,omitempty"`
	ExpiredTime   int64       `json:"expired_time,omitempty"`
	Signature     string      `json:"signature"`
}

type TransactionData struct {
	Reference   string `json:"reference"`
	MerchantRef string `json:"merchant_ref"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	PayCode     string `json:"pay_code,omitempty"`
	ExpiredTime int64  `json:"expired_time"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ListChannels returns the merchant's payment channels.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var out envelope[[]Channel]
	if err := c.do(ctx, http.MethodGet, "/merchant/payment-channel", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateTransaction opens a closed payment. The signature is filled in when empty.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*TransactionData, error) {
	if req.Signature == "" {
		req.Signature = TransactionSignature(c.cfg.MerchantCode, req.MerchantRef, req.Amount, c.cfg.PrivateKey)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode transaction request: %w", err)
	}

	var out envelope[TransactionData]
	if err := c.do(ctx, http.MethodPost, "/transaction/create", body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// APIError is a non-success answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tripay: status %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("tripay: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tripay: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("tripay: read response: %w", err)
	}

	var head struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "invalid response body"}
	}
	if resp.StatusCode >= 300 || !head.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: head.Message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("tripay: decode response: %w", err)
	}
	return nil
}

func formatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}
