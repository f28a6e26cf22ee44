package tripay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL,
		APIKey:       "api-key",
		PrivateKey:   "priv",
		MerchantCode: "T1234",
	}, srv.Client())
}

func TestClient_ListChannels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/merchant/payment-channel", r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":[
			{"group":"Virtual Account","code":"BRIVA","name":"BRI Virtual Account","type":"DIRECT",
			 "fee_customer":{"flat":4250,"percent":0},"active":true},
			{"group":"E-Wallet","code":"QRIS","name":"QRIS","type":"DIRECT","active":false}
		]}`))
	})

	channels, err := c.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "BRIVA", channels[0].Code)
	assert.Equal(t, 4250.0, channels[0].FeeCustomer.Flat)
	assert.True(t, channels[0].Active)
	assert.False(t, channels[1].Active)
}

func TestClient_CreateTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateTransactionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TransactionSignature("T1234", req.MerchantRef, req.Amount, "priv"), req.Signature)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": TransactionData{
				Reference:   "DEV-T1234000001",
				MerchantRef: req.MerchantRef,
				CheckoutURL: "https://tripay.co.id/checkout/DEV-T1234000001",
				Status:      "UNPAID",
				Amount:      req.Amount,
			},
		})
	})

	data, err := c.CreateTransaction(context.Background(), CreateTransactionRequest{
		Method:      "BRIVA",
		MerchantRef: "ZB-1-1700000000",
		Amount:      125000,
		OrderItems:  []OrderItem{{Name: "1000 Robux", Price: 125000, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV-T1234000001", data.Reference)
	assert.Equal(t, "ZB-1-1700000000", data.MerchantRef)
	assert.Equal(t, "UNPAID", data.Status)
}

func TestClient_GatewayRejects(t *testing.T) {
	t.Run("success false", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid API key"}`))
		})
		_, err := c.ListChannels(context.Background())

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusOK, apiErr.StatusCode)
		assert.Equal(t, "Invalid API key", apiErr.Message)
	})

	t.Run("non json error page", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		})
		_, err := c.ListChannels(context.Background())

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})
}
