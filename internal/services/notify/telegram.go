package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TelegramNotifier posts a plain-text summary to one chat through the Bot API.
type TelegramNotifier struct {
	apiBase string
	token   string
	chatID  string
	http    *http.Client
}

func NewTelegramNotifier(apiBase, token, chatID string, httpClient *http.Client) *TelegramNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelegramNotifier{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		chatID:  chatID,
		http:    httpClient,
	}
}

func (t *TelegramNotifier) Notify(ctx context.Context, s Summary) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    FormatText(s),
	})
	if err != nil {
		return fmt.Errorf("telegram: encode: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", withoutURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// withoutURL drops the request URL from transport errors. Bot API URLs carry
// the token and these errors end up in logs.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}

// FormatText renders the alert message.
func FormatText(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transaction #%d: %s -> %s\n", s.TransactionID, orUnknown(string(s.PreviousStatus)), s.NewStatus)
	fmt.Fprintf(&b, "User: %s\n", orUnknown(s.Username))
	fmt.Fprintf(&b, "Robux: %d\n", s.RobuxAmount)
	fmt.Fprintf(&b, "Price: Rp %s\n", s.Price.StringFixed(0))
	if s.PaymentMethod != "" {
		fmt.Fprintf(&b, "Method: %s\n", s.PaymentMethod)
	}
	if s.Reference != "" {
		fmt.Fprintf(&b, "Reference: %s\n", s.Reference)
	}
	fmt.Fprintf(&b, "Source: %s", s.Source)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
