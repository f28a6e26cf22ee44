package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robux-topup-backend/internal/models"
)

func sampleSummary() Summary {
	return Summary{
		TransactionID:  1001,
		Username:       "builderman",
		RobuxAmount:    1000,
		Price:          decimal.NewFromInt(125000),
		PaymentMethod:  "BRIVA",
		PreviousStatus: models.StatusPending,
		NewStatus:      models.StatusProcessing,
		Reference:      "T0001ABCD",
		Source:         "tripay",
		OccurredAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestKafkaNotifier_Publishes(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event struct {
			EventType string  `json:"event_type"`
			Data      Summary `json:"data"`
		}
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.EventType != EventStatusChanged {
			return errors.New("unexpected event type " + event.EventType)
		}
		if event.Data.TransactionID != 1001 || event.Data.NewStatus != models.StatusProcessing {
			return errors.New("unexpected event data")
		}
		return nil
	})

	k := NewKafkaNotifier(producer, "transaction.status_changed")
	require.NoError(t, k.Notify(context.Background(), sampleSummary()))
	require.NoError(t, k.Close())
}

func TestKafkaNotifier_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	k := NewKafkaNotifier(producer, "events")
	err := k.Notify(context.Background(), sampleSummary())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, k.Close())
}

func TestKafkaNotifier_ContextDone(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	k := NewKafkaNotifier(producer, "events")
	err := k.Notify(ctx, sampleSummary())
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, k.Close())
}

func TestTelegramNotifier(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL+"/", "123:abc", "-100200", srv.Client())
	require.NoError(t, n.Notify(context.Background(), sampleSummary()))

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "-100200", gotBody["chat_id"])
	assert.True(t, strings.HasPrefix(gotBody["text"], "Transaction #1001: pending -> processing"))
}

func TestTelegramNotifier_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "bad", "1", srv.Client())
	err := n.Notify(context.Background(), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTelegramNotifier_ErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	const token = "123456:SECRET-BOT-TOKEN"
	n := NewTelegramNotifier(base, token, "1", nil)
	err := n.Notify(context.Background(), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram: send: post:")
	assert.NotContains(t, err.Error(), token)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestTelegramNotifier_TimeoutHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n := NewTelegramNotifier(srv.URL, "123456:SECRET-BOT-TOKEN", "1", srv.Client())
	err := n.Notify(ctx, sampleSummary())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestFormatText(t *testing.T) {
	s := sampleSummary()
	s.PreviousStatus = ""
	s.Reference = ""

	text := FormatText(s)
	assert.Equal(t, "Transaction #1001: unknown -> processing\n"+
		"User: builderman\n"+
		"Robux: 1000\n"+
		"Price: Rp 125000\n"+
		"Method: BRIVA\n"+
		"Source: tripay", text)
}

type notifierFunc func(ctx context.Context, s Summary) error

func (f notifierFunc) Notify(ctx context.Context, s Summary) error { return f(ctx, s) }

func TestMulti_AttemptsAll(t *testing.T) {
	var called []string
	first := errors.New("kafka down")
	m := Multi{
		notifierFunc(func(context.Context, Summary) error { called = append(called, "a"); return first }),
		notifierFunc(func(context.Context, Summary) error { called = append(called, "b"); return nil }),
	}

	err := m.Notify(context.Background(), sampleSummary())
	assert.ErrorIs(t, err, first)
	assert.Equal(t, []string{"a", "b"}, called)

	assert.NoError(t, Multi{}.Notify(context.Background(), sampleSummary()))
	assert.NoError(t, Noop{}.Notify(context.Background(), sampleSummary()))
}

func TestSummaryFor(t *testing.T) {
	at := time.Now()
	tx := &models.Transaction{
		ID:           3,
		User:         models.User{Username: "noob"},
		RobuxAmount:  400,
		Price:        decimal.NewFromInt(50000),
		Status:       models.StatusFailed,
		PaymentProof: "T9",
	}

	s := SummaryFor(tx, models.StatusPending, "admin:ops", at)
	assert.Equal(t, uint(3), s.TransactionID)
	assert.Equal(t, "noob", s.Username)
	assert.Equal(t, models.StatusPending, s.PreviousStatus)
	assert.Equal(t, models.StatusFailed, s.NewStatus)
	assert.Equal(t, "T9", s.Reference)
	assert.Equal(t, at, s.OccurredAt)
}
