package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
)

const EventStatusChanged = "transaction.status_changed"

type statusChangedEvent struct {
	EventType string  `json:"event_type"`
	Data      Summary `json:"data"`
}

// KafkaNotifier publishes status changes keyed by transaction id, so all
// events of one transaction land on the same partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

// NewSyncProducer connects to the brokers, retrying while they come up.
func NewSyncProducer(brokers []string, attempts int) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = 5 * time.Second
	config.Producer.Retry.Max = 2
	config.Producer.Retry.Backoff = 250 * time.Millisecond
	config.Net.DialTimeout = 5 * time.Second
	config.Net.ReadTimeout = 5 * time.Second
	config.Net.WriteTimeout = 5 * time.Second

	var producer sarama.SyncProducer
	var err error
	for i := 1; i <= attempts; i++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			return producer, nil
		}
		if i < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("kafka producer: %w", err)
}

// Notify returns when the broker acks or ctx ends, whichever is first. A send
// abandoned on ctx still runs to completion within the producer's own timeouts.
func (k *KafkaNotifier) Notify(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", EventStatusChanged, err)
	}

	data, err := json.Marshal(statusChangedEvent{EventType: EventStatusChanged, Data: s})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", EventStatusChanged, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(s.TransactionID), 10)),
		Value: sarama.ByteEncoder(data),
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := k.producer.SendMessage(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("publish %s event: %w", EventStatusChanged, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s event: %w", EventStatusChanged, ctx.Err())
	}
}

func (k *KafkaNotifier) Close() error {
	return k.producer.Close()
}
