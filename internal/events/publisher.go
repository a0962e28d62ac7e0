// Package events ships committed ledger events to Kafka. The ledger's own
// store stays the queryable source for history; the Kafka stream exists
// for downstream consumers.
//
// Records are keyed by subject principal, so per-subject ordering is
// preserved within a partition. Delivery is asynchronous and best effort:
// a broker outage never fails the ledger operation that produced the
// event.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"attestry/internal/ledger"
)

var publishResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attestry_events_published_total",
	Help: "Ledger events produced to Kafka by result",
}, []string{"result"})

// DefaultTopic is the stream carrying ledger events.
const DefaultTopic = "attestry.ledger.events"

// wireEvent is the JSON structure produced to Kafka.
type wireEvent struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Actor          string    `json:"actor"`
	Subject        string    `json:"subject"`
	ContentAddress string    `json:"contentAddress,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func encodeEvent(ev ledger.Event) ([]byte, error) {
	return json.Marshal(wireEvent{
		ID:             ev.ID.String(),
		Kind:           string(ev.Kind),
		Actor:          ev.Actor.String(),
		Subject:        ev.Subject.String(),
		ContentAddress: ev.ContentAddress,
		Timestamp:      ev.Timestamp,
	})
}

// KafkaPublisher produces ledger events to a Kafka topic. It implements
// ledger.EventSink.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects a producer to brokers. The connection is
// lazy; broker reachability surfaces on the first produce or admin call.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicas, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

// Publish implements ledger.EventSink. The record is handed to the
// producer's buffer; delivery failures are logged and counted, never
// returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event ledger.Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		publishResults.WithLabelValues("encode_error").Inc()
		p.logger.ErrorContext(ctx, "event encode failed",
			"kind", string(event.Kind),
			"subject", event.Subject.String(),
			"error", err.Error(),
		)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject.String()),
		Value: payload,
	}
	// Delivery outlives the request that produced the event; detaching the
	// cancellation keeps a finished request from failing buffered records.
	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			publishResults.WithLabelValues("error").Inc()
			p.logger.Warn("event publish failed",
				"kind", string(event.Kind),
				"subject", event.Subject.String(),
				"error", err.Error(),
			)
			return
		}
		publishResults.WithLabelValues("ok").Inc()
	})
}

// Flush blocks until buffered records are delivered or ctx expires.
func (p *KafkaPublisher) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close drains the producer buffer and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
