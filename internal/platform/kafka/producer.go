// Package kafka publishes audit outbox messages with franz-go.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"landledger/internal/audit/outbox"
	"landledger/internal/platform/config"
)

// Producer writes outbox messages to a single topic, keyed by aggregate id so
// entries for one application stay ordered within a partition.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer dials the brokers in cfg. The client connects lazily; call
// EnsureTopic to fail fast on a bad cluster.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the audit topic when it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Publish produces the batch synchronously and fails if any record fails.
func (p *Producer) Publish(ctx context.Context, msgs []outbox.Message) error {
	records := make([]*kgo.Record, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, toRecord(p.topic, m))
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}
	return nil
}

func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}

func toRecord(topic string, m outbox.Message) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(m.AggregateID),
		Value: m.Payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(m.EventType)},
			{Key: "outbox_id", Value: []byte(m.ID.String())},
		},
		Timestamp: m.CreatedAt,
	}
}
