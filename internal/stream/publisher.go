package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Publisher mirrors ingested document batches onto a Kafka topic for
// downstream consumers. It is strictly best-effort: a publish failure is
// logged and never fails the crawl that produced the batch.
//
// A nil *Publisher is a valid no-op, used when no brokers are configured.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher builds a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: 3,
	})
	return &Publisher{writer: writer, log: log}
}

// Publish sends one message per document, keyed by source index.
func (p *Publisher) Publish(ctx context.Context, index string, docs []any) {
	if p == nil || len(docs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(docs))
	for _, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			p.log.Warn("marshal stream document", slog.String("index", index), slog.Any("err", err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(index),
			Value: payload,
		})
	}
	if len(msgs) == 0 {
		return
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Warn("publish batch",
			slog.String("index", index),
			slog.Int("count", len(msgs)),
			slog.Any("err", err),
		)
		return
	}

	p.log.Debug("published batch", slog.String("index", index), slog.Int("count", len(msgs)))
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
