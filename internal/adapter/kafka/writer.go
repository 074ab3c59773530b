package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/config"
	"github.com/couchcryptid/seaice-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes a GranuleEvent for every written granule.
// It implements pipeline.Notifier.
type Writer struct {
	writer  messageWriter
	version string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured granule topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, version: cfg.ProductVersion, logger: logger}
}

// Notify serializes and publishes the event for one granule. Events for the
// same hemisphere share a partition.
func (w *Writer) Notify(ctx context.Context, job domain.Job, path string) error {
	event := domain.NewGranuleEvent(job, path, w.version)
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish granule event: %w", err)
	}
	w.logger.Debug("granule event published", "path", path, "hemisphere", event.Hemisphere)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a GranuleEvent into a Kafka message keyed by
// hemisphere.
func serializeToMessage(event domain.GranuleEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize granule event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Hemisphere),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hemisphere", Value: []byte(event.Hemisphere)},
			{Key: "created_at", Value: []byte(event.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
