package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/seabright/wrf-wind-maps/internal/config"
	"github.com/seabright/wrf-wind-maps/internal/domain"
)

// Notifier publishes artifact manifests to the catalog topic so
// downstream consumers learn which report images a run produced.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured catalog topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// PublishManifests serializes and publishes all artifact manifests in a
// single WriteMessages call.
func (n *Notifier) PublishManifests(ctx context.Context, artifacts []domain.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(artifacts))
	for i := range artifacts {
		msg, err := serializeManifest(artifacts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write manifests: %w", err)
	}
	n.logger.Info("manifests published", "count", len(artifacts))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeManifest marshals an Artifact into a Kafka message keyed by
// the image file name.
func serializeManifest(a domain.Artifact) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize manifest: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(filepath.Base(a.Path)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(a.Region)},
			{Key: "variable", Value: []byte(a.Variable)},
			{Key: "generated_at", Value: []byte(a.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
