// Package consumer turns rebuild requests read from Kafka into index builds.
package consumer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/builder"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
)

// RebuildRequest is the payload of the rebuild topic.
type RebuildRequest struct {
	Reason      string `json:"reason"`
	RequestedBy string `json:"requested_by"`
}

// Rebuilder is satisfied by *builder.Builder.
type Rebuilder interface {
	Rebuild(ctx context.Context, reason string) (*builder.Report, error)
}

// RebuildConsumer wraps a Kafka consumer to drive rebuilds.
type RebuildConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *RebuildConsumer {
	return &RebuildConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "rebuild-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (rc *RebuildConsumer) Start(ctx context.Context) error {
	rc.logger.Info("rebuild consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that rebuilds the index for every
// request. Undecodable messages are logged and committed. A failed build
// is logged and committed too; retrying it would read the same inputs.
func HandleMessage(rb Rebuilder) kafka.MessageHandler {
	logger := slog.Default().With("component", "rebuild-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[RebuildRequest](value)
		if err != nil {
			logger.Error("failed to decode rebuild request",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		reason := "kafka"
		if r := strings.TrimSpace(req.Reason); r != "" {
			reason = "kafka: " + r
		}
		logger.Info("rebuild requested",
			"reason", req.Reason,
			"requested_by", req.RequestedBy,
		)
		report, err := rb.Rebuild(ctx, reason)
		if err != nil {
			logger.Error("requested rebuild failed",
				"requested_by", req.RequestedBy,
				"error", err,
			)
			return nil
		}
		logger.Info("requested rebuild finished",
			"build_id", report.BuildID,
			"documents", report.Stats.Documents,
		)
		return nil
	}
}
