// Package consumer projects the Kafka audit topic into a queryable store.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const maxRetryDelay = 5 * time.Second

type Config struct {
	Brokers []string
	Topic   string
	Group   string
}

// Consumer polls the audit topic as part of a consumer group and commits
// offsets only after every record in a fetch has been handled.
type Consumer struct {
	client  *kgo.Client
	handler *Handler
	logger  *slog.Logger
}

func New(cfg Config, handler *Handler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.Group == "" {
		return nil, errors.New("audit consumer: brokers, topic and group are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumerGroup(cfg.Group),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Warn("audit fetch error", "topic", topic, "partition", partition, "error", err)
		})

		var iterErr error
		fetches.EachRecord(func(rec *kgo.Record) {
			if iterErr != nil {
				return
			}
			iterErr = c.handleWithRetry(ctx, rec)
		})
		if iterErr != nil {
			return iterErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("audit offset commit failed", "error", err)
		}
	}
}

// handleWithRetry blocks the partition until the record is stored or ctx ends.
func (c *Consumer) handleWithRetry(ctx context.Context, rec *kgo.Record) error {
	delay := 100 * time.Millisecond
	for {
		err := c.handler.Handle(ctx, rec)
		if err == nil {
			return nil
		}
		c.logger.Error("audit record not stored, retrying",
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
