package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const defaultHandlerRetry = 30 * time.Second

var tracer = otel.Tracer("github.com/med2305/mlops/pkg/kafka")

// Handler processes a consumed Kafka message. Errors are retried unless
// wrapped with Permanent.
type Handler func(ctx context.Context, msg Message) error

// Permanent marks a handler error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Consumer reads one topic as part of a consumer group and commits each
// message once its handler has finished with it.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	logger  *slog.Logger
	retry   time.Duration
}

// NewConsumer creates a new Consumer for the given topic with the provided handler.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	readerCfg := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	}

	dialer, err := cfg.dialer()
	if err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	if dialer != nil {
		readerCfg.Dialer = dialer
	}

	retry := cfg.HandlerRetry
	if retry <= 0 {
		retry = defaultHandlerRetry
	}

	return &Consumer{
		reader:  kafkago.NewReader(readerCfg),
		handler: handler,
		logger:  logger.With("topic", topic, "group", cfg.ConsumerGroup),
		retry:   retry,
	}, nil
}

// Start consumes until ctx is canceled. Messages are handled in partition
// order; a message whose handler keeps failing is logged and committed so
// the group does not stall behind it.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				// Left uncommitted so the group redelivers it.
				return nil
			}
			c.logger.Error("dropping message",
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	msg := fromKafka(m)
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
	ctx, span := tracer.Start(ctx, "kafka.consume "+m.Topic, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.retry

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return c.handler(ctx, msg)
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		c.logger.Warn("handler failed, retrying",
			"partition", m.Partition,
			"offset", m.Offset,
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)
	})
}

func fromKafka(m kafkago.Message) Message {
	msg := Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close kafka reader: %w", err)
	}
	return nil
}
