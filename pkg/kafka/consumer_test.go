package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

func testConsumer(handler Handler, retry time.Duration) *Consumer {
	return &Consumer{
		handler: handler,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		retry:   retry,
	}
}

func TestConsumerHandle(t *testing.T) {
	m := kafkago.Message{
		Key:     []byte("txn-1"),
		Value:   []byte(`{"amount": 12}`),
		Headers: []kafkago.Header{{Key: "content-type", Value: []byte("application/json")}},
	}

	t.Run("converts the message", func(t *testing.T) {
		var got Message
		c := testConsumer(func(_ context.Context, msg Message) error {
			got = msg
			return nil
		}, time.Second)

		if err := c.handle(context.Background(), m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got.Key) != "txn-1" || got.Headers["content-type"] != "application/json" {
			t.Fatalf("unexpected message: %+v", got)
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		c := testConsumer(func(context.Context, Message) error {
			calls++
			if calls < 2 {
				return errors.New("model not ready")
			}
			return nil
		}, 10*time.Second)

		if err := c.handle(context.Background(), m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		poison := errors.New("poison")
		c := testConsumer(func(context.Context, Message) error {
			calls++
			return Permanent(poison)
		}, 10*time.Second)

		err := c.handle(context.Background(), m)
		if !errors.Is(err, poison) {
			t.Fatalf("expected poison error, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("gives up after the retry window", func(t *testing.T) {
		c := testConsumer(func(context.Context, Message) error {
			return errors.New("still failing")
		}, time.Millisecond)

		if err := c.handle(context.Background(), m); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		c := testConsumer(func(context.Context, Message) error {
			cancel()
			return errors.New("failing")
		}, time.Minute)

		if err := c.handle(ctx, m); err == nil {
			t.Fatal("expected error")
		}
	})
}
