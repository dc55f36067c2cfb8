package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/ec-storefront/internal/infrastructure/storage"
)

// ChangeFeed carries storage changes between execution contexts that do not
// share a process. It publishes local writes and delivers the writes of
// every other origin to its subscribers.
type ChangeFeed struct {
	origin   string
	producer *Producer
	consumer *Consumer
	changes  *storage.Broadcaster
}

// NewChangeFeed creates a feed for origin. Each origin reads through its own
// consumer group so it sees every change.
func NewChangeFeed(brokers []string, topic, origin string) *ChangeFeed {
	return &ChangeFeed{
		origin:   origin,
		producer: NewProducer(brokers, topic),
		consumer: NewConsumer(brokers, topic, GroupID(origin)),
		changes:  storage.NewBroadcaster(),
	}
}

// GroupID is the consumer group used by origin.
func GroupID(origin string) string {
	return "storefront-" + origin
}

func (f *ChangeFeed) Publish(ctx context.Context, change storage.Change) error {
	return f.producer.Publish(ctx, change)
}

func (f *ChangeFeed) Subscribe(fn func(storage.Change)) func() {
	return f.changes.Subscribe(fn)
}

// Run consumes the topic until ctx is cancelled.
func (f *ChangeFeed) Run(ctx context.Context) error {
	err := f.consumer.Consume(ctx, f.handleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (f *ChangeFeed) handleMessage(_ context.Context, _, value []byte) error {
	var change storage.Change
	if err := json.Unmarshal(value, &change); err != nil {
		return fmt.Errorf("failed to unmarshal change: %w", err)
	}
	if change.Origin == f.origin {
		return nil
	}
	f.changes.Publish(change)
	return nil
}

func (f *ChangeFeed) Close() error {
	f.changes.Close()
	return errors.Join(f.producer.Close(), f.consumer.Close())
}
