package storage

import (
	"context"
	"log"
	"time"
)

// publishTimeout bounds how long a write waits on the change feed.
const publishTimeout = 5 * time.Second

type publishingKV struct {
	KeyValue
	publisher Publisher
	origin    string
}

// Publishing wraps kv so every successful Set and Remove is announced through
// publisher. The write to kv is authoritative: a publish failure is logged and
// the write still succeeds.
func Publishing(kv KeyValue, publisher Publisher, origin string) KeyValue {
	return &publishingKV{KeyValue: kv, publisher: publisher, origin: origin}
}

func (p *publishingKV) Set(key, value string) error {
	if err := p.KeyValue.Set(key, value); err != nil {
		return err
	}
	p.publish(Change{Key: key, Value: value, Origin: p.origin, At: time.Now()})
	return nil
}

func (p *publishingKV) Remove(key string) error {
	if err := p.KeyValue.Remove(key); err != nil {
		return err
	}
	p.publish(Change{Key: key, Removed: true, Origin: p.origin, At: time.Now()})
	return nil
}

func (p *publishingKV) publish(change Change) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.publisher.Publish(ctx, change); err != nil {
		log.Printf("[Storage] Failed to publish change for key %s: %v", change.Key, err)
	}
}
