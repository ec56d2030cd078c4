// Package redis serves formsg message catalogs stored under a Redis key,
// using keyspace notifications.
package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Watcher watches a Redis key holding a message catalog. Requires Redis to
// have keyspace notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
type Watcher struct {
	client *redis.Client
	key    string
	db     int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDB sets the database number used in the keyspace channel. It must match
// the database the client is connected to. Defaults to 0.
func WithDB(db int) Option {
	return func(w *Watcher) {
		w.db = db
	}
}

// New creates a Watcher for key.
func New(client *redis.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch subscribes to changes of the key, emits its current value if set,
// and then emits the value after every write. Identical consecutive values
// are not emitted. Deleting the key emits nothing.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	channel := fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key)
	pubsub := w.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	initial, err := w.get(ctx)
	if err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to read %s: %w", w.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		var last []byte
		emit := func(v []byte) bool {
			if v == nil || bytes.Equal(v, last) {
				return true
			}
			last = v
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(initial) {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				switch msg.Payload {
				case "set", "setex", "psetex", "setnx", "setrange", "append", "rename_to", "restore":
				default:
					continue
				}
				val, err := w.get(ctx)
				if err != nil {
					continue
				}
				if !emit(val) {
					return
				}
			}
		}
	}()

	return out, nil
}

// get returns the value of the key, or nil if it is not set.
func (w *Watcher) get(ctx context.Context) ([]byte, error) {
	val, err := w.client.Get(ctx, w.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}
