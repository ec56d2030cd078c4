// Package postgres serves formsg message catalogs stored in a PostgreSQL
// table, using LISTEN/NOTIFY.
package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table queried for catalogs.
const DefaultTable = "form_messages"

// Watcher watches one row of a catalog table. A trigger must notify the
// channel with the row key as payload:
//
//	CREATE TABLE form_messages (key text PRIMARY KEY, value bytea NOT NULL);
//
//	CREATE OR REPLACE FUNCTION notify_form_messages() RETURNS trigger AS $$
//	BEGIN
//	    PERFORM pg_notify('form_messages', NEW.key);
//	    RETURN NEW;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER form_messages_notify
//	    AFTER INSERT OR UPDATE ON form_messages
//	    FOR EACH ROW EXECUTE FUNCTION notify_form_messages();
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	key     string
	table   string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTable sets the table queried for the catalog. Defaults to
// DefaultTable.
func WithTable(table string) Option {
	return func(w *Watcher) {
		w.table = table
	}
}

// New creates a Watcher for the row key, refreshed on notifications sent to
// channel.
func New(pool *pgxpool.Pool, channel, key string, opts ...Option) *Watcher {
	w := &Watcher{
		pool:    pool,
		channel: channel,
		key:     key,
		table:   DefaultTable,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch listens on the channel, emits the current row value if present, and
// then emits it again after every notification naming the key. Identical
// consecutive values are not emitted.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	initial, err := w.fetch(ctx)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to read %s: %w", w.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer conn.Release()

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

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if notification.Payload != w.key {
				continue
			}

			value, err := w.fetch(ctx)
			if err != nil {
				continue
			}
			if !emit(value) {
				return
			}
		}
	}()

	return out, nil
}

// fetch returns the row value, or nil if the row does not exist.
func (w *Watcher) fetch(ctx context.Context) ([]byte, error) {
	var value []byte
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", pgx.Identifier{w.table}.Sanitize())
	err := w.pool.QueryRow(ctx, query, w.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}
