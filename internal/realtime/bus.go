// Package realtime maintains the single websocket connection to the backend
// event stream and fans incoming events out to per-topic subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskdeck/taskdeck/internal/models"
)

// Handler receives a decoded event for a subscribed topic. Handlers run
// synchronously on the read loop, once each, in subscription order.
type Handler func(kind models.ChangeKind, data json.RawMessage)

// Bus is an injectable event bus owned by the application root and passed by
// reference to every consumer; there is no package-level socket.
type Bus struct {
	url               string
	log               *slog.Logger
	dialer            *websocket.Dialer
	reconnectAttempts int
	reconnectDelay    time.Duration

	mu           sync.Mutex
	subs         map[string][]*subscription
	nextSubID    int
	reconnectFns []func()
}

type subscription struct {
	id      int
	topic   string
	handler Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bus) { b.log = log }
}

// WithReconnect sets the reconnection cap and the fixed delay between
// attempts.
func WithReconnect(attempts int, delay time.Duration) Option {
	return func(b *Bus) {
		b.reconnectAttempts = attempts
		b.reconnectDelay = delay
	}
}

// New creates a bus for the given websocket endpoint. The connection is not
// opened until Run is called.
func New(url string, opts ...Option) *Bus {
	b := &Bus{
		url:               url,
		log:               slog.Default(),
		dialer:            websocket.DefaultDialer,
		reconnectAttempts: 10,
		reconnectDelay:    time.Second,
		subs:              make(map[string][]*subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function. Unsubscribing is idempotent and removes exactly this handler.
// A handler never sees events that arrived before it subscribed.
func (b *Bus) Subscribe(topic string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextSubID++
	sub := &subscription{id: b.nextSubID, topic: topic, handler: handler}
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.subs[topic]
		for i, s := range handlers {
			if s.id == sub.id {
				b.subs[topic] = append(handlers[:i:i], handlers[i+1:]...)
				return
			}
		}
	}
}

// OnReconnect registers a hook invoked after the connection is re-established
// following a drop. Events sent while disconnected are lost, so consumers
// use this to re-fetch a full snapshot instead of trusting push completeness.
func (b *Bus) OnReconnect(fn func()) {
	b.mu.Lock()
	b.reconnectFns = append(b.reconnectFns, fn)
	b.mu.Unlock()
}

// Run connects and reads events until ctx is cancelled, reconnecting with a
// fixed delay up to the configured cap per outage. Connection errors are
// logged, never surfaced to subscribers.
func (b *Bus) Run(ctx context.Context) error {
	reconnected := false
	for {
		conn, err := b.connect(ctx)
		if err != nil {
			return err
		}
		if reconnected {
			b.notifyReconnect()
		}

		b.readLoop(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.log.Warn("event stream disconnected, reconnecting")
		reconnected = true
	}
}

func (b *Bus) connect(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < b.reconnectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.reconnectDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
		if err == nil {
			b.log.Info("event stream connected", slog.String("url", b.url))
			return conn, nil
		}
		lastErr = err
		b.log.Debug("event stream dial failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("event stream unreachable after %d attempts: %w", b.reconnectAttempts, lastErr)
}

func (b *Bus) readLoop(ctx context.Context, conn *websocket.Conn) {
	// The watcher must not outlive this connection, or every reconnect
	// cycle would strand one goroutine until ctx ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	for {
		var event models.Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() == nil {
				b.log.Debug("event stream read failed", slog.String("error", err.Error()))
			}
			return
		}
		b.dispatch(event)
	}
}

func (b *Bus) dispatch(event models.Event) {
	kind, err := event.Kind()
	if err != nil {
		b.log.Warn("dropping malformed event",
			slog.String("topic", event.Topic),
			slog.String("type", event.Type))
		return
	}

	b.mu.Lock()
	handlers := make([]*subscription, len(b.subs[event.Topic]))
	copy(handlers, b.subs[event.Topic])
	b.mu.Unlock()

	for _, sub := range handlers {
		sub.handler(kind, event.Data)
	}
}

func (b *Bus) notifyReconnect() {
	b.mu.Lock()
	hooks := make([]func(), len(b.reconnectFns))
	copy(hooks, b.reconnectFns)
	b.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
