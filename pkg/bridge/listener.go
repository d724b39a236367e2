package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ListenerConfig configures the websocket message listener.
type ListenerConfig struct {
	// Endpoint is the relay websocket URL delivering frame messages.
	Endpoint string
	// Headers are added to the handshake request.
	Headers map[string]string
	// HandshakeTimeout bounds the dial. Defaults to 30s.
	HandshakeTimeout time.Duration
	// ReconnectInterval is the wait between connection attempts.
	// Defaults to 5s.
	ReconnectInterval time.Duration
	// MaxReconnectAttempts limits reconnects; zero means unlimited.
	MaxReconnectAttempts int
}

// relayFrame is the wire shape the relay wraps around each frame message so
// the origin survives transport.
type relayFrame struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Listener reads origin-tagged frame messages from a websocket relay and
// feeds them into the bridge. The bridge itself stays transport-agnostic.
type Listener struct {
	config *ListenerConfig
	bridge *Bridge

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
	errors    chan error
}

// NewListener creates a listener feeding the given bridge.
func NewListener(config *ListenerConfig, b *Bridge) *Listener {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 30 * time.Second
	}
	if config.ReconnectInterval <= 0 {
		config.ReconnectInterval = 5 * time.Second
	}
	return &Listener{
		config: config,
		bridge: b,
		errors: make(chan error, 10),
	}
}

// Connect establishes the relay connection and starts the read loop.
func (l *Listener) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.connected {
		l.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	go l.connectWithRetry(ctx)

	return nil
}

// connectWithRetry attempts to connect with automatic reconnection.
func (l *Listener) connectWithRetry(ctx context.Context) {
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if l.config.MaxReconnectAttempts > 0 && attempts >= l.config.MaxReconnectAttempts {
			l.errors <- fmt.Errorf("max reconnect attempts reached")
			return
		}

		err := l.doConnect(ctx)
		if err != nil {
			l.errors <- fmt.Errorf("connection error: %w", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(l.config.ReconnectInterval):
				attempts++
				continue
			}
		}

		return
	}
}

// doConnect performs the websocket dial and runs the read loop.
func (l *Listener) doConnect(ctx context.Context) error {
	headers := http.Header{}
	for key, value := range l.config.Headers {
		headers.Set(key, value)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: l.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, l.config.Endpoint, headers)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	l.mu.Lock()
	l.conn = conn
	l.connected = true
	l.mu.Unlock()

	go l.readMessages(ctx)

	return nil
}

// readMessages reads relay frames and dispatches them into the bridge.
func (l *Listener) readMessages(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.connected = false
		if l.conn != nil {
			l.conn.Close()
		}
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := l.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l.errors <- fmt.Errorf("read error: %w", err)
			}
			return
		}

		var frame relayFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Not a relay frame; nothing to dispatch.
			continue
		}

		l.bridge.Handle(ctx, Message{
			Origin: frame.Origin,
			Body:   frame.Message,
		})
	}
}

// Close closes the relay connection.
func (l *Listener) Close() error {
	if l.cancel != nil {
		l.cancel()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.connected = false
	if l.conn != nil {
		return l.conn.Close()
	}

	return nil
}

// IsConnected returns true if the listener is connected.
func (l *Listener) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// Errors returns a channel of transport errors.
func (l *Listener) Errors() <-chan error {
	return l.errors
}
