package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nycresistor/space-automation/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang as the broker transport of a thing node.
//
// It makes single connect attempts and never reconnects on its own; the
// caller decides when to try again. Inbound messages are not handed to
// callbacks directly. They are buffered in a bounded inbox and delivered
// by Pump on the caller's goroutine.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Pump must only be called from one goroutine at a time.
type Client struct {
	client   pahomqtt.Client
	cfg      config.MQTTConfig
	clientID string

	// inbox holds messages received since the last Pump.
	inbox chan inboundMessage

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// onDisconnect is invoked when the connection is lost (optional, set via SetOnDisconnect).
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	// logger for dropped messages (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// inboundMessage is a message waiting in the inbox.
type inboundMessage struct {
	topic   string
	payload []byte
}

// New creates a disconnected client for the broker in cfg.
//
// clientID is presented to the broker on every connect. A node uses its
// device id so the broker drops a stale session of the same node.
func New(cfg config.MQTTConfig, clientID string) *Client {
	c := newClient(cfg, clientID)

	opts := buildClientOptions(cfg, clientID)
	opts.SetDefaultPublishHandler(c.enqueue)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	return c
}

func newClient(cfg config.MQTTConfig, clientID string) *Client {
	size := cfg.InboxSize
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Client{
		cfg:      cfg,
		clientID: clientID,
		inbox:    make(chan inboundMessage, size),
	}
}

// Connect makes one attempt to connect to the broker.
//
// It returns when the broker accepts or rejects the connection, when the
// configured connect timeout expires, or when ctx is done. Connecting an
// already connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		// Abort the attempt so paho cannot finish connecting behind our back.
		c.client.Disconnect(0)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return nil
}

// handleDisconnect is called by paho when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// enqueue is the paho handler for every inbound message. It never blocks:
// when the inbox is full the message is dropped.
func (c *Client) enqueue(_ pahomqtt.Client, msg pahomqtt.Message) {
	m := inboundMessage{topic: msg.Topic(), payload: msg.Payload()}

	select {
	case c.inbox <- m:
	default:
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT inbox full, message dropped",
				"topic", m.topic,
				"capacity", cap(c.inbox),
			)
		}
	}
}

// Pump delivers the messages buffered so far, oldest first, and returns
// how many were delivered. Messages arriving during the pump wait for the
// next call. Pump never waits for new messages.
func (c *Client) Pump(deliver func(topic string, payload []byte)) int {
	n := len(c.inbox)
	for i := 0; i < n; i++ {
		select {
		case m := <-c.inbox:
			deliver(m.topic, m.payload)
		default:
			return i
		}
	}
	return n
}

// Pending returns the number of messages waiting for Pump.
func (c *Client) Pending() int {
	return len(c.inbox)
}

// Close disconnects from the broker. Buffered messages are discarded.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.client.IsConnected() {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	for {
		select {
		case <-c.inbox:
		default:
			return nil
		}
	}
}

// HealthCheck verifies the MQTT connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// ClientID returns the id presented to the broker.
func (c *Client) ClientID() string {
	return c.clientID
}

// SetOnDisconnect sets a callback to be invoked when the connection is lost.
// The error parameter describes why the connection was lost. The callback
// runs on a paho goroutine.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for dropped messages.
// If not set, drops are silent.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
