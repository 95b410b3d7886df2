package thing

import (
	"context"
	"fmt"
	"time"
)

// DefaultMinReconnectInterval is the minimum time between two broker connect attempts.
const DefaultMinReconnectInterval = 5 * time.Second

// State is the broker connection state of a Session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// Transport is the broker client a Session drives.
type Transport interface {
	// Connect makes a single connection attempt.
	Connect(ctx context.Context) error

	// IsConnected reports whether the connection is currently up.
	IsConnected() bool

	// Subscribe subscribes to an exact topic name.
	Subscribe(topic string) error

	// Publish sends a payload, fire-and-forget.
	Publish(topic string, payload []byte) error

	// Pump hands every message buffered so far to deliver and returns how
	// many were delivered. It never waits for new messages.
	Pump(deliver func(topic string, payload []byte)) int
}

// Recorder receives session events for telemetry. All methods must be cheap.
type Recorder interface {
	RecordConnectAttempt(success bool)
	RecordDisconnect()
	RecordDispatch(topic string, matched bool, size int)
	RecordPublish(topic string, size int)
}

type noopRecorder struct{}

func (noopRecorder) RecordConnectAttempt(bool)        {}
func (noopRecorder) RecordDisconnect()                {}
func (noopRecorder) RecordDispatch(string, bool, int) {}
func (noopRecorder) RecordPublish(string, int)        {}

// SessionOptions configures a Session. Zero values take the firmware defaults.
type SessionOptions struct {
	// MinReconnectInterval rate-limits connect attempts made by Maintain.
	MinReconnectInterval time.Duration

	// PayloadBufferSize bounds published payloads, terminator included.
	PayloadBufferSize int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Session keeps the broker connection of a node alive.
//
// It has two states. Maintain pumps inbound messages while Connected and
// detects drops; while Disconnected it retries at most once per
// MinReconnectInterval. Every successful connect re-subscribes all
// registry topics in registration order.
//
// A Session is not safe for concurrent use.
type Session struct {
	transport Transport
	registry  *Registry

	minReconnectInterval time.Duration
	payloadBufferSize    int
	now                  func() time.Time

	state       State
	attempted   bool
	lastAttempt time.Time

	logger   Logger
	recorder Recorder
}

// NewSession creates a disconnected session over transport.
func NewSession(transport Transport, registry *Registry, opts SessionOptions) *Session {
	if opts.MinReconnectInterval <= 0 {
		opts.MinReconnectInterval = DefaultMinReconnectInterval
	}
	if opts.PayloadBufferSize <= 1 {
		opts.PayloadBufferSize = DefaultPayloadBufferSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		transport:            transport,
		registry:             registry,
		minReconnectInterval: opts.MinReconnectInterval,
		payloadBufferSize:    opts.PayloadBufferSize,
		now:                  opts.Now,
		state:                StateDisconnected,
		logger:               noopLogger{},
		recorder:             noopRecorder{},
	}
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// SetRecorder sets the telemetry recorder for the session.
func (s *Session) SetRecorder(recorder Recorder) {
	s.recorder = recorder
}

// Start makes the first connect attempt. It is not rate-limited.
func (s *Session) Start(ctx context.Context) error {
	return s.connect(ctx)
}

// Maintain is the periodic entry point of the session.
//
// While connected it first pumps the transport, dispatching each buffered
// message, then checks whether the connection dropped. While disconnected
// it attempts a reconnect if MinReconnectInterval has passed since the
// previous attempt. A failed attempt returns ErrBrokerConnectFailed; a
// skipped attempt returns nil.
func (s *Session) Maintain(ctx context.Context) error {
	if s.state == StateConnected {
		s.transport.Pump(s.deliver)

		if s.transport.IsConnected() {
			return nil
		}

		s.state = StateDisconnected
		s.recorder.RecordDisconnect()
		s.logger.Warn("broker connection lost")
	}

	if s.attempted && s.now().Sub(s.lastAttempt) < s.minReconnectInterval {
		return nil
	}
	return s.connect(ctx)
}

// connect makes one attempt and re-subscribes the registry on success.
func (s *Session) connect(ctx context.Context) error {
	s.attempted = true
	s.lastAttempt = s.now()

	s.logger.Info("connecting to broker")

	if err := s.transport.Connect(ctx); err != nil {
		s.recorder.RecordConnectAttempt(false)
		return fmt.Errorf("%w: %w", ErrBrokerConnectFailed, err)
	}

	s.state = StateConnected
	s.recorder.RecordConnectAttempt(true)
	s.logger.Info("broker connected", "topics", s.registry.Len())

	s.resubscribe()
	return nil
}

// resubscribe subscribes every registered topic in registration order.
func (s *Session) resubscribe() {
	for _, topic := range s.registry.Topics() {
		if err := s.transport.Subscribe(topic); err != nil {
			s.logger.Warn("resubscribe failed", "topic", topic, "error", err)
			continue
		}
		s.logger.Debug("subscribed", "topic", topic)
	}
}

// deliver hands one inbound message to the registry.
func (s *Session) deliver(topic string, payload []byte) {
	s.logger.Debug("message received", "topic", topic, "payload", string(payload))

	matched := s.registry.Dispatch(topic, payload)
	s.recorder.RecordDispatch(topic, matched, len(payload))
}

// Register adds a topic to the registry and subscribes to it right away
// when connected. While disconnected the topic is subscribed on the next
// successful connect.
func (s *Session) Register(handler Handler, format string, args ...any) (Registration, error) {
	reg, err := s.registry.Register(handler, format, args...)
	if err != nil {
		return reg, err
	}

	if s.IsConnected() {
		if err := s.transport.Subscribe(reg.Topic); err != nil {
			s.logger.Warn("subscribe failed, will retry on reconnect", "topic", reg.Topic, "error", err)
			return reg, nil
		}
	}

	s.logger.Info("topic registered", "topic", reg.Topic, "connected", s.IsConnected())
	return reg, nil
}

// IsConnected reports whether the session is connected to the broker.
func (s *Session) IsConnected() bool {
	return s.state == StateConnected && s.transport.IsConnected()
}

// State returns the session state as of the last Start or Maintain.
func (s *Session) State() State {
	return s.state
}

// LastAttempt returns the time of the most recent connect attempt.
// The zero time means no attempt was made yet.
func (s *Session) LastAttempt() time.Time {
	return s.lastAttempt
}

// HealthCheck reports ErrNotConnected while the broker is unreachable.
func (s *Session) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("session health check: %w", ctx.Err())
	default:
	}

	if !s.IsConnected() {
		return ErrNotConnected
	}
	return nil
}
