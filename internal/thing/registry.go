package thing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nycresistor/space-automation/internal/identity"
)

// DefaultCapacity is the number of topics a node can register.
const DefaultCapacity = 16

// Handler is invoked for a message on a registered topic.
//
// suffix is the topic with the "/<device id>/" prefix removed. payload is
// the raw message body. A returned error is logged and otherwise ignored.
type Handler func(suffix string, payload []byte) error

// Registration describes a registered topic.
type Registration struct {
	// Topic is the full topic name, "/<device id>/<suffix>".
	Topic string

	// Suffix is the part of Topic after the device prefix.
	Suffix string
}

// Logger defines the logging interface used by the Registry and Session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RegistryOptions sizes a Registry. Zero values take the firmware defaults.
type RegistryOptions struct {
	Capacity        int
	TopicBufferSize int
}

type entry struct {
	Registration
	handler Handler
}

// Registry maps device-scoped topic names to handlers.
//
// Entries are kept in registration order and never removed. Lookup is a
// linear scan; at most Capacity entries exist.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	id              identity.DeviceID
	prefix          string
	entries         []entry
	capacity        int
	topicBufferSize int
	logger          Logger
}

// NewRegistry creates an empty registry for the given device.
func NewRegistry(id identity.DeviceID, opts RegistryOptions) *Registry {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	prefix := id.Prefix()
	// The prefix must always survive truncation.
	if opts.TopicBufferSize <= len(prefix)+1 {
		opts.TopicBufferSize = DefaultTopicBufferSize
	}
	return &Registry{
		id:              id,
		prefix:          prefix,
		entries:         make([]entry, 0, opts.Capacity),
		capacity:        opts.Capacity,
		topicBufferSize: opts.TopicBufferSize,
		logger:          noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// DeviceID returns the device the registry's topics belong to.
func (r *Registry) DeviceID() identity.DeviceID {
	return r.id
}

// TopicName returns "/<device id>/<suffix>" cut to the topic buffer size.
// Only the suffix is cut; invalid UTF-8 in it becomes U+FFFD first.
func (r *Registry) TopicName(suffix string) string {
	suffix = strings.ToValidUTF8(suffix, string(utf8.RuneError))
	return r.prefix + truncate(suffix, r.topicBufferSize-1-len(r.prefix))
}

// Register formats a topic suffix and stores it with handler.
//
// The registry is left unchanged when it is full (ErrRegistryFull) or when
// the resulting topic name is already registered (ErrDuplicateTopic).
// Registration order is the order topics are re-subscribed after a reconnect.
func (r *Registry) Register(handler Handler, format string, args ...any) (Registration, error) {
	if handler == nil {
		return Registration{}, ErrNilHandler
	}

	topic := r.TopicName(fmt.Sprintf(format, args...))

	if len(r.entries) >= r.capacity {
		return Registration{}, fmt.Errorf("%w: %d topics, cannot add %s", ErrRegistryFull, r.capacity, topic)
	}
	if r.index(topic) >= 0 {
		return Registration{}, fmt.Errorf("%w: %s", ErrDuplicateTopic, topic)
	}

	reg := Registration{
		Topic:  topic,
		Suffix: topic[len(r.prefix):],
	}
	r.entries = append(r.entries, entry{Registration: reg, handler: handler})

	return reg, nil
}

// Dispatch invokes the handler registered for topic.
//
// The match is exact on the full topic name. It reports whether a handler
// was found; a message on an unknown topic is discarded.
func (r *Registry) Dispatch(topic string, payload []byte) bool {
	i := r.index(topic)
	if i < 0 {
		return false
	}
	r.invoke(r.entries[i], payload)
	return true
}

// invoke runs a handler, recovering from panics so one bad handler
// cannot take down the maintenance loop.
func (r *Registry) invoke(e entry, payload []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("topic handler panic recovered",
				"topic", e.Topic,
				"panic", rec,
			)
		}
	}()

	if err := e.handler(e.Suffix, payload); err != nil {
		r.logger.Warn("topic handler returned error",
			"topic", e.Topic,
			"error", err,
		)
	}
}

func (r *Registry) index(topic string) int {
	for i := range r.entries {
		if r.entries[i].Topic == topic {
			return i
		}
	}
	return -1
}

// Topics returns the registered topic names in registration order.
func (r *Registry) Topics() []string {
	topics := make([]string, len(r.entries))
	for i := range r.entries {
		topics[i] = r.entries[i].Topic
	}
	return topics
}

// Len returns the number of registered topics.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Cap returns the registry capacity.
func (r *Registry) Cap() int {
	return r.capacity
}
