package thing

import (
	"context"
	"errors"
	"time"

	"github.com/nycresistor/space-automation/internal/identity"
)

const testDeviceID = identity.DeviceID("a1b2c3d4e5f6")

type message struct {
	topic   string
	payload string
}

// fakeTransport records what a Session asks of the broker.
type fakeTransport struct {
	connectErr error
	publishErr error
	up         bool

	connects   int
	subscribed []string
	published  []message
	inbox      []message
}

func (f *fakeTransport) Connect(context.Context) error {
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.up = true
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	return f.up
}

func (f *fakeTransport) Subscribe(topic string) error {
	f.subscribed = append(f.subscribed, topic)
	return nil
}

func (f *fakeTransport) Publish(topic string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, message{topic: topic, payload: string(payload)})
	return nil
}

func (f *fakeTransport) Pump(deliver func(topic string, payload []byte)) int {
	pending := f.inbox
	f.inbox = nil
	for _, m := range pending {
		deliver(m.topic, []byte(m.payload))
	}
	return len(pending)
}

func (f *fakeTransport) queue(topic, payload string) {
	f.inbox = append(f.inbox, message{topic: topic, payload: payload})
}

// fakeClock is advanced by hand.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// recordingLogger keeps the messages logged at each level.
type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.warns = append(l.warns, msg)
}
func (l *recordingLogger) Error(msg string, _ ...any) {
	l.errors = append(l.errors, msg)
}

var errBrokerDown = errors.New("connection refused")

// newTestSession returns a session over a fake transport with a fake clock.
func newTestSession() (*Session, *fakeTransport, *fakeClock) {
	transport := &fakeTransport{}
	clock := newFakeClock()
	registry := NewRegistry(testDeviceID, RegistryOptions{})
	session := NewSession(transport, registry, SessionOptions{Now: clock.Now})
	return session, transport, clock
}

// nopHandler accepts every message.
func nopHandler(string, []byte) error { return nil }
