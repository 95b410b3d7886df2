package link

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Defaults taken from the firmware's wifi_connect().
const (
	DefaultMaxAttempts = 21
	DefaultRetryDelay  = 500 * time.Millisecond
)

// Status is the state reported by a station.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Station is a network interface operating in station mode.
type Station interface {
	// Begin starts joining the access point. It does not wait for the result.
	Begin(ctx context.Context, ssid, password string) error

	// Status reports the current link state.
	Status() Status

	// LocalIP returns the address assigned to the station, or nil.
	LocalIP() net.IP
}

// Config holds link bring-up settings.
type Config struct {
	SSID     string
	Password string

	// MaxAttempts is the number of retries after the first poll.
	// Connect gives up on poll MaxAttempts+1.
	MaxAttempts int

	// RetryDelay is the time between two status polls.
	RetryDelay time.Duration
}

// Logger defines the logging interface for the link manager.
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

// Manager establishes the station link and reports its status.
type Manager struct {
	station Station
	cfg     Config
	logger  Logger
}

// NewManager creates a link manager. Zero values in cfg take the firmware defaults.
func NewManager(station Station, cfg Config) *Manager {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Manager{
		station: station,
		cfg:     cfg,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Connect joins the configured network and blocks until the station reports
// connected, returning the assigned address.
//
// The status is polled every RetryDelay. After MaxAttempts retries the next
// failed poll returns ErrTimeout, so the call blocks for at most
// (MaxAttempts+1) * RetryDelay. Cancelling ctx aborts the wait.
func (m *Manager) Connect(ctx context.Context) (net.IP, error) {
	m.logger.Info("connecting to network", "ssid", m.cfg.SSID)

	if err := m.station.Begin(ctx, m.cfg.SSID, m.cfg.Password); err != nil {
		// The OS may still associate on its own; keep polling.
		m.logger.Warn("station join failed", "ssid", m.cfg.SSID, "error", err)
	}

	attempts := 0
	for m.station.Status() != StatusConnected {
		if err := sleep(ctx, m.cfg.RetryDelay); err != nil {
			return nil, fmt.Errorf("link: waiting for %s: %w", m.cfg.SSID, err)
		}
		if attempts >= m.cfg.MaxAttempts {
			return nil, fmt.Errorf("%w: %s after %d polls", ErrTimeout, m.cfg.SSID, attempts+1)
		}
		attempts++
		m.logger.Debug("waiting for link", "attempt", attempts)
	}

	ip := m.station.LocalIP()
	m.logger.Info("network connected", "ssid", m.cfg.SSID, "ip", ip.String())
	return ip, nil
}

// Status reports the station's current link state.
func (m *Manager) Status() Status {
	return m.station.Status()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
