// Thing node - device agent for the space automation network.
//
// This is the main entry point for a thing node. A node:
//   - Joins the network link with a bounded number of polls
//   - Derives its device id from its network hardware address
//   - Keeps a best-effort MQTT session to the automation broker
//   - Serves the topics under "/<device id>/"
//
// The node never exits on a network or broker failure; it keeps retrying
// from the maintenance loop until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nycresistor/space-automation/internal/identity"
	"github.com/nycresistor/space-automation/internal/infrastructure/config"
	"github.com/nycresistor/space-automation/internal/infrastructure/influxdb"
	"github.com/nycresistor/space-automation/internal/infrastructure/logging"
	"github.com/nycresistor/space-automation/internal/infrastructure/mqtt"
	"github.com/nycresistor/space-automation/internal/link"
	"github.com/nycresistor/space-automation/internal/thing"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/thing.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// linkOutcome is the result of bringing the network link up.
type linkOutcome struct {
	connected bool
	ip        net.IP
	elapsed   time.Duration
}

func (o linkOutcome) address() string {
	if o.ip == nil {
		return ""
	}
	return o.ip.String()
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing a startup failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting thing node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Device identity
	id, err := deviceID(cfg)
	if err != nil {
		return fmt.Errorf("deriving device id: %w", err)
	}
	log = log.With("device_id", id.String())
	log.Info("device identity", "topic_prefix", id.Prefix())

	// Network link
	outcome, err := startLink(ctx, cfg, log)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	// Telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, id.String())
		if err != nil {
			// The node runs without telemetry.
			log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
			influxClient = nil
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			influxClient.RecordLink(outcome.connected, outcome.address(), outcome.elapsed)
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"bucket", cfg.InfluxDB.Bucket,
				"boot_id", influxClient.BootID(),
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Topic registry
	registry := thing.NewRegistry(id, thing.RegistryOptions{
		Capacity:        cfg.Topics.Capacity,
		TopicBufferSize: cfg.Topics.TopicBufferSize,
	})
	registry.SetLogger(log)

	// Broker transport, identified by the device id
	mqttClient := mqtt.New(cfg.MQTT, id.String())
	mqttClient.SetLogger(log)
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	session := thing.NewSession(mqttClient, registry, thing.SessionOptions{
		MinReconnectInterval: cfg.MinReconnectInterval(),
		PayloadBufferSize:    cfg.Topics.PayloadBufferSize,
	})
	session.SetLogger(log)
	if influxClient != nil {
		session.SetRecorder(influxClient)
	}

	broker := fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	if startErr := session.Start(ctx); startErr != nil {
		log.Warn("broker unavailable, will retry", "broker", broker, "error", startErr)
	} else {
		log.Info("MQTT connected", "broker", broker)
	}

	// Device handlers
	registered := registerHandlers(session, log)
	log.Info("initialisation complete", "topics", registered, "capacity", registry.Cap())

	serve(ctx, cfg, session, log)

	log.Info("thing node stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses THING_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("THING_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// deviceID returns the configured id, or derives one from the hardware address.
func deviceID(cfg *config.Config) (identity.DeviceID, error) {
	if cfg.Device.ID != "" {
		return identity.Parse(cfg.Device.ID)
	}
	return identity.FromInterface(cfg.Device.Interface)
}

// startLink brings the station link up.
//
// A link timeout is logged and startup continues, since the broker session
// keeps retrying on its own, unless link.abort_on_timeout is set. An empty
// link.interface skips link management for hosts whose network is managed
// elsewhere.
func startLink(ctx context.Context, cfg *config.Config, log *logging.Logger) (linkOutcome, error) {
	if cfg.Link.Interface == "" {
		log.Info("link management disabled")
		return linkOutcome{connected: true}, nil
	}

	station := link.NewInterfaceStation(cfg.Link.Interface, cfg.Link.JoinCommand)
	manager := link.NewManager(station, link.Config{
		SSID:        cfg.Link.SSID,
		Password:    cfg.Link.Password,
		MaxAttempts: cfg.Link.MaxAttempts,
		RetryDelay:  cfg.RetryDelay(),
	})
	manager.SetLogger(log)

	started := time.Now()
	ip, err := manager.Connect(ctx)
	outcome := linkOutcome{connected: err == nil, ip: ip, elapsed: time.Since(started)}

	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, link.ErrTimeout) && !cfg.Link.AbortOnTimeout:
		log.Warn("network link not up, continuing", "interface", cfg.Link.Interface, "error", err)
		return outcome, nil
	case ctx.Err() != nil:
		return outcome, nil
	default:
		return outcome, fmt.Errorf("bringing up network link: %w", err)
	}
}

// serve runs the maintenance loop until ctx is done.
func serve(ctx context.Context, cfg *config.Config, session *thing.Session, log *logging.Logger) {
	ticker := time.NewTicker(cfg.LoopInterval())
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if d := cfg.HeartbeatInterval(); d > 0 {
		heartbeatTicker := time.NewTicker(d)
		defer heartbeatTicker.Stop()
		heartbeat = heartbeatTicker.C
	}

	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			return
		case <-ticker.C:
			if err := session.Maintain(ctx); err != nil {
				log.Warn("broker reconnect failed", "error", err)
			}
		case <-heartbeat:
			publishUptime(session, time.Since(started), log)
		}
	}
}
