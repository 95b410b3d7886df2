package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nycresistor/space-automation/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time a single connect attempt may take.
	defaultConnectTimeout = 5 * time.Second

	// defaultOperationTimeout is the maximum time to wait for a subscribe or publish.
	defaultOperationTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 15 * time.Second

	// defaultInboxSize bounds inbound messages buffered between pumps.
	defaultInboxSize = 64

	// qosAtMostOnce is used for every subscribe and publish.
	qosAtMostOnce byte = 0
)

// buildClientOptions creates paho MQTT options from node config.
//
// This configures:
//   - Broker URL (plain tcp://)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Clean session mode
//   - Connect timeout and keepalive
//
// Automatic reconnection is turned off. The session layer rate-limits
// reconnects and restores subscriptions itself.
func buildClientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	// Broker URL
	brokerURL := fmt.Sprintf("tcp://%s:%d", cfg.Broker.Host, cfg.Broker.Port)
	opts.AddBroker(brokerURL)

	// Client identification
	opts.SetClientID(clientID)

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session - subscriptions are re-sent after every connect
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(connectTimeout(cfg))
	opts.SetKeepAlive(keepAlive(cfg))

	return opts
}

func connectTimeout(cfg config.MQTTConfig) time.Duration {
	if cfg.Reconnect.ConnectTimeout > 0 {
		return time.Duration(cfg.Reconnect.ConnectTimeout) * time.Second
	}
	return defaultConnectTimeout
}

func keepAlive(cfg config.MQTTConfig) time.Duration {
	if cfg.KeepAlive > 0 {
		return time.Duration(cfg.KeepAlive) * time.Second
	}
	return defaultKeepAlive
}
