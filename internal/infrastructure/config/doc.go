// Package config handles loading and validating thing node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The defaults reproduce the constants the ESP8266 firmware was compiled
// with (broker port 1883, empty broker credentials, 21 link polls of 500ms,
// 5s between broker connect attempts, 16 topics of 32 bytes).
//
// Security Considerations:
//   - WiFi and broker passwords should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/thing.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
