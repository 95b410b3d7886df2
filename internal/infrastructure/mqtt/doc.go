// Package mqtt provides the MQTT broker transport of a thing node.
//
// This package manages:
//   - Single, caller-driven connect attempts (no automatic reconnect)
//   - QoS 0 publishing, never retained
//   - Exact-topic subscriptions
//   - A bounded inbox of received messages, drained by Pump
//   - Connection health monitoring
//
// # Architecture
//
// Each node owns the topic namespace "/<device id>/". The client id is
// the device id, so a node that reboots replaces its own stale session.
//
//	thing node ↔ MQTT Broker ↔ other nodes and automation
//
// paho delivers messages on its own goroutines. The client only copies
// them into the inbox; Pump hands them to the caller one at a time on the
// caller's goroutine, so message handlers never run concurrently with
// each other or with the maintenance loop. When the inbox is full new
// messages are dropped and logged.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT, deviceID.String())
//	defer client.Close()
//
//	if err := client.Connect(ctx); err != nil {
//	    // try again later
//	}
//	_ = client.Subscribe("/a1b2c3d4e5f6/lights/3")
//
//	// On every loop tick
//	client.Pump(func(topic string, payload []byte) {
//	    log.Printf("Received: %s = %s", topic, payload)
//	})
package mqtt
