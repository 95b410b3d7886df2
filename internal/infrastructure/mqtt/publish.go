package mqtt

import (
	"fmt"
)

// Publish sends a payload to an MQTT topic.
//
// Messages are sent with QoS 0 and are not retained: a node reports state
// changes as they happen and a lost message is not resent.
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	err := client.Publish("/a1b2c3d4e5f6/status", []byte("on"))
func (c *Client) Publish(topic string, payload []byte) error {
	// Validate inputs
	if topic == "" {
		return ErrInvalidTopic
	}

	// Check connection state
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qosAtMostOnce, false, payload)
	if !token.WaitTimeout(defaultOperationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
