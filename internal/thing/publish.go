package thing

import "fmt"

// Publish formats a message and sends it on "/<device id>/<userTopic>".
//
// The topic and message are cut to the configured buffer sizes without
// error. Delivery is fire-and-forget: QoS 0, not retained. While the
// broker is unreachable Publish returns ErrNotConnected and the message
// is dropped.
func (s *Session) Publish(userTopic string, format string, args ...any) error {
	topic := s.registry.TopicName(userTopic)
	msg := truncate(fmt.Sprintf(format, args...), s.payloadBufferSize-1)

	s.logger.Debug("publish", "topic", topic, "payload", msg)

	if !s.IsConnected() {
		return fmt.Errorf("%w: dropped message for %s", ErrNotConnected, topic)
	}

	if err := s.transport.Publish(topic, []byte(msg)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}

	s.recorder.RecordPublish(topic, len(msg))
	return nil
}
