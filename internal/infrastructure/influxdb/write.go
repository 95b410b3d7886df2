package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementLink     = "thing_link"
	measurementSession  = "thing_session"
	measurementDispatch = "thing_dispatch"
	measurementPublish  = "thing_publish"
)

// RecordConnectAttempt records one broker connect attempt.
func (c *Client) RecordConnectAttempt(success bool) {
	c.writePoint(measurementSession, nil, map[string]interface{}{
		"connect_attempt": 1,
		"success":         success,
	})
}

// RecordDisconnect records a lost broker connection.
func (c *Client) RecordDisconnect() {
	c.writePoint(measurementSession, nil, map[string]interface{}{
		"disconnect": 1,
	})
}

// RecordDispatch records an inbound message and whether a handler took it.
func (c *Client) RecordDispatch(topic string, matched bool, size int) {
	c.writePoint(measurementDispatch,
		map[string]string{"topic": topic},
		map[string]interface{}{
			"matched": matched,
			"bytes":   size,
		})
}

// RecordPublish records an outbound message.
func (c *Client) RecordPublish(topic string, size int) {
	c.writePoint(measurementPublish,
		map[string]string{"topic": topic},
		map[string]interface{}{
			"bytes": size,
		})
}

// RecordLink records the outcome of bringing the network link up.
//
// Example:
//
//	client.RecordLink(true, "192.168.1.32", 3*time.Second)
func (c *Client) RecordLink(connected bool, ip string, elapsed time.Duration) {
	c.writePoint(measurementLink, nil, map[string]interface{}{
		"connected":  connected,
		"ip":         ip,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}

// writePoint adds the node tags and hands the point to the batching writer.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	allTags := map[string]string{
		"device_id": c.deviceID,
		"boot_id":   c.bootID,
	}
	for k, v := range tags {
		allTags[k] = v
	}

	c.writer.WritePoint(write.NewPoint(measurement, allTags, fields, c.now()))
}
