// Package influxdb records thing node telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. A connected Client
// is a session recorder: broker connect attempts, disconnects, dispatched
// and published messages, and the network link outcome are written as
// points tagged with the device id and a per-process boot id.
//
// Measurements:
//   - thing_link: connected, ip, elapsed_ms
//   - thing_session: connect_attempt/success or disconnect counters
//   - thing_dispatch: topic tag; matched, bytes
//   - thing_publish: topic tag; bytes
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, id.String())
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	session.SetRecorder(client)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; a node that
// loses InfluxDB keeps running and reports write errors via SetOnError.
package influxdb
