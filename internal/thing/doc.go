// Package thing is the device-side glue every thing node runs.
//
// It owns three pieces of state for the lifetime of the process:
//   - the Registry, a fixed-capacity table of device-scoped topics and handlers
//   - the Session, which keeps a broker connection alive and re-subscribes
//     the registry after every reconnect
//   - the device id, which prefixes every topic the node owns
//
// # Topics
//
// Every topic a node subscribes or publishes to lives under its device id:
//
//	/a1b2c3d4e5f6/lights/3
//
// Topic names and published payloads are cut to the buffer sizes of the
// firmware (32 bytes including the terminator, so 31 usable bytes).
//
// # Concurrency
//
// The package is single-task: Register, Publish and Maintain must all be
// called from the same goroutine. Handlers run on that goroutine, inside
// Maintain. The transport may receive on its own goroutines but only
// buffers messages until the next pump.
//
// # Usage
//
//	registry := thing.NewRegistry(id, thing.RegistryOptions{})
//	session := thing.NewSession(transport, registry, thing.SessionOptions{})
//	_ = session.Start(ctx)
//
//	session.Register(func(suffix string, payload []byte) error {
//	    return setLight(3, payload)
//	}, "lights/%d", 3)
//
//	for range ticker.C {
//	    _ = session.Maintain(ctx)
//	}
package thing
