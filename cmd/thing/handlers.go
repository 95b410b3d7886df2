package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/nycresistor/space-automation/internal/infrastructure/logging"
	"github.com/nycresistor/space-automation/internal/thing"
)

// exampleLights is the number of "lights/<n>" switches a node serves.
const exampleLights = 4

// registerHandlers registers the node's device topics and returns how many
// were registered. A topic that does not fit is logged and skipped.
//
//   - lights/<n>: a switch; the new state is confirmed on "status"
//   - announce:   echoed verbatim to "status"
func registerHandlers(session *thing.Session, log *logging.Logger) int {
	registered := 0
	register := func(handler thing.Handler, format string, args ...any) {
		if _, err := session.Register(handler, format, args...); err != nil {
			log.Warn("topic not registered", "topic", fmt.Sprintf(format, args...), "error", err)
			return
		}
		registered++
	}

	for n := 0; n < exampleLights; n++ {
		register(lightHandler(session, log), "lights/%d", n)
	}
	register(announceHandler(session), "announce")

	return registered
}

func lightHandler(session *thing.Session, log *logging.Logger) thing.Handler {
	return func(suffix string, payload []byte) error {
		log.Info("light switched", "light", suffix, "state", string(payload))
		return session.Publish("status", "%s %s", suffix, payload)
	}
}

func announceHandler(session *thing.Session) thing.Handler {
	return func(_ string, payload []byte) error {
		return session.Publish("status", "%s", payload)
	}
}

// publishUptime publishes the seconds since startup on "uptime".
func publishUptime(session *thing.Session, uptime time.Duration, log *logging.Logger) {
	err := session.Publish("uptime", "%d", int64(uptime/time.Second))
	switch {
	case err == nil:
	case errors.Is(err, thing.ErrNotConnected):
		log.Debug("uptime not published, broker offline")
	default:
		log.Warn("uptime publish failed", "error", err)
	}
}
