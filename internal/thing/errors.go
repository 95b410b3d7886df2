package thing

import "errors"

// Domain errors for the thing package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, thing.ErrRegistryFull) {
//	    // no room for another topic
//	}
var (
	// ErrRegistryFull is returned when registering past the registry capacity.
	ErrRegistryFull = errors.New("thing: topic registry full")

	// ErrDuplicateTopic is returned when a topic name is already registered.
	// Only the first handler for a name could ever be reached.
	ErrDuplicateTopic = errors.New("thing: topic already registered")

	// ErrNilHandler is returned when registering without a handler.
	ErrNilHandler = errors.New("thing: handler cannot be nil")

	// ErrBrokerConnectFailed is returned when a broker connect attempt fails.
	ErrBrokerConnectFailed = errors.New("thing: broker connect failed")

	// ErrNotConnected is returned when publishing without a broker connection.
	ErrNotConnected = errors.New("thing: not connected to broker")

	// ErrPublishFailed is returned when the transport rejects a publish.
	ErrPublishFailed = errors.New("thing: publish failed")
)
