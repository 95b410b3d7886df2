// Package identity derives the device id of a thing node.
//
// The device id is the node's 6-byte hardware address rendered as 12
// lowercase hex characters. It is computed once at startup and used both
// as the MQTT client id and as the namespace of every topic the node owns:
//
//	/a1b2c3d4e5f6/lights/3
package identity
