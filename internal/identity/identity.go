package identity

import (
	"encoding/hex"
	"fmt"
	"net"
)

// Length is the number of characters in a device id.
const Length = 12

// hardwareAddrLen is the size of the EUI-48 address the id is derived from.
const hardwareAddrLen = 6

// DeviceID identifies a node. It is immutable once derived.
type DeviceID string

// String returns the id as 12 hex characters.
func (id DeviceID) String() string {
	return string(id)
}

// Prefix returns the topic namespace owned by this device: "/<id>/".
func (id DeviceID) Prefix() string {
	return "/" + string(id) + "/"
}

// Derive renders a 6-byte hardware address as a device id.
func Derive(hw net.HardwareAddr) (DeviceID, error) {
	if len(hw) != hardwareAddrLen {
		return "", fmt.Errorf("%w: %d-byte address", ErrNoHardwareAddress, len(hw))
	}
	if isZero(hw) {
		return "", fmt.Errorf("%w: all-zero address", ErrNoHardwareAddress)
	}
	return DeviceID(hex.EncodeToString(hw)), nil
}

// Parse validates a configured device id.
func Parse(s string) (DeviceID, error) {
	if len(s) != Length {
		return "", fmt.Errorf("%w: %q has %d characters, want %d", ErrInvalidID, s, len(s), Length)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: %q is not lowercase hex", ErrInvalidID, s)
		}
	}
	return DeviceID(s), nil
}

// FromInterface derives the id from a network interface.
// An empty name selects the first interface that is not loopback and has
// a usable 6-byte address.
func FromInterface(name string) (DeviceID, error) {
	if name != "" {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			return "", fmt.Errorf("%w: interface %s: %w", ErrNoHardwareAddress, name, err)
		}
		return Derive(iface.HardwareAddr)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("%w: listing interfaces: %w", ErrNoHardwareAddress, err)
	}
	return firstUsable(ifaces)
}

func firstUsable(ifaces []net.Interface) (DeviceID, error) {
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if id, err := Derive(iface.HardwareAddr); err == nil {
			return id, nil
		}
	}
	return "", ErrNoHardwareAddress
}

func isZero(hw net.HardwareAddr) bool {
	for _, b := range hw {
		if b != 0 {
			return false
		}
	}
	return true
}
