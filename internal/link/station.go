package link

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// joinTimeout bounds a single run of the join command.
const joinTimeout = 30 * time.Second

// InterfaceStation is a Station backed by a host network interface.
//
// Association itself belongs to the host (wpa_supplicant, NetworkManager).
// If a join command is configured it is run once from Begin, for example:
//
//	nmcli device wifi connect {ssid} password {password} ifname {interface}
//
// The station counts as connected once the interface is up and holds a
// non-loopback IPv4 address.
type InterfaceStation struct {
	name        string
	joinCommand []string

	// probe reports whether the interface is up and its addresses.
	probe func(name string) (bool, []net.Addr, error)
}

// NewInterfaceStation creates a station for the named interface.
func NewInterfaceStation(name string, joinCommand []string) *InterfaceStation {
	return &InterfaceStation{
		name:        name,
		joinCommand: joinCommand,
		probe:       probeInterface,
	}
}

// Begin runs the join command, if any.
func (s *InterfaceStation) Begin(ctx context.Context, ssid, password string) error {
	if len(s.joinCommand) == 0 {
		return nil
	}

	args := expandJoinCommand(s.joinCommand, ssid, password, s.name)

	runCtx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	// #nosec G204 -- command comes from the operator's config file
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w: %s", ErrJoinFailed, args[0], err, strings.TrimSpace(output.String()))
	}
	return nil
}

// Status reports StatusConnected once the interface is up with an IPv4 address.
func (s *InterfaceStation) Status() Status {
	up, addrs, err := s.probe(s.name)
	if err != nil {
		return StatusIdle
	}
	if !up {
		return StatusDisconnected
	}
	if firstIPv4(addrs) == nil {
		return StatusConnecting
	}
	return StatusConnected
}

// LocalIP returns the interface's first non-loopback IPv4 address.
func (s *InterfaceStation) LocalIP() net.IP {
	_, addrs, err := s.probe(s.name)
	if err != nil {
		return nil
	}
	return firstIPv4(addrs)
}

// expandJoinCommand substitutes {ssid}, {password} and {interface} in each argument.
func expandJoinCommand(command []string, ssid, password, iface string) []string {
	r := strings.NewReplacer(
		"{ssid}", ssid,
		"{password}", password,
		"{interface}", iface,
	)
	args := make([]string, len(command))
	for i, arg := range command {
		args[i] = r.Replace(arg)
	}
	return args
}

func probeInterface(name string) (bool, []net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return false, nil, err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return false, nil, err
	}
	return iface.Flags&net.FlagUp != 0, addrs, nil
}

func firstIPv4(addrs []net.Addr) net.IP {
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}
