// Package link brings up the network link of a thing node.
//
// A node joins an existing access point in station mode and then polls
// the link status at a fixed delay until it reports connected or the
// attempt budget runs out. The budget and delay reproduce the firmware:
// 21 attempts of 500ms, where the 22nd poll gives up.
//
// The polling loop blocks its caller. Nothing else runs on a node until
// the link is up or has timed out.
//
// # Usage
//
//	station := link.NewInterfaceStation("wlan0", nil)
//	manager := link.NewManager(station, link.Config{SSID: "NYCR24", Password: pw})
//	ip, err := manager.Connect(ctx)
//	if errors.Is(err, link.ErrTimeout) {
//	    // keep running; the broker session retries on its own
//	}
package link
