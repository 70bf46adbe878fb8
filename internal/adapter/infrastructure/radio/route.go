package radio

import "net/netip"

// nextHop returns the address whose hardware address frames to dst are sent to.
// Destinations inside the station prefix are reached directly, everything else through the gateway.
func nextHop(station netip.Prefix, gateway, dst netip.Addr) netip.Addr {
	if station.IsValid() && station.Contains(dst) {
		return dst
	}
	return gateway
}
