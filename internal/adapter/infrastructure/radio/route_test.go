//go:build unit

package radio

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextHop(t *testing.T) {
	gateway := netip.MustParseAddr("192.168.4.1")
	station := netip.MustParsePrefix("192.168.5.151/22")

	tests := []struct {
		name    string
		station netip.Prefix
		dst     string
		want    netip.Addr
	}{
		{"OnLinkPeer", station, "192.168.4.68", netip.MustParseAddr("192.168.4.68")},
		{"OnLinkUpperBlock", station, "192.168.7.200", netip.MustParseAddr("192.168.7.200")},
		{"OffLinkPeer", station, "192.168.8.1", gateway},
		{"RemotePeer", station, "1.1.1.1", gateway},
		{"NoPrefix", netip.Prefix{}, "192.168.4.68", gateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextHop(tt.station, gateway, netip.MustParseAddr(tt.dst)))
		})
	}
}
