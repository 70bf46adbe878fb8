// Package dhcp provides the DHCPv4 client adapter used by the Linux radio.
package dhcp

import (
	"context"
	"fmt"
	"time"

	"golang-wifista/internal/port"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv4/nclient4"
)

// ClientAdapter implements the DHCPClient port using insomniacslk/dhcp.
type ClientAdapter struct {
	hostname string
}

// Ensure ClientAdapter implements the DHCPClient port
var _ port.DHCPClient = (*ClientAdapter)(nil)

// NewClientAdapter creates a new DHCP client adapter. A non-empty hostname is sent
// with the request (option 12).
func NewClientAdapter(hostname string) *ClientAdapter {
	return &ClientAdapter{hostname: hostname}
}

// RequestLease performs the complete DHCP DISCOVER/OFFER/REQUEST/ACK sequence.
func (c *ClientAdapter) RequestLease(ctx context.Context, interfaceName string, timeout time.Duration) (*dhcpv4.DHCPv4, error) {
	client, err := nclient4.New(interfaceName, nclient4.WithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create DHCP client on %s: %w", interfaceName, err)
	}
	defer client.Close()

	var modifiers []dhcpv4.Modifier
	if c.hostname != "" {
		modifiers = append(modifiers, dhcpv4.WithOption(dhcpv4.OptHostName(c.hostname)))
	}

	lease, err := client.Request(ctx, modifiers...)
	if err != nil {
		return nil, fmt.Errorf("DHCP lease request failed: %w", err)
	}

	return lease.ACK, nil
}
