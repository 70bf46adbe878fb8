// Package dhcp acquires and maintains a DHCPv4 lease for the Linux radio's station interface.
package dhcp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/port"
	"golang-wifista/internal/types"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// Options tune lease acquisition.
type Options struct {
	// Timeout bounds a single DISCOVER/OFFER/REQUEST/ACK exchange.
	Timeout time.Duration
	// ResolvConf is where received DNS servers are written. Empty disables DNS configuration.
	ResolvConf string
	// RetryDelay separates attempts within one acquisition.
	RetryDelay time.Duration
}

const maxRetries = 3

// Manager acquires a lease, applies it with netlink and renews it in the background.
type Manager struct {
	ifaceName  string
	dhcpClient port.DHCPClient
	networkMgr port.NetworkManager
	fileMgr    port.FileManager
	opts       Options

	mu       sync.Mutex
	assigned *net.IPNet
}

// NewManager creates a DHCP addressing manager for the given interface name.
func NewManager(ifaceName string, dhcpClient port.DHCPClient, networkMgr port.NetworkManager, fileMgr port.FileManager, opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Manager{
		ifaceName:  ifaceName,
		dhcpClient: dhcpClient,
		networkMgr: networkMgr,
		fileMgr:    fileMgr,
		opts:       opts,
	}
}

// GetInterfaceName returns the name of the network interface managed by this manager.
func (m *Manager) GetInterfaceName() string {
	return m.ifaceName
}

// Acquire obtains a lease and applies it to the interface. It returns the resulting
// addressing and the time after which the lease should be renewed.
func (m *Manager) Acquire(ctx context.Context) (types.AddressInfo, time.Duration, error) {
	lease, err := m.getDHCPLease(ctx, m.logger())
	if err != nil {
		return types.AddressInfo{}, 0, err
	}

	info, err := m.applyDHCPLease(ctx, lease)
	if err != nil {
		return types.AddressInfo{}, 0, fmt.Errorf("failed to apply DHCP lease: %w", err)
	}

	return info, lease.IPAddressRenewalTime(30 * time.Second), nil
}

// Maintain renews the lease until ctx is cancelled. A failed renewal is retried after 30s.
func (m *Manager) Maintain(ctx context.Context, renewal time.Duration) error {
	logger := m.logger()
	logger.WithField("renewal_time", renewal.String()).Info("Sleeping until renewal")

	renewalTimer := time.NewTimer(renewal)
	defer renewalTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("DHCP maintenance stopped due to context cancellation")
			return ctx.Err()
		case <-renewalTimer.C:
			_, next, err := m.Acquire(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.WithError(err).Error("Failed to renew DHCP lease, retrying in 30s")
				renewalTimer.Reset(30 * time.Second)
				continue
			}
			logger.WithField("renewal_time", next.String()).Info("Lease renewed, sleeping until renewal")
			renewalTimer.Reset(next)
		}
	}
}

func (m *Manager) logger() *logrus.Entry {
	return logging.WithComponentAndInterface("dhcp", m.ifaceName)
}

// Release removes the leased address from the interface.
func (m *Manager) Release(ctx context.Context) error {
	m.mu.Lock()
	assigned := m.assigned
	m.assigned = nil
	m.mu.Unlock()

	if assigned == nil {
		return nil
	}

	link, err := m.networkMgr.GetLinkByName(m.ifaceName)
	if err != nil {
		return fmt.Errorf("failed to get netlink interface: %w", err)
	}
	if err := m.networkMgr.DeleteAddress(link, &netlink.Addr{IPNet: assigned}); err != nil {
		return fmt.Errorf("failed to release leased address: %w", err)
	}
	logging.WithComponentAndInterface("dhcp", m.ifaceName).WithField("ip", assigned.String()).Info("Released leased address")
	return nil
}

// getDHCPLease performs the complete DHCP DISCOVER/OFFER/REQUEST/ACK sequence
func (m *Manager) getDHCPLease(ctx context.Context, logger *logrus.Entry) (*dhcpv4.DHCPv4, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.WithField("attempt", fmt.Sprintf("%d/%d", attempt, maxRetries)).Debug("Attempting DHCP lease")

		ack, err := m.dhcpClient.RequestLease(ctx, m.ifaceName, m.opts.Timeout)
		if err == nil {
			logger.WithField("ip", ack.YourIPAddr.String()).Info("Successfully obtained DHCP lease")
			return ack, nil
		}

		lastErr = err
		logger.WithError(err).WithField("attempt", attempt).Error("DHCP lease request failed")
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.opts.RetryDelay):
		}
	}

	return nil, fmt.Errorf("DHCP lease request failed after %d attempts: %w", maxRetries, lastErr)
}

// applyDHCPLease configures the network interface with the received DHCP lease using netlink
func (m *Manager) applyDHCPLease(ctx context.Context, ack *dhcpv4.DHCPv4) (types.AddressInfo, error) {
	logger := logging.WithComponentAndInterface("dhcp", m.ifaceName)

	subnetMask := ack.SubnetMask()
	if subnetMask == nil {
		// Default to /24 if no subnet mask provided
		subnetMask = net.IPv4Mask(255, 255, 255, 0)
	}

	ipNet := &net.IPNet{
		IP:   ack.YourIPAddr.To4(),
		Mask: subnetMask,
	}
	if ipNet.IP == nil {
		return types.AddressInfo{}, fmt.Errorf("lease carries no IPv4 address")
	}

	logger.WithField("ip", ipNet.String()).Info("Configuring interface with IP")

	link, err := m.networkMgr.GetLinkByName(m.ifaceName)
	if err != nil {
		return types.AddressInfo{}, fmt.Errorf("failed to get netlink interface: %w", err)
	}

	existingAddrs, err := m.networkMgr.ListAddresses(link)
	if err != nil {
		return types.AddressInfo{}, fmt.Errorf("failed to list existing addresses: %w", err)
	}

	targetConfigured := false
	for _, addr := range existingAddrs {
		if addr.IPNet.IP.Equal(ipNet.IP) && addr.IPNet.Mask.String() == ipNet.Mask.String() {
			logger.WithField("ip", ipNet.String()).Debug("IP address already configured, skipping")
			targetConfigured = true
			break
		}
	}

	leaseTime := ack.IPAddressLeaseTime(60 * time.Second)
	logger.WithField("lease_time", leaseTime.String()).Debug("Lease time extracted")

	if !targetConfigured {
		for _, addr := range existingAddrs {
			if err := m.networkMgr.DeleteAddress(link, &addr); err != nil {
				logger.WithError(err).WithField("address", addr.IPNet.String()).Warn("Failed to remove existing address")
			}
		}

		addr := &netlink.Addr{
			IPNet:       ipNet,
			ValidLft:    int(leaseTime.Seconds()),
			PreferedLft: int(leaseTime.Seconds()),
		}
		if err := m.networkMgr.AddAddress(link, addr); err != nil {
			return types.AddressInfo{}, fmt.Errorf("failed to add IP address %s: %w", ipNet.String(), err)
		}
		logger.WithField("ip", ipNet.String()).Info("Successfully added IP address")
	}

	m.mu.Lock()
	m.assigned = ipNet
	m.mu.Unlock()

	ones, _ := subnetMask.Size()
	ip, _ := netip.AddrFromSlice(ipNet.IP)
	info := types.AddressInfo{Address: netip.PrefixFrom(ip, ones)}

	if routers := ack.Router(); len(routers) > 0 {
		gateway := routers[0]
		logger.WithField("gateway", gateway.String()).Info("Setting default gateway")

		if err := m.configureDefaultRoute(ctx, link, gateway); err != nil {
			return types.AddressInfo{}, fmt.Errorf("failed to set default gateway: %w", err)
		}
		info.Gateway, _ = netip.AddrFromSlice(gateway.To4())
	}

	if dnsServers := ack.DNS(); len(dnsServers) > 0 {
		var dnsStrings []string
		for _, dns := range dnsServers {
			dnsStrings = append(dnsStrings, dns.String())
			if a, ok := netip.AddrFromSlice(dns.To4()); ok {
				info.DNS = append(info.DNS, a)
			}
		}
		logger.WithField("dns_servers", strings.Join(dnsStrings, ", ")).Info("DNS servers received")

		if err := m.configureDNS(ctx, dnsServers); err != nil {
			logger.WithError(err).Warn("Failed to configure DNS")
		}
	}

	return info, nil
}

// configureDefaultRoute configures the default route using netlink
func (m *Manager) configureDefaultRoute(ctx context.Context, link netlink.Link, gateway net.IP) error {
	logger := logging.WithComponentAndInterface("dhcp", m.ifaceName).WithField("gateway", gateway.String())

	routes, err := m.networkMgr.ListRoutes()
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}

	isDefault := func(route netlink.Route) bool {
		return route.Dst == nil || route.Dst.String() == "0.0.0.0/0"
	}
	isTarget := func(route netlink.Route) bool {
		return route.Gw != nil && route.Gw.Equal(gateway) && route.LinkIndex == link.Attrs().Index
	}

	for _, route := range routes {
		if isDefault(route) && isTarget(route) {
			logger.Debug("Default route already exists, skipping")
			return nil
		}
	}

	for _, route := range routes {
		if !isDefault(route) {
			continue
		}
		if err := m.networkMgr.DeleteRoute(&route); err != nil {
			logger.WithError(err).Warn("Failed to remove existing default route")
		} else if route.Gw != nil {
			logger.WithField("old_gateway", route.Gw.String()).Debug("Removed existing default route")
		}
	}

	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Gw:        gateway,
	}
	if err := m.networkMgr.AddRoute(route); err != nil {
		return fmt.Errorf("failed to add default route: %w", err)
	}

	logger.Info("Successfully added default route")
	return nil
}

// configureDNS writes DNS servers to the resolver configuration file
func (m *Manager) configureDNS(ctx context.Context, dnsServers []net.IP) error {
	if m.opts.ResolvConf == "" {
		return nil
	}
	logger := logging.WithComponentAndInterface("dhcp", m.ifaceName)

	newContent := "# Generated by golang-wifista\n"
	for _, dns := range dnsServers {
		newContent += fmt.Sprintf("nameserver %s\n", dns.String())
	}

	if currentContent, err := m.fileMgr.ReadFile(m.opts.ResolvConf); err == nil {
		if string(currentContent) == newContent {
			logger.Debug("DNS configuration already up to date, skipping")
			return nil
		}
	}

	if err := m.fileMgr.WriteFile(m.opts.ResolvConf, []byte(newContent), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.opts.ResolvConf, err)
	}

	logger.WithField("path", m.opts.ResolvConf).Info("Updated resolver configuration with DNS servers")
	return nil
}
