// Package static applies fixed addressing to the station interface of the Linux radio.
package static

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/port"
	"golang-wifista/internal/types"

	"github.com/vishvananda/netlink"
)

// DefaultMonitorInterval is how often Monitor checks that the address is still in place.
const DefaultMonitorInterval = 30 * time.Second

// Manager assigns a fixed address and default route to an interface and keeps them there.
type Manager struct {
	ifaceName       string
	config          types.StaticNetworkConfig
	networkMgr      port.NetworkManager
	monitorInterval time.Duration
}

// NewManager creates a static addressing manager for the given interface and configuration.
func NewManager(ifaceName string, config types.StaticNetworkConfig, networkMgr port.NetworkManager) *Manager {
	return &Manager{
		ifaceName:       ifaceName,
		config:          config,
		networkMgr:      networkMgr,
		monitorInterval: DefaultMonitorInterval,
	}
}

// GetInterfaceName returns the name of the network interface managed by this manager.
func (m *Manager) GetInterfaceName() string {
	return m.ifaceName
}

// Apply configures the fixed address and default gateway. It is idempotent.
func (m *Manager) Apply(ctx context.Context) (types.AddressInfo, error) {
	logger := logging.WithComponentAndInterface("static", m.ifaceName)

	link, err := m.networkMgr.GetLinkByName(m.ifaceName)
	if err != nil {
		return types.AddressInfo{}, fmt.Errorf("failed to get netlink interface: %w", err)
	}

	if err := m.applyAddress(link); err != nil {
		return types.AddressInfo{}, err
	}

	gateway := net.IP(m.config.Gateway.IP.AsSlice())
	logger.WithField("gateway", gateway.String()).Info("Setting default gateway")
	if err := m.configureDefaultRoute(ctx, link, gateway); err != nil {
		return types.AddressInfo{}, fmt.Errorf("failed to set default gateway: %w", err)
	}

	return types.AddressInfo{
		Address: m.config.Prefix(),
		Gateway: m.config.Gateway.IP,
		Static:  true,
	}, nil
}

func (m *Manager) ipNet() *net.IPNet {
	return &net.IPNet{
		IP:   net.IP(m.config.DeviceIP.AsSlice()),
		Mask: net.CIDRMask(int(m.config.Gateway.PrefixLen), 32),
	}
}

// applyAddress replaces whatever IPv4 addresses the link has with the fixed one.
func (m *Manager) applyAddress(link netlink.Link) error {
	logger := logging.WithComponentAndInterface("static", m.ifaceName)
	ipNet := m.ipNet()

	logger.WithField("ip", ipNet.String()).Info("Configuring interface with IP")

	existingAddrs, err := m.networkMgr.ListAddresses(link)
	if err != nil {
		return fmt.Errorf("failed to list existing addresses: %w", err)
	}

	for _, addr := range existingAddrs {
		if addr.IPNet.IP.Equal(ipNet.IP) && addr.IPNet.Mask.String() == ipNet.Mask.String() {
			logger.WithField("ip", ipNet.String()).Info("IP address already configured, skipping")
			return nil
		}
	}

	for _, addr := range existingAddrs {
		if err := m.networkMgr.DeleteAddress(link, &addr); err != nil {
			logger.WithError(err).WithField("address", addr.IPNet.String()).Warn("Failed to remove existing address")
		} else {
			logger.WithField("address", addr.IPNet.String()).Debug("Removed existing address")
		}
	}

	if err := m.networkMgr.AddAddress(link, &netlink.Addr{IPNet: ipNet}); err != nil {
		return fmt.Errorf("failed to add IP address %s: %w", ipNet.String(), err)
	}
	logger.WithField("ip", ipNet.String()).Info("Successfully added IP address")
	return nil
}

// configureDefaultRoute configures the default gateway for the interface.
func (m *Manager) configureDefaultRoute(ctx context.Context, link netlink.Link, gateway net.IP) error {
	logger := logging.WithComponentAndInterface("static", m.ifaceName).WithField("gateway", gateway.String())

	routes, err := m.networkMgr.ListRoutes()
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}

	for _, route := range routes {
		// Default routes only (0.0.0.0/0)
		if route.Dst != nil || route.Gw == nil {
			continue
		}
		if route.Gw.Equal(gateway) && route.LinkIndex == link.Attrs().Index {
			logger.Debug("Default route already configured, skipping")
			return nil
		}
		if err := m.networkMgr.DeleteRoute(&route); err != nil {
			logger.WithError(err).WithField("existing_gateway", route.Gw.String()).
				Warn("Failed to remove existing default route")
		} else {
			logger.WithField("existing_gateway", route.Gw.String()).
				Debug("Removed conflicting default route")
		}
	}

	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Gw:        gateway,
	}
	if err := m.networkMgr.AddRoute(route); err != nil {
		if strings.Contains(err.Error(), "file exists") {
			logger.Debug("Default route already exists, ignoring error")
			return nil
		}
		return fmt.Errorf("failed to add default route: %w", err)
	}

	logger.Info("Successfully configured default route")
	return nil
}

// Release removes the fixed address from the interface.
func (m *Manager) Release(ctx context.Context) error {
	link, err := m.networkMgr.GetLinkByName(m.ifaceName)
	if err != nil {
		return fmt.Errorf("failed to get netlink interface: %w", err)
	}
	if err := m.networkMgr.DeleteAddress(link, &netlink.Addr{IPNet: m.ipNet()}); err != nil {
		return fmt.Errorf("failed to release static address: %w", err)
	}
	logging.WithComponentAndInterface("static", m.ifaceName).WithField("ip", m.ipNet().String()).Info("Released static address")
	return nil
}

// Monitor re-applies the configuration whenever the address disappears, until ctx is cancelled.
func (m *Manager) Monitor(ctx context.Context) error {
	logger := logging.WithComponentAndInterface("static", m.ifaceName)
	logger.Debug("Starting interface monitoring")

	ticker := time.NewTicker(m.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Interface monitoring stopped due to context cancellation")
			return ctx.Err()
		case <-ticker.C:
			if err := m.checkAndRepairConfiguration(ctx); err != nil {
				logger.WithError(err).Error("Configuration check failed")
			}
		}
	}
}

// checkAndRepairConfiguration checks if the static configuration is still applied and repairs if needed.
func (m *Manager) checkAndRepairConfiguration(ctx context.Context) error {
	logger := logging.WithComponentAndInterface("static", m.ifaceName)

	link, err := m.networkMgr.GetLinkByName(m.ifaceName)
	if err != nil {
		return fmt.Errorf("failed to get netlink interface: %w", err)
	}

	addrs, err := m.networkMgr.ListAddresses(link)
	if err != nil {
		return fmt.Errorf("failed to get interface addresses: %w", err)
	}

	expected := m.ipNet()
	for _, addr := range addrs {
		if addr.IPNet.IP.Equal(expected.IP) {
			return nil
		}
	}

	logger.WithField("ip", expected.String()).Warn("Static IP not found on interface, reapplying configuration")
	if _, err := m.Apply(ctx); err != nil {
		return fmt.Errorf("failed to reapply static configuration: %w", err)
	}
	logger.Info("Static configuration reapplied successfully")
	return nil
}
