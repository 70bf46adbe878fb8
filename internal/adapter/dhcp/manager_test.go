//go:build unit

package dhcp

import (
	"context"
	"net"
	"testing"
	"time"

	"golang-wifista/internal/mock"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"go.uber.org/mock/gomock"
)

func newLeaseACK() *dhcpv4.DHCPv4 {
	ack := &dhcpv4.DHCPv4{}
	ack.YourIPAddr = net.ParseIP("192.168.4.77")
	ack.Options = make(dhcpv4.Options)
	ack.Options.Update(dhcpv4.OptSubnetMask(net.CIDRMask(22, 32)))
	ack.Options.Update(dhcpv4.OptRouter(net.ParseIP("192.168.4.1")))
	return ack
}

func newTestManager(t *testing.T) (*Manager, *mock.MockDHCPClient, *mock.MockNetworkManager, *mock.MockFileManager) {
	ctrl := gomock.NewController(t)
	dhcpClient := mock.NewMockDHCPClient(ctrl)
	networkMgr := mock.NewMockNetworkManager(ctrl)
	fileMgr := mock.NewMockFileManager(ctrl)

	manager := NewManager("wlan0", dhcpClient, networkMgr, fileMgr, Options{
		Timeout:    5 * time.Second,
		ResolvConf: "/run/wifista/resolv.conf",
		RetryDelay: time.Millisecond,
	})
	return manager, dhcpClient, networkMgr, fileMgr
}

func TestNewManager_Defaults(t *testing.T) {
	manager := NewManager("wlan0", nil, nil, nil, Options{})
	assert.Equal(t, "wlan0", manager.GetInterfaceName())
	assert.Equal(t, 15*time.Second, manager.opts.Timeout)
	assert.Equal(t, 2*time.Second, manager.opts.RetryDelay)
}

func TestManager_getDHCPLease(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulLease", func(t *testing.T) {
		manager, dhcpClient, _, _ := newTestManager(t)
		expectedACK := newLeaseACK()

		dhcpClient.EXPECT().
			RequestLease(ctx, "wlan0", 5*time.Second).
			Return(expectedACK, nil).
			Times(1)

		ack, err := manager.getDHCPLease(ctx, manager.logger())
		require.NoError(t, err)
		assert.Equal(t, expectedACK, ack)
	})

	t.Run("FailedLeaseWithRetries", func(t *testing.T) {
		manager, dhcpClient, _, _ := newTestManager(t)

		dhcpClient.EXPECT().
			RequestLease(ctx, "wlan0", 5*time.Second).
			Return(nil, assert.AnError).
			Times(3)

		ack, err := manager.getDHCPLease(ctx, manager.logger())
		assert.Error(t, err)
		assert.Nil(t, ack)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "DHCP lease request failed after 3 attempts")
	})

	t.Run("CancelledBetweenAttempts", func(t *testing.T) {
		manager, dhcpClient, _, _ := newTestManager(t)
		manager.opts.RetryDelay = time.Hour
		cctx, cancel := context.WithCancel(ctx)

		dhcpClient.EXPECT().
			RequestLease(cctx, "wlan0", 5*time.Second).
			DoAndReturn(func(context.Context, string, time.Duration) (*dhcpv4.DHCPv4, error) {
				cancel()
				return nil, assert.AnError
			})

		_, err := manager.getDHCPLease(cctx, manager.logger())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestManager_Acquire(t *testing.T) {
	ctx := context.Background()
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 4, Name: "wlan0"}}

	t.Run("AppliesAddressRouteAndDNS", func(t *testing.T) {
		manager, dhcpClient, networkMgr, fileMgr := newTestManager(t)
		ack := newLeaseACK()
		ack.Options.Update(dhcpv4.OptDNS(net.ParseIP("192.168.4.1"), net.ParseIP("1.1.1.1")))

		dhcpClient.EXPECT().RequestLease(ctx, "wlan0", 5*time.Second).Return(ack, nil)
		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{}, nil)
		networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
			assert.Equal(t, "192.168.4.77/22", addr.IPNet.String())
			return nil
		})
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{}, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)
		fileMgr.EXPECT().ReadFile("/run/wifista/resolv.conf").Return(nil, assert.AnError)
		fileMgr.EXPECT().
			WriteFile("/run/wifista/resolv.conf", []byte("# Generated by golang-wifista\nnameserver 192.168.4.1\nnameserver 1.1.1.1\n"), 0644).
			Return(nil)

		info, renewal, err := manager.Acquire(ctx)
		require.NoError(t, err)
		assert.Equal(t, "192.168.4.77/22", info.Address.String())
		assert.Equal(t, "192.168.4.1", info.Gateway.String())
		assert.Len(t, info.DNS, 2)
		assert.False(t, info.Static)
		assert.Equal(t, 30*time.Second, renewal)
	})

	t.Run("AddressAlreadyConfigured", func(t *testing.T) {
		manager, dhcpClient, networkMgr, _ := newTestManager(t)
		existing := netlink.Addr{IPNet: &net.IPNet{IP: net.ParseIP("192.168.4.77").To4(), Mask: net.CIDRMask(22, 32)}}
		existingRoute := netlink.Route{LinkIndex: 4, Gw: net.ParseIP("192.168.4.1")}

		dhcpClient.EXPECT().RequestLease(ctx, "wlan0", 5*time.Second).Return(newLeaseACK(), nil)
		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{existing}, nil)
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{existingRoute}, nil)

		_, _, err := manager.Acquire(ctx)
		assert.NoError(t, err)
	})

	t.Run("LeaseFails", func(t *testing.T) {
		manager, dhcpClient, _, _ := newTestManager(t)
		dhcpClient.EXPECT().RequestLease(ctx, "wlan0", 5*time.Second).Return(nil, assert.AnError).Times(3)

		_, _, err := manager.Acquire(ctx)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestManager_configureDefaultRoute(t *testing.T) {
	manager, _, networkMgr, _ := newTestManager(t)
	ctx := context.Background()
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 4, Name: "wlan0"}}
	gateway := net.ParseIP("192.168.4.1")

	t.Run("ReplaceOtherDefaultRoutes", func(t *testing.T) {
		other := netlink.Route{LinkIndex: 2, Gw: net.ParseIP("10.0.0.1")}
		scoped := netlink.Route{LinkIndex: 2, Dst: &net.IPNet{IP: net.ParseIP("10.0.0.0").To4(), Mask: net.CIDRMask(8, 32)}}

		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{other, scoped}, nil)
		networkMgr.EXPECT().DeleteRoute(&other).Return(nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)

		assert.NoError(t, manager.configureDefaultRoute(ctx, mockLink, gateway))
	})

	t.Run("AddRouteFails", func(t *testing.T) {
		networkMgr.EXPECT().ListRoutes().Return(nil, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(assert.AnError)

		err := manager.configureDefaultRoute(ctx, mockLink, gateway)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add default route")
	})
}

func TestManager_configureDNS(t *testing.T) {
	ctx := context.Background()
	servers := []net.IP{net.ParseIP("9.9.9.9")}
	content := []byte("# Generated by golang-wifista\nnameserver 9.9.9.9\n")

	t.Run("AlreadyUpToDate", func(t *testing.T) {
		manager, _, _, fileMgr := newTestManager(t)
		fileMgr.EXPECT().ReadFile("/run/wifista/resolv.conf").Return(content, nil)

		assert.NoError(t, manager.configureDNS(ctx, servers))
	})

	t.Run("Disabled", func(t *testing.T) {
		manager, _, _, _ := newTestManager(t)
		manager.opts.ResolvConf = ""

		assert.NoError(t, manager.configureDNS(ctx, servers))
	})
}

func TestManager_Release(t *testing.T) {
	ctx := context.Background()
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 4, Name: "wlan0"}}

	t.Run("NothingAssigned", func(t *testing.T) {
		manager, _, _, _ := newTestManager(t)
		assert.NoError(t, manager.Release(ctx))
	})

	t.Run("RemovesLeasedAddress", func(t *testing.T) {
		manager, _, networkMgr, _ := newTestManager(t)
		manager.assigned = &net.IPNet{IP: net.ParseIP("192.168.4.77").To4(), Mask: net.CIDRMask(22, 32)}

		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().DeleteAddress(mockLink, gomock.Any()).Return(nil)

		assert.NoError(t, manager.Release(ctx))
		assert.Nil(t, manager.assigned)
	})
}

func TestManager_Maintain(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No renewal fires before cancellation, so no lease is requested.
	err := manager.Maintain(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
