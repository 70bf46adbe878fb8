//go:build unit

package static

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"golang-wifista/internal/mock"
	"golang-wifista/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"go.uber.org/mock/gomock"
)

var labStatic = types.StaticNetworkConfig{
	DeviceIP: netip.MustParseAddr("192.168.5.151"),
	Gateway:  types.Gateway{IP: netip.MustParseAddr("192.168.4.1"), PrefixLen: 22},
}

func TestManager_Apply(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	networkMgr := mock.NewMockNetworkManager(ctrl)
	manager := NewManager("wlan0", labStatic, networkMgr)
	ctx := context.Background()
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 3, Name: "wlan0"}}

	t.Run("SuccessfulConfiguration", func(t *testing.T) {
		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{}, nil)
		networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
			assert.Equal(t, "192.168.5.151/22", addr.IPNet.String())
			return nil
		})
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{}, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).DoAndReturn(func(route *netlink.Route) error {
			assert.Equal(t, 3, route.LinkIndex)
			assert.Equal(t, "192.168.4.1", route.Gw.String())
			return nil
		})

		info, err := manager.Apply(ctx)
		require.NoError(t, err)
		assert.Equal(t, "192.168.5.151/22", info.Address.String())
		assert.Equal(t, "192.168.4.1", info.Gateway.String())
		assert.True(t, info.Static)
	})

	t.Run("ReplacesOtherAddresses", func(t *testing.T) {
		stale := netlink.Addr{IPNet: &net.IPNet{IP: net.ParseIP("192.168.4.77"), Mask: net.CIDRMask(22, 32)}}

		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{stale}, nil)
		gomock.InOrder(
			networkMgr.EXPECT().DeleteAddress(mockLink, gomock.Any()).Return(nil),
			networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).Return(nil),
		)
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{}, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)

		_, err := manager.Apply(ctx)
		assert.NoError(t, err)
	})

	t.Run("IPAlreadyConfigured", func(t *testing.T) {
		existing := netlink.Addr{IPNet: &net.IPNet{IP: net.ParseIP("192.168.5.151"), Mask: net.CIDRMask(22, 32)}}

		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{existing}, nil)
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{}, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)

		_, err := manager.Apply(ctx)
		assert.NoError(t, err)
	})

	t.Run("LinkMissing", func(t *testing.T) {
		networkMgr.EXPECT().GetLinkByName("wlan0").Return(nil, errors.New("no such device"))

		_, err := manager.Apply(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get netlink interface")
	})

	t.Run("AddAddressFails", func(t *testing.T) {
		networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
		networkMgr.EXPECT().ListAddresses(mockLink).Return(nil, nil)
		networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).Return(errors.New("permission denied"))

		_, err := manager.Apply(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add IP address 192.168.5.151/22")
	})
}

func TestManager_configureDefaultRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	networkMgr := mock.NewMockNetworkManager(ctrl)
	manager := NewManager("wlan0", labStatic, networkMgr)

	ctx := context.Background()
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 1, Name: "wlan0"}}
	gateway := net.ParseIP("192.168.4.1")

	t.Run("AddNewDefaultRoute", func(t *testing.T) {
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{}, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)

		assert.NoError(t, manager.configureDefaultRoute(ctx, mockLink, gateway))
	})

	t.Run("RouteAlreadyExists", func(t *testing.T) {
		existingRoute := netlink.Route{LinkIndex: 1, Gw: gateway}
		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{existingRoute}, nil)

		assert.NoError(t, manager.configureDefaultRoute(ctx, mockLink, gateway))
	})

	t.Run("RemoveConflictingRoute", func(t *testing.T) {
		conflictingRoute := netlink.Route{LinkIndex: 2, Gw: net.ParseIP("192.168.4.2")}

		networkMgr.EXPECT().ListRoutes().Return([]netlink.Route{conflictingRoute}, nil)
		networkMgr.EXPECT().DeleteRoute(&conflictingRoute).Return(nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)

		assert.NoError(t, manager.configureDefaultRoute(ctx, mockLink, gateway))
	})

	t.Run("RouteRaceIgnored", func(t *testing.T) {
		networkMgr.EXPECT().ListRoutes().Return(nil, nil)
		networkMgr.EXPECT().AddRoute(gomock.Any()).Return(errors.New("file exists"))

		assert.NoError(t, manager.configureDefaultRoute(ctx, mockLink, gateway))
	})
}

func TestManager_Release(t *testing.T) {
	ctrl := gomock.NewController(t)
	networkMgr := mock.NewMockNetworkManager(ctrl)
	manager := NewManager("wlan0", labStatic, networkMgr)
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 3, Name: "wlan0"}}

	networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil)
	networkMgr.EXPECT().DeleteAddress(mockLink, gomock.Any()).DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
		assert.Equal(t, "192.168.5.151/22", addr.IPNet.String())
		return nil
	})

	assert.NoError(t, manager.Release(context.Background()))
}

func TestManager_Monitor(t *testing.T) {
	ctrl := gomock.NewController(t)
	networkMgr := mock.NewMockNetworkManager(ctrl)
	manager := NewManager("wlan0", labStatic, networkMgr)
	manager.monitorInterval = 5 * time.Millisecond
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 3, Name: "wlan0"}}

	present := netlink.Addr{IPNet: &net.IPNet{IP: net.ParseIP("192.168.5.151"), Mask: net.CIDRMask(22, 32)}}
	networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil).AnyTimes()
	networkMgr.EXPECT().ListAddresses(mockLink).Return([]netlink.Addr{present}, nil).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := manager.Monitor(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_checkAndRepairConfiguration(t *testing.T) {
	ctrl := gomock.NewController(t)
	networkMgr := mock.NewMockNetworkManager(ctrl)
	manager := NewManager("wlan0", labStatic, networkMgr)
	mockLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 3, Name: "wlan0"}}

	// Check finds nothing, Apply re-adds the address and route
	networkMgr.EXPECT().GetLinkByName("wlan0").Return(mockLink, nil).Times(2)
	networkMgr.EXPECT().ListAddresses(mockLink).Return(nil, nil).Times(2)
	networkMgr.EXPECT().AddAddress(mockLink, gomock.Any()).Return(nil)
	networkMgr.EXPECT().ListRoutes().Return(nil, nil)
	networkMgr.EXPECT().AddRoute(gomock.Any()).Return(nil)

	assert.NoError(t, manager.checkAndRepairConfiguration(context.Background()))
}
