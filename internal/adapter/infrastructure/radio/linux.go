//go:build !rp2040 && !rp2350

package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-wifista/internal/adapter/dhcp"
	"golang-wifista/internal/adapter/static"
	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/port"
	"golang-wifista/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// LinuxOptions configures the Linux radio.
type LinuxOptions struct {
	Interface          string
	SupplicantConfig   string
	ReconfigureCommand []string
	DisconnectCommand  []string
	// ConnectTimeout bounds the wait for the link to report an operational state of up.
	ConnectTimeout time.Duration
	PollInterval   time.Duration
	DHCP           dhcp.Options
}

// maintainer is the background loop that keeps the assigned address in place.
type maintainer struct {
	cancel  context.CancelFunc
	done    chan struct{}
	release func(context.Context) error
}

// LinuxRadio drives a wireless interface managed by wpa_supplicant and configured with netlink.
type LinuxRadio struct {
	opts       LinuxOptions
	networkMgr port.NetworkManager
	fileMgr    port.FileManager
	runner     port.CommandRunner
	dhcpClient port.DHCPClient

	mu      sync.Mutex
	ssid    string
	station types.InterfaceDescriptor
	router  types.InterfaceDescriptor
	maint   *maintainer
}

// Ensure LinuxRadio implements the Radio port
var _ port.Radio = (*LinuxRadio)(nil)

// NewLinuxRadio creates a radio for opts.Interface. It starts out with the DHCP station descriptor.
func NewLinuxRadio(opts LinuxOptions, networkMgr port.NetworkManager, fileMgr port.FileManager, runner port.CommandRunner, dhcpClient port.DHCPClient) *LinuxRadio {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if len(opts.ReconfigureCommand) == 0 {
		opts.ReconfigureCommand = []string{"wpa_cli", "-i", opts.Interface, "reconfigure"}
	}
	if len(opts.DisconnectCommand) == 0 {
		opts.DisconnectCommand = []string{"wpa_cli", "-i", opts.Interface, "disconnect"}
	}
	return &LinuxRadio{
		opts:       opts,
		networkMgr: networkMgr,
		fileMgr:    fileMgr,
		runner:     runner,
		dhcpClient: dhcpClient,
		station:    types.DefaultStationDescriptor(),
		router:     types.DefaultRouterDescriptor("WIFI_AP_DEF"),
	}
}

// Name returns the name of the wireless interface.
func (r *LinuxRadio) Name() string {
	return r.opts.Interface
}

// ApplyStationConfig writes the network block wpa_supplicant uses to join the access point.
func (r *LinuxRadio) ApplyStationConfig(cfg types.StationConfig) error {
	content, err := renderSupplicantConfig(cfg)
	if err != nil {
		return err
	}
	if err := r.fileMgr.WriteFile(r.opts.SupplicantConfig, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.opts.SupplicantConfig, err)
	}

	r.mu.Lock()
	r.ssid = cfg.Credentials.SSID
	r.mu.Unlock()

	r.logger().WithFields(logrus.Fields{
		"path": r.opts.SupplicantConfig,
		"auth": cfg.Auth.String(),
	}).Info("Wrote supplicant configuration")
	return nil
}

// SwapNetworkInterfaces replaces both interface descriptors and returns the previous pair.
func (r *LinuxRadio) SwapNetworkInterfaces(station, router types.InterfaceDescriptor) (types.InterfaceDescriptor, types.InterfaceDescriptor, error) {
	if station.Role != types.RoleStation {
		return types.InterfaceDescriptor{}, types.InterfaceDescriptor{}, fmt.Errorf("descriptor %s is not a station interface", station.Key)
	}
	if router.Role != types.RoleRouter {
		return types.InterfaceDescriptor{}, types.InterfaceDescriptor{}, fmt.Errorf("descriptor %s is not a router interface", router.Key)
	}
	if station.Addressing == types.AddressingFixed && station.Fixed == nil {
		return types.InterfaceDescriptor{}, types.InterfaceDescriptor{}, fmt.Errorf("station descriptor %s has fixed addressing without an address", station.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	prevStation, prevRouter := r.station, r.router
	r.station, r.router = station, router
	return prevStation, prevRouter, nil
}

// Start brings the link up.
func (r *LinuxRadio) Start(ctx context.Context) error {
	link, err := r.networkMgr.GetLinkByName(r.opts.Interface)
	if err != nil {
		return fmt.Errorf("failed to get netlink interface: %w", err)
	}
	if err := r.networkMgr.SetLinkUp(link); err != nil {
		return fmt.Errorf("failed to bring %s up: %w", r.opts.Interface, err)
	}
	r.logger().Info("Link is up")
	return nil
}

// Connect asks wpa_supplicant to reload its configuration and waits until the link is operational.
func (r *LinuxRadio) Connect(ctx context.Context) error {
	logger := r.logger()

	cmd := r.opts.ReconfigureCommand
	if _, err := r.runner.Run(ctx, cmd[0], cmd[1:]...); err != nil {
		return fmt.Errorf("failed to reconfigure supplicant: %w", err)
	}

	r.mu.Lock()
	ssid := r.ssid
	r.mu.Unlock()
	logger.WithField("ssid", ssid).Info("Waiting for association")

	waitCtx, cancel := context.WithTimeout(ctx, r.opts.ConnectTimeout)
	defer cancel()

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		up, err := r.operational()
		if err != nil {
			return err
		}
		if up {
			logger.WithField("ssid", ssid).Info("Associated with access point")
			return nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("association with %q timed out after %s", ssid, r.opts.ConnectTimeout)
		case <-ticker.C:
		}
	}
}

func (r *LinuxRadio) operational() (bool, error) {
	link, err := r.networkMgr.GetLinkByName(r.opts.Interface)
	if err != nil {
		return false, fmt.Errorf("failed to get netlink interface: %w", err)
	}
	return link.Attrs().OperState == netlink.OperUp, nil
}

// WaitForAddress applies the fixed address of the station descriptor, or acquires a DHCP lease
// when there is none. The address is maintained in the background until Disconnect.
func (r *LinuxRadio) WaitForAddress(ctx context.Context) (types.AddressInfo, error) {
	r.mu.Lock()
	station := r.station
	r.mu.Unlock()

	if station.Addressing == types.AddressingFixed && station.Fixed != nil {
		mgr := static.NewManager(r.opts.Interface, *station.Fixed, r.networkMgr)
		info, err := mgr.Apply(ctx)
		if err != nil {
			return types.AddressInfo{}, fmt.Errorf("failed to apply fixed address: %w", err)
		}
		r.startMaintenance(mgr.Monitor, mgr.Release)
		return info, nil
	}

	mgr := dhcp.NewManager(r.opts.Interface, r.dhcpClient, r.networkMgr, r.fileMgr, r.opts.DHCP)
	info, renewal, err := mgr.Acquire(ctx)
	if err != nil {
		return types.AddressInfo{}, err
	}
	r.startMaintenance(func(ctx context.Context) error {
		return mgr.Maintain(ctx, renewal)
	}, mgr.Release)
	return info, nil
}

func (r *LinuxRadio) startMaintenance(loop func(context.Context) error, release func(context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &maintainer{cancel: cancel, done: make(chan struct{}), release: release}

	r.mu.Lock()
	r.maint = m
	r.mu.Unlock()

	go func() {
		defer close(m.done)
		if err := loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger().WithError(err).Error("Address maintenance stopped")
		}
	}()
}

// Disconnect stops address maintenance, removes the address and leaves the access point.
func (r *LinuxRadio) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	m := r.maint
	r.maint = nil
	r.mu.Unlock()

	if m != nil {
		m.cancel()
		select {
		case <-m.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := m.release(ctx); err != nil {
			return err
		}
	}

	cmd := r.opts.DisconnectCommand
	if _, err := r.runner.Run(ctx, cmd[0], cmd[1:]...); err != nil {
		return fmt.Errorf("failed to disconnect supplicant: %w", err)
	}
	r.logger().Info("Disconnected from access point")
	return nil
}

// Stop brings the link down.
func (r *LinuxRadio) Stop(ctx context.Context) error {
	link, err := r.networkMgr.GetLinkByName(r.opts.Interface)
	if err != nil {
		return fmt.Errorf("failed to get netlink interface: %w", err)
	}
	if err := r.networkMgr.SetLinkDown(link); err != nil {
		return fmt.Errorf("failed to bring %s down: %w", r.opts.Interface, err)
	}
	r.logger().Info("Link is down")
	return nil
}

func (r *LinuxRadio) logger() *logrus.Entry {
	return logging.WithComponentAndInterface("radio", r.opts.Interface)
}
