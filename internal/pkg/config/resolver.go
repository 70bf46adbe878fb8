package config

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/types"

	"github.com/sirupsen/logrus"
)

// ErrHalted is returned by ResolveCredentials only when its context ends while halted.
var ErrHalted = errors.New("station credentials missing, configuration halted")

// DefaultHaltInterval is the cadence of the diagnostic emitted while halted.
const DefaultHaltInterval = time.Second

const maxPrefixLen = 32

// Resolver turns raw settings into validated station and addressing configuration.
// Apart from logging and the credential halt it has no side effects.
type Resolver struct {
	wifi         WiFiConfig
	network      NetworkConfig
	haltInterval time.Duration
	halted       atomic.Bool
	logger       *logrus.Entry
}

// NewResolver creates a resolver over a snapshot of the given configuration.
func NewResolver(cfg *Config) *Resolver {
	return &Resolver{
		wifi:         cfg.WiFi,
		network:      cfg.Network,
		haltInterval: DefaultHaltInterval,
		logger:       logging.WithComponent("config"),
	}
}

// WithHaltInterval changes how often the halt diagnostic is repeated.
func (r *Resolver) WithHaltInterval(d time.Duration) *Resolver {
	r.haltInterval = d
	return r
}

// Halted reports whether the resolver entered the terminal missing-credentials state.
func (r *Resolver) Halted() bool {
	return r.halted.Load()
}

// ResolveCredentials returns the station credentials. When the SSID or password is
// missing it never returns on its own: the device stays observable by repeating a
// diagnostic until ctx is cancelled.
func (r *Resolver) ResolveCredentials(ctx context.Context) (types.StationCredentials, error) {
	if r.wifi.SSID != nil && *r.wifi.SSID != "" && r.wifi.Password != nil {
		return types.StationCredentials{SSID: *r.wifi.SSID, Password: *r.wifi.Password}, nil
	}
	return types.StationCredentials{}, r.halt(ctx)
}

func (r *Resolver) halt(ctx context.Context) error {
	r.halted.Store(true)

	ticker := time.NewTicker(r.haltInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrHalted, ctx.Err())
		case <-ticker.C:
			r.logger.Error("No valid configuration for the WiFi STA credentials")
		}
	}
}

// ResolveStationConfig resolves the credentials together with the auth method.
func (r *Resolver) ResolveStationConfig(ctx context.Context) (types.StationConfig, error) {
	creds, err := r.ResolveCredentials(ctx)
	if err != nil {
		return types.StationConfig{}, err
	}
	auth, err := types.ParseAuthMethod(r.wifi.Auth)
	if err != nil {
		return types.StationConfig{}, err
	}
	return types.StationConfig{Credentials: creds, Auth: auth}, nil
}

// ResolveStaticIP parses the fixed device address. A malformed value is logged and
// treated as absent.
func (r *Resolver) ResolveStaticIP() (netip.Addr, bool) {
	if r.network.DeviceIP == nil {
		return netip.Addr{}, false
	}
	addr, err := parseIPv4(*r.network.DeviceIP)
	if err != nil {
		r.logger.WithError(err).Errorf("Unable to parse static IP %s", *r.network.DeviceIP)
		return netip.Addr{}, false
	}
	return addr, true
}

// ResolveGateway parses the gateway address and prefix length. Both must parse for the
// pair to be present; a fully absent pair is silent, anything partial is logged once.
func (r *Resolver) ResolveGateway() (types.Gateway, bool) {
	ipRaw, maskRaw := r.network.GatewayIP, r.network.GatewayNetmask
	if ipRaw == nil && maskRaw == nil {
		return types.Gateway{}, false
	}

	fields := logrus.Fields{"ip": display(ipRaw), "netmask": display(maskRaw)}
	if ipRaw == nil || maskRaw == nil {
		r.logger.WithFields(fields).Error("No valid configuration for gateway")
		return types.Gateway{}, false
	}

	ip, ipErr := parseIPv4(*ipRaw)
	// Unsigned decimal with at most one leading '+'
	prefix, maskErr := strconv.ParseUint(strings.TrimPrefix(*maskRaw, "+"), 10, 8)
	if err := errors.Join(ipErr, maskErr); err != nil {
		r.logger.WithFields(fields).WithError(err).Error("No valid configuration for gateway")
		return types.Gateway{}, false
	}
	if prefix > maxPrefixLen {
		r.logger.WithFields(fields).Errorf("Gateway netmask prefix length %d exceeds %d", prefix, maxPrefixLen)
		return types.Gateway{}, false
	}

	return types.Gateway{IP: ip, PrefixLen: uint8(prefix)}, true
}

// ResolveStaticConfig returns the fixed addressing, or nil when the device should use DHCP.
func (r *Resolver) ResolveStaticConfig() *types.StaticNetworkConfig {
	ip, ipOK := r.ResolveStaticIP()
	gw, gwOK := r.ResolveGateway()

	if ipOK && gwOK {
		return &types.StaticNetworkConfig{DeviceIP: ip, Gateway: gw}
	}

	gatewayAbsent := r.network.GatewayIP == nil && r.network.GatewayNetmask == nil
	switch {
	case ipOK && gatewayAbsent:
		r.logger.WithField("ip", ip.String()).Error("Static IP set without gateway info, falling back to DHCP")
	case gwOK && r.network.DeviceIP == nil:
		r.logger.WithField("gateway", gw.IP.String()).Error("Gateway info set without static IP, falling back to DHCP")
	}
	return nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("not an IPv4 address: %s", s)
	}
	return addr, nil
}

func display(v *string) string {
	if v == nil {
		return "<unset>"
	}
	return *v
}
