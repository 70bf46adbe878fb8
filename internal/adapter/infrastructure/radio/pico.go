//go:build rp2040 || rp2350

package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"golang-wifista/internal/port"
	"golang-wifista/internal/types"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
)

const mtu = cyw43439.MTU

// PicoOptions configures the Pico W radio.
type PicoOptions struct {
	// Hostname is sent with the DHCP request.
	Hostname string
	// TCPPorts is the number of TCP connections the stack can hold open.
	TCPPorts    uint16
	DHCPTimeout time.Duration
	// Logger receives the driver and stack diagnostics. Nil discards them.
	Logger *slog.Logger
}

// PicoRadio drives the CYW43439 on a Raspberry Pi Pico W with the seqs userspace stack.
// It also dials TCP connections through that stack.
type PicoRadio struct {
	opts PicoOptions
	dev  *cyw43439.Device

	mu       sync.Mutex
	cfg      types.StationConfig
	station  types.InterfaceDescriptor
	router   types.InterfaceDescriptor
	stack    *stacks.PortStack
	prefix   netip.Prefix
	gateway  netip.Addr
	stopNIC  chan struct{}
	nextPort uint16
	dialed   []uint16
}

var (
	_ port.Radio  = (*PicoRadio)(nil)
	_ port.Dialer = (*PicoRadio)(nil)

	_ chipControl = (*cyw43439.Device)(nil)
	_ nic         = (*cyw43439.Device)(nil)
	_ frameSource = (*stacks.PortStack)(nil)
)

// NewPicoRadio creates the radio for the on-board wireless chip.
func NewPicoRadio(opts PicoOptions) *PicoRadio {
	if opts.TCPPorts == 0 {
		opts.TCPPorts = 1
	}
	if opts.DHCPTimeout <= 0 {
		opts.DHCPTimeout = 8 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &PicoRadio{
		opts:     opts,
		dev:      cyw43439.NewPicoWDevice(),
		station:  types.DefaultStationDescriptor(),
		router:   types.DefaultRouterDescriptor("WIFI_AP_DEF"),
		nextPort: 49152,
	}
}

// Name returns the name of the station interface.
func (r *PicoRadio) Name() string {
	return "cyw43439"
}

// ApplyStationConfig records the credentials used by Connect. The chip joins open and WPA2 networks only.
func (r *PicoRadio) ApplyStationConfig(cfg types.StationConfig) error {
	if cfg.Credentials.SSID == "" {
		return errors.New("ssid is empty")
	}
	switch cfg.Auth {
	case types.AuthNone:
	case types.AuthWPA2Personal, types.AuthWPAWPA2Personal:
		if err := validatePassphrase(cfg.Credentials.Password); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAuth, cfg.Auth)
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	return nil
}

// SwapNetworkInterfaces replaces both interface descriptors and returns the previous pair.
func (r *PicoRadio) SwapNetworkInterfaces(station, router types.InterfaceDescriptor) (types.InterfaceDescriptor, types.InterfaceDescriptor, error) {
	if station.Role != types.RoleStation || router.Role != types.RoleRouter {
		return types.InterfaceDescriptor{}, types.InterfaceDescriptor{}, errors.New("descriptor roles do not match station and router")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prevStation, prevRouter := r.station, r.router
	r.station, r.router = station, router
	return prevStation, prevRouter, nil
}

// Start initializes the chip.
func (r *PicoRadio) Start(ctx context.Context) error {
	wificfg := cyw43439.DefaultWifiConfig()
	wificfg.Logger = r.opts.Logger

	start := time.Now()
	if err := r.dev.Init(wificfg); err != nil {
		return fmt.Errorf("cyw43439 init: %w", err)
	}
	r.opts.Logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(start)))
	return nil
}

// Connect joins the access point and starts the packet loop of the IP stack.
// The driver joins an open network when the passphrase is empty.
func (r *PicoRadio) Connect(ctx context.Context) error {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()

	pass := cfg.Credentials.Password
	if cfg.Auth == types.AuthNone {
		pass = ""
	}
	if err := r.dev.JoinWPA2(cfg.Credentials.SSID, pass); err != nil {
		return fmt.Errorf("join %q: %w", cfg.Credentials.SSID, err)
	}

	mac, err := r.dev.HardwareAddr6()
	if err != nil {
		return fmt.Errorf("read hardware address: %w", err)
	}
	r.opts.Logger.Info("wifi join success", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: 1, // DHCP
		MaxOpenPortsTCP: int(r.opts.TCPPorts),
		MTU:             mtu,
		Logger:          r.opts.Logger,
	})
	r.dev.RecvEthHandle(stack.RecvEth)

	stop := make(chan struct{})
	r.mu.Lock()
	r.stack = stack
	r.stopNIC = stop
	r.mu.Unlock()

	go pumpFrames(r.dev, stack, mtu, stop, r.opts.Logger)
	return nil
}

// WaitForAddress assigns the fixed address of the station descriptor, or runs DHCP when there is none.
func (r *PicoRadio) WaitForAddress(ctx context.Context) (types.AddressInfo, error) {
	r.mu.Lock()
	station, stack := r.station, r.stack
	r.mu.Unlock()
	if stack == nil {
		return types.AddressInfo{}, errors.New("not connected")
	}

	if station.Addressing == types.AddressingFixed && station.Fixed != nil {
		fixed := *station.Fixed
		stack.SetAddr(fixed.DeviceIP)
		if err := r.setUp(fixed.Prefix(), fixed.Gateway.IP); err != nil {
			return types.AddressInfo{}, err
		}
		return types.AddressInfo{Address: fixed.Prefix(), Gateway: fixed.Gateway.IP, Static: true}, nil
	}

	client := stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	err := client.BeginRequest(stacks.DHCPRequestConfig{
		Xid:      uint32(time.Now().Nanosecond()),
		Hostname: r.opts.Hostname,
	})
	if err != nil {
		return types.AddressInfo{}, fmt.Errorf("dhcp request: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.opts.DHCPTimeout)
	defer cancel()
	for client.State() != dhcp.StateBound {
		select {
		case <-waitCtx.Done():
			client.Abort()
			if ctx.Err() != nil {
				return types.AddressInfo{}, ctx.Err()
			}
			return types.AddressInfo{}, fmt.Errorf("dhcp did not complete within %s", r.opts.DHCPTimeout)
		case <-time.After(time.Second / 2):
		}
	}

	ip := client.Offer()
	stack.SetAddr(ip)

	info := types.AddressInfo{
		Address: netip.PrefixFrom(ip, int(client.CIDRBits())),
		Gateway: client.Router(),
	}
	for _, dns := range client.DNSServers() {
		if dns.IsValid() {
			info.DNS = append(info.DNS, dns)
		}
	}
	if err := r.setUp(info.Address, info.Gateway); err != nil {
		return types.AddressInfo{}, err
	}
	r.opts.Logger.Info("DHCP complete",
		slog.String("ourIP", ip.String()),
		slog.String("router", client.Router().String()),
		slog.Duration("lease", client.IPLeaseTime()),
	)
	return info, nil
}

// setUp records the routing of the station and turns the status LED on.
func (r *PicoRadio) setUp(prefix netip.Prefix, gateway netip.Addr) error {
	r.mu.Lock()
	r.prefix, r.gateway = prefix, gateway
	r.mu.Unlock()
	if err := r.dev.GPIOSet(statusLED, true); err != nil {
		return fmt.Errorf("status led on: %w", err)
	}
	return nil
}

// Disconnect aborts the open connections and pending ARP, stops the packet loop and drops the stack.
// The chip stays associated until Stop resets it.
func (r *PicoRadio) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stack != nil {
		for _, lport := range r.dialed {
			// Ports the peer already closed are gone from the stack.
			_ = r.stack.CloseTCP(lport)
		}
		r.stack.ARP().Abort()
	}
	r.dialed = nil
	if r.stopNIC != nil {
		close(r.stopNIC)
		r.stopNIC = nil
	}
	r.stack = nil
	r.prefix = netip.Prefix{}
	r.gateway = netip.Addr{}
	return nil
}

// Stop turns the status LED off and resets the chip. The next Start loads the firmware again.
func (r *PicoRadio) Stop(ctx context.Context) error {
	return powerDown(r.dev)
}

// DialContext opens a TCP connection through the seqs stack.
// Peers inside the station prefix are reached directly, the rest via the gateway.
func (r *PicoRadio) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, fmt.Errorf("unsupported network %s", network)
	}
	remote, err := netip.ParseAddrPort(address)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	stack, hop := r.stack, nextHop(r.prefix, r.gateway, remote.Addr())
	lport := r.nextPort
	r.nextPort++
	r.mu.Unlock()
	if stack == nil {
		return nil, errors.New("not connected")
	}

	hw, err := r.resolveHardwareAddr(ctx, stack, hop)
	if err != nil {
		return nil, fmt.Errorf("resolve next hop %s: %w", hop, err)
	}

	conn, err := stacks.NewTCPConn(stack, stacks.TCPConnConfig{
		TxBufSize: 512,
		RxBufSize: 512,
	})
	if err != nil {
		return nil, err
	}
	if err := conn.OpenDialTCP(lport, hw, remote, seqs.Value(time.Now().UnixNano())); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.dialed = append(r.dialed, lport)
	r.mu.Unlock()

	for conn.State() != seqs.StateEstablished {
		select {
		case <-ctx.Done():
			_ = stack.CloseTCP(lport)
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	r.opts.Logger.Debug("tcp established",
		slog.String("remote", remote.String()),
		slog.String("via", hop.String()),
	)
	return conn, nil
}

// A resolution polls for the reply while the packet loop sends the request.
const (
	arpTimeout = time.Second
	arpPoll    = 50 * time.Millisecond
)

// resolveHardwareAddr obtains the hardware address of ip with ARP.
func (r *PicoRadio) resolveHardwareAddr(ctx context.Context, stack *stacks.PortStack, ip netip.Addr) ([6]byte, error) {
	if !ip.IsValid() {
		return [6]byte{}, errors.New("no next hop address")
	}
	arpc := stack.ARP()
	arpc.Abort()
	if err := arpc.BeginResolve(ip); err != nil {
		return [6]byte{}, err
	}

	deadline := time.NewTimer(arpTimeout)
	defer deadline.Stop()
	for !arpc.IsDone() {
		select {
		case <-ctx.Done():
			arpc.Abort()
			return [6]byte{}, ctx.Err()
		case <-deadline.C:
			arpc.Abort()
			r.opts.Logger.Warn("arp timed out", slog.String("ip", ip.String()))
			return [6]byte{}, fmt.Errorf("arp for %s timed out after %s", ip, arpTimeout)
		case <-time.After(arpPoll):
		}
	}
	_, hw, err := arpc.ResultAs6()
	return hw, err
}
