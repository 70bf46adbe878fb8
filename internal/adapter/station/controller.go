// Package station drives the bring-up of the Wi-Fi station interface.
package station

import (
	"context"
	"fmt"
	"sync"

	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/port"
	"golang-wifista/internal/types"

	"github.com/sirupsen/logrus"
)

// Controller owns the radio and walks it through
// Configured -> Starting -> Connecting -> WaitingForAddress -> Up, and back down.
// Each step is awaited before the next one is issued and nothing is retried.
type Controller struct {
	radio      port.Radio
	station    types.StationConfig
	static     *types.StaticNetworkConfig
	stationKey string
	routerKey  string
	onChange   func(from, to types.InterfaceState)

	// flight serializes BringUp, TearDown and Configure; contenders fail with ErrBusy.
	flight sync.Mutex

	mu      sync.RWMutex
	state   types.InterfaceState
	address types.AddressInfo
}

// Ensure Controller implements the NetworkController port
var _ port.NetworkController = (*Controller)(nil)

// Option customizes a Controller.
type Option func(*Controller)

// WithDescriptorKeys sets the keys of the interfaces swapped in for fixed addressing.
func WithDescriptorKeys(stationKey, routerKey string) Option {
	return func(c *Controller) {
		c.stationKey = stationKey
		c.routerKey = routerKey
	}
}

// WithTransitionHook registers fn to be called after every state change.
func WithTransitionHook(fn func(from, to types.InterfaceState)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a controller for radio. A nil static configuration keeps DHCP addressing.
func NewController(radio port.Radio, station types.StationConfig, static *types.StaticNetworkConfig, opts ...Option) *Controller {
	c := &Controller{
		radio:      radio,
		station:    station,
		static:     static,
		stationKey: "sta_fixed0",
		routerKey:  "router0",
		state:      types.StateUnconfigured,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetInterfaceName returns the name of the network interface managed by this controller.
func (c *Controller) GetInterfaceName() string {
	return c.radio.Name()
}

// State returns the current bring-up state.
func (c *Controller) State() types.InterfaceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Address returns the addressing reported when the interface came up.
func (c *Controller) Address() types.AddressInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}

// Configure applies the station configuration and, when fixed addressing is complete,
// swaps in the fixed-IP station and router interfaces.
func (c *Controller) Configure() error {
	if !c.flight.TryLock() {
		return ErrBusy
	}
	defer c.flight.Unlock()

	return c.configure()
}

func (c *Controller) configure() error {
	if s := c.State(); s != types.StateUnconfigured {
		return fmt.Errorf("%w: configure from %s", ErrInvalidState, s)
	}
	logger := c.logger()

	logger.WithFields(logrus.Fields{
		"ssid": c.station.Credentials.SSID,
		"auth": c.station.Auth.String(),
	}).Info("Applying station configuration")

	if err := c.radio.ApplyStationConfig(c.station); err != nil {
		return c.fail(ErrDeviceConfiguration, err)
	}

	if c.static != nil {
		sta := types.StationDescriptor(c.stationKey, *c.static)
		router := types.DefaultRouterDescriptor(c.routerKey)

		prevSta, prevRouter, err := c.radio.SwapNetworkInterfaces(sta, router)
		if err != nil {
			return c.fail(ErrDeviceConfiguration, fmt.Errorf("swap network interfaces: %w", err))
		}
		logger.WithFields(logrus.Fields{
			"station":         sta.String(),
			"router":          router.String(),
			"replaced_sta":    prevSta.Key,
			"replaced_router": prevRouter.Key,
		}).Info("Swapped in fixed-IP network interfaces")
	} else {
		logger.Info("No complete static configuration, keeping DHCP addressing")
	}

	c.transition(types.StateConfigured)
	return nil
}

// BringUp starts the radio, connects and blocks until the interface has an address.
// It configures the radio first when that has not happened yet.
func (c *Controller) BringUp(ctx context.Context) error {
	if !c.flight.TryLock() {
		return ErrBusy
	}
	defer c.flight.Unlock()

	switch s := c.State(); s {
	case types.StateUnconfigured:
		if err := c.configure(); err != nil {
			return err
		}
	case types.StateConfigured, types.StateDown:
	default:
		return fmt.Errorf("%w: bring-up from %s", ErrInvalidState, s)
	}

	c.transition(types.StateStarting)
	if err := c.radio.Start(ctx); err != nil {
		return c.fail(ErrRadio, err)
	}

	c.transition(types.StateConnecting)
	if err := c.radio.Connect(ctx); err != nil {
		return c.fail(ErrConnect, err)
	}

	c.transition(types.StateWaitingForAddress)
	info, err := c.radio.WaitForAddress(ctx)
	if err != nil {
		return c.fail(ErrInterfaceUp, err)
	}

	c.mu.Lock()
	c.address = info
	c.mu.Unlock()
	c.transition(types.StateUp)

	c.logger().WithFields(logrus.Fields{
		"ip":      info.Address.String(),
		"gateway": info.Gateway.String(),
		"static":  info.Static,
	}).Info("Interface is up")
	return nil
}

// TearDown disassociates and then stops the radio. The first failure ends the teardown
// and leaves the controller in Disconnecting, from which TearDown may be retried.
func (c *Controller) TearDown(ctx context.Context) error {
	if !c.flight.TryLock() {
		return ErrBusy
	}
	defer c.flight.Unlock()

	switch s := c.State(); s {
	case types.StateStarting, types.StateConnecting, types.StateWaitingForAddress, types.StateUp:
		c.transition(types.StateDisconnecting)
	case types.StateDisconnecting:
	default:
		return fmt.Errorf("%w: teardown from %s", ErrInvalidState, s)
	}

	if err := c.radio.Disconnect(ctx); err != nil {
		return c.fail(ErrDisconnect, err)
	}
	if err := c.radio.Stop(ctx); err != nil {
		return c.fail(ErrRadio, err)
	}

	c.mu.Lock()
	c.address = types.AddressInfo{}
	c.mu.Unlock()
	c.transition(types.StateDown)
	return nil
}

func (c *Controller) transition(to types.InterfaceState) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	c.logger().WithField("from", from.String()).Debug("State changed")
	if c.onChange != nil {
		c.onChange(from, to)
	}
}

func (c *Controller) fail(kind, err error) error {
	stepErr := &StepError{State: c.State(), Kind: kind, Err: err}
	c.logger().WithError(err).Error(kind.Error())
	return stepErr
}

func (c *Controller) logger() *logrus.Entry {
	return logging.WithComponentAndInterface("station", c.radio.Name()).WithField("state", c.State().String())
}
