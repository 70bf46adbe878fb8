package types

import "fmt"

// InterfaceRole selects what a network interface is instantiated for.
type InterfaceRole string

const (
	RoleStation InterfaceRole = "station"
	RoleRouter  InterfaceRole = "router"
)

// AddressingMode tells how an interface obtains its address.
type AddressingMode string

const (
	AddressingDHCP  AddressingMode = "dhcp"
	AddressingFixed AddressingMode = "fixed"
)

// InterfaceDescriptor holds the parameters used to instantiate a network interface.
type InterfaceDescriptor struct {
	Key           string
	Description   string
	Role          InterfaceRole
	RoutePriority int
	Addressing    AddressingMode
	Fixed         *StaticNetworkConfig
}

// StationDescriptor returns a station interface descriptor carrying the fixed addressing in cfg.
func StationDescriptor(key string, cfg StaticNetworkConfig) InterfaceDescriptor {
	return InterfaceDescriptor{
		Key:           key,
		Description:   "cfg",
		Role:          RoleStation,
		RoutePriority: 0,
		Addressing:    AddressingFixed,
		Fixed:         &cfg,
	}
}

// DefaultRouterDescriptor returns the platform's default router interface descriptor.
func DefaultRouterDescriptor(key string) InterfaceDescriptor {
	return InterfaceDescriptor{
		Key:           key,
		Description:   "ap",
		Role:          RoleRouter,
		RoutePriority: 10,
		Addressing:    AddressingFixed,
	}
}

// DefaultStationDescriptor returns the DHCP-addressed station descriptor every radio starts with.
func DefaultStationDescriptor() InterfaceDescriptor {
	return InterfaceDescriptor{
		Key:           "WIFI_STA_DEF",
		Description:   "sta",
		Role:          RoleStation,
		RoutePriority: 100,
		Addressing:    AddressingDHCP,
	}
}

func (d InterfaceDescriptor) String() string {
	if d.Fixed != nil {
		return fmt.Sprintf("%s(%s, %s, gw %s)", d.Key, d.Role, d.Fixed.Prefix(), d.Fixed.Gateway.IP)
	}
	return fmt.Sprintf("%s(%s, %s)", d.Key, d.Role, d.Addressing)
}

// InterfaceState is the bring-up state of the station interface.
type InterfaceState int

const (
	StateUnconfigured InterfaceState = iota
	StateConfigured
	StateStarting
	StateConnecting
	StateWaitingForAddress
	StateUp
	StateDisconnecting
	StateDown
)

var stateNames = [...]string{
	StateUnconfigured:      "unconfigured",
	StateConfigured:        "configured",
	StateStarting:          "starting",
	StateConnecting:        "connecting",
	StateWaitingForAddress: "waiting-for-address",
	StateUp:                "up",
	StateDisconnecting:     "disconnecting",
	StateDown:              "down",
}

func (s InterfaceState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}
