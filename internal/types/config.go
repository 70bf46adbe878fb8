// Package types defines common types used across the application.
package types

import (
	"fmt"
	"net/netip"
	"strings"
)

// StationCredentials identifies the access point the station joins.
type StationCredentials struct {
	SSID     string
	Password string
}

// AuthMethod is the authentication scheme used when joining the access point.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthWEP
	AuthWPA
	AuthWPA2Personal
	AuthWPAWPA2Personal
	AuthWPA3Personal
	AuthWPA2WPA3Personal
)

var authMethodNames = map[AuthMethod]string{
	AuthNone:             "none",
	AuthWEP:              "wep",
	AuthWPA:              "wpa",
	AuthWPA2Personal:     "wpa2-personal",
	AuthWPAWPA2Personal:  "wpa-wpa2-personal",
	AuthWPA3Personal:     "wpa3-personal",
	AuthWPA2WPA3Personal: "wpa2-wpa3-personal",
}

func (a AuthMethod) String() string {
	if name, ok := authMethodNames[a]; ok {
		return name
	}
	return fmt.Sprintf("auth(%d)", int(a))
}

// ParseAuthMethod parses the textual form of an AuthMethod. An empty string selects WPA2 personal.
func ParseAuthMethod(s string) (AuthMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AuthWPA2Personal, nil
	}
	for method, name := range authMethodNames {
		if name == s {
			return method, nil
		}
	}
	return 0, fmt.Errorf("unknown auth method: %s", s)
}

// StationConfig is the client configuration applied to the radio.
type StationConfig struct {
	Credentials StationCredentials
	Auth        AuthMethod
}

// Gateway is the default router together with the prefix length of the local network.
type Gateway struct {
	IP        netip.Addr
	PrefixLen uint8
}

// StaticNetworkConfig represents a complete fixed-IP configuration.
// It only exists when the device address, gateway and prefix length all parsed.
type StaticNetworkConfig struct {
	DeviceIP netip.Addr
	Gateway  Gateway
}

// Prefix returns the device address with its network prefix length.
func (c StaticNetworkConfig) Prefix() netip.Prefix {
	return netip.PrefixFrom(c.DeviceIP, int(c.Gateway.PrefixLen))
}

// AddressInfo is what the platform reports once the interface has a usable address.
type AddressInfo struct {
	Address netip.Prefix
	Gateway netip.Addr
	DNS     []netip.Addr
	Static  bool
}
