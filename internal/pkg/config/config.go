package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/types"

	"gopkg.in/yaml.v3"
)

// Build-time settings, injected with
// -ldflags "-X golang-wifista/internal/pkg/config.buildSSID=...".
// An empty value means the setting was not provided.
var (
	buildSSID           string
	buildPassword       string
	buildDeviceIP       string
	buildGatewayIP      string
	buildGatewayNetmask string
)

// Environment variables that override the build-time and file settings.
const (
	EnvSSID           = "WIFI_SSID"
	EnvPassword       = "WIFI_PASS"
	EnvDeviceIP       = "DEVICE_IP"
	EnvGatewayIP      = "GATEWAY_IP"
	EnvGatewayNetmask = "GATEWAY_NETMASK"
)

// WiFiConfig holds the station credentials. Nil means not provided.
type WiFiConfig struct {
	SSID     *string `yaml:"ssid"`
	Password *string `yaml:"password"`
	Auth     string  `yaml:"auth"`
}

// NetworkConfig holds the optional fixed addressing, in its raw textual form.
type NetworkConfig struct {
	DeviceIP       *string `yaml:"device_ip"`
	GatewayIP      *string `yaml:"gateway_ip"`
	GatewayNetmask *string `yaml:"gateway_netmask"`
	StationKey     string  `yaml:"station_key"`
	RouterKey      string  `yaml:"router_key"`
}

// PlatformConfig configures the Linux radio.
type PlatformConfig struct {
	Interface          string        `yaml:"interface"`
	Hostname           string        `yaml:"hostname"`
	SupplicantConfig   string        `yaml:"supplicant_config"`
	ReconfigureCommand []string      `yaml:"reconfigure_command"`
	DisconnectCommand  []string      `yaml:"disconnect_command"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	DHCPTimeout        time.Duration `yaml:"dhcp_timeout"`
	ResolvConf         string        `yaml:"resolv_conf"`
}

// TelemetryConfig configures the counter stream opened once the interface is up.
type TelemetryConfig struct {
	Address  string        `yaml:"address"`
	Interval time.Duration `yaml:"interval"`
	Greeting string        `yaml:"greeting"`
}

// Config represents the main configuration structure
type Config struct {
	Logging   logging.LogConfig `yaml:"logging"`
	WiFi      WiFiConfig        `yaml:"wifi"`
	Network   NetworkConfig     `yaml:"network"`
	Platform  PlatformConfig    `yaml:"platform"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`
}

// Default returns the configuration built into the binary.
func Default() *Config {
	return &Config{
		Logging: logging.LogConfig{
			Level:  "info",
			Format: "compact",
		},
		WiFi: WiFiConfig{
			SSID:     optional(buildSSID),
			Password: optional(buildPassword),
		},
		Network: NetworkConfig{
			DeviceIP:       optional(buildDeviceIP),
			GatewayIP:      optional(buildGatewayIP),
			GatewayNetmask: optional(buildGatewayNetmask),
			StationKey:     "sta_fixed0",
			RouterKey:      "router0",
		},
		Platform: PlatformConfig{
			Interface:      "wlan0",
			ConnectTimeout: 30 * time.Second,
			DHCPTimeout:    15 * time.Second,
			ResolvConf:     "/etc/resolv.conf",
		},
		Telemetry: TelemetryConfig{
			Address:  "192.168.4.68:5433",
			Interval: time.Second,
			Greeting: "hello world",
		},
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Load loads configuration from a YAML file on top of the built-in defaults.
// An empty path returns the defaults.
func Load(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return config, nil
}

// ApplyEnvironment overrides settings with the deployment environment.
// A variable that is set but empty still counts as provided.
func (c *Config) ApplyEnvironment(lookup func(string) (string, bool)) {
	set := func(dst **string, key string) {
		if v, ok := lookup(key); ok {
			*dst = &v
		}
	}
	set(&c.WiFi.SSID, EnvSSID)
	set(&c.WiFi.Password, EnvPassword)
	set(&c.Network.DeviceIP, EnvDeviceIP)
	set(&c.Network.GatewayIP, EnvGatewayIP)
	set(&c.Network.GatewayNetmask, EnvGatewayNetmask)
}

// Validate validates the configuration.
// Credentials and fixed addressing are not checked here: the Resolver owns those.
func (c *Config) Validate() error {
	if c.Platform.Interface == "" {
		return fmt.Errorf("platform: interface name is required")
	}
	if _, err := types.ParseAuthMethod(c.WiFi.Auth); err != nil {
		return fmt.Errorf("wifi: %w", err)
	}
	if c.Network.StationKey == "" || c.Network.RouterKey == "" {
		return fmt.Errorf("network: station and router interface keys are required")
	}
	if c.Network.StationKey == c.Network.RouterKey {
		return fmt.Errorf("network: station and router interface keys must differ")
	}
	if _, _, err := net.SplitHostPort(c.Telemetry.Address); err != nil {
		return fmt.Errorf("telemetry: invalid address %q: %w", c.Telemetry.Address, err)
	}
	if c.Telemetry.Interval <= 0 {
		return fmt.Errorf("telemetry: interval must be positive")
	}
	if c.Platform.ConnectTimeout <= 0 || c.Platform.DHCPTimeout <= 0 {
		return fmt.Errorf("platform: connect and dhcp timeouts must be positive")
	}
	return nil
}

// ReconfigureArgs returns the command that makes wpa_supplicant reload its configuration.
func (c *Config) ReconfigureArgs() []string {
	if len(c.Platform.ReconfigureCommand) > 0 {
		return c.Platform.ReconfigureCommand
	}
	return []string{"wpa_cli", "-i", c.Platform.Interface, "reconfigure"}
}

// DisconnectArgs returns the command that makes wpa_supplicant leave the access point.
func (c *Config) DisconnectArgs() []string {
	if len(c.Platform.DisconnectCommand) > 0 {
		return c.Platform.DisconnectCommand
	}
	return []string{"wpa_cli", "-i", c.Platform.Interface, "disconnect"}
}

// SupplicantConfigPath returns the wpa_supplicant configuration file for the interface.
func (c *Config) SupplicantConfigPath() string {
	if c.Platform.SupplicantConfig != "" {
		return c.Platform.SupplicantConfig
	}
	return fmt.Sprintf("/etc/wpa_supplicant/wpa_supplicant-%s.conf", c.Platform.Interface)
}
