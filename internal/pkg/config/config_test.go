//go:build unit

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("ValidConfig", func(t *testing.T) {
		configContent := `logging:
  level: debug
  format: simple

wifi:
  ssid: lab-net
  password: secret123
  auth: wpa2-personal

network:
  device_ip: 192.168.5.151
  gateway_ip: 192.168.4.1
  gateway_netmask: "22"

platform:
  interface: wlp2s0
  connect_timeout: 10s

telemetry:
  address: 10.0.0.2:9000
  interval: 2s
`
		configFile := filepath.Join(tempDir, "valid.yml")
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		config, err := Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "simple", config.Logging.Format)

		require.NotNil(t, config.WiFi.SSID)
		assert.Equal(t, "lab-net", *config.WiFi.SSID)
		require.NotNil(t, config.WiFi.Password)
		assert.Equal(t, "secret123", *config.WiFi.Password)

		require.NotNil(t, config.Network.GatewayNetmask)
		assert.Equal(t, "22", *config.Network.GatewayNetmask)
		assert.Equal(t, "192.168.5.151", *config.Network.DeviceIP)

		assert.Equal(t, "wlp2s0", config.Platform.Interface)
		assert.Equal(t, 10*time.Second, config.Platform.ConnectTimeout)
		// Untouched fields keep their defaults
		assert.Equal(t, 15*time.Second, config.Platform.DHCPTimeout)
		assert.Equal(t, "sta_fixed0", config.Network.StationKey)

		assert.Equal(t, "10.0.0.2:9000", config.Telemetry.Address)
		assert.Equal(t, 2*time.Second, config.Telemetry.Interval)
		assert.Equal(t, "hello world", config.Telemetry.Greeting)
	})

	t.Run("EmptyPathReturnsDefaults", func(t *testing.T) {
		config, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "wlan0", config.Platform.Interface)
		assert.Equal(t, "192.168.4.68:5433", config.Telemetry.Address)
		assert.Nil(t, config.WiFi.SSID)
		assert.Nil(t, config.Network.DeviceIP)
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		configContent := `invalid: yaml: content: [
`
		configFile := filepath.Join(tempDir, "invalid.yml")
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		_, err = Load(configFile)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestConfig_ApplyEnvironment(t *testing.T) {
	env := map[string]string{
		EnvSSID:     "lab-net",
		EnvPassword: "",
		EnvDeviceIP: "192.168.5.151",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	config := Default()
	config.Network.GatewayIP = strPtr("10.0.0.1")
	config.ApplyEnvironment(lookup)

	require.NotNil(t, config.WiFi.SSID)
	assert.Equal(t, "lab-net", *config.WiFi.SSID)

	// Set but empty is still provided
	require.NotNil(t, config.WiFi.Password)
	assert.Equal(t, "", *config.WiFi.Password)

	assert.Equal(t, "192.168.5.151", *config.Network.DeviceIP)

	// Unset variables leave earlier values alone
	assert.Equal(t, "10.0.0.1", *config.Network.GatewayIP)
	assert.Nil(t, config.Network.GatewayNetmask)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("MissingCredentialsAreNotAValidationError", func(t *testing.T) {
		config := Default()
		config.WiFi.SSID = nil
		config.WiFi.Password = nil
		assert.NoError(t, config.Validate())
	})

	t.Run("MissingInterface", func(t *testing.T) {
		config := Default()
		config.Platform.Interface = ""
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "interface name is required")
	})

	t.Run("UnknownAuthMethod", func(t *testing.T) {
		config := Default()
		config.WiFi.Auth = "wpa9"
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown auth method")
	})

	t.Run("SameDescriptorKeys", func(t *testing.T) {
		config := Default()
		config.Network.RouterKey = config.Network.StationKey
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must differ")
	})

	t.Run("InvalidTelemetryAddress", func(t *testing.T) {
		config := Default()
		config.Telemetry.Address = "192.168.4.68"
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry: invalid address")
	})

	t.Run("NonPositiveInterval", func(t *testing.T) {
		config := Default()
		config.Telemetry.Interval = 0
		err := config.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "interval must be positive")
	})
}

func TestConfig_SupplicantConfigPath(t *testing.T) {
	config := Default()
	assert.Equal(t, "/etc/wpa_supplicant/wpa_supplicant-wlan0.conf", config.SupplicantConfigPath())

	config.Platform.SupplicantConfig = "/tmp/wpa.conf"
	assert.Equal(t, "/tmp/wpa.conf", config.SupplicantConfigPath())
}

func TestConfig_CommandArgs(t *testing.T) {
	config := Default()
	config.Platform.Interface = "wlp2s0"
	assert.Equal(t, []string{"wpa_cli", "-i", "wlp2s0", "reconfigure"}, config.ReconfigureArgs())
	assert.Equal(t, []string{"wpa_cli", "-i", "wlp2s0", "disconnect"}, config.DisconnectArgs())

	config.Platform.ReconfigureCommand = []string{"systemctl", "restart", "wpa_supplicant@wlp2s0"}
	assert.Equal(t, "systemctl", config.ReconfigureArgs()[0])
}
