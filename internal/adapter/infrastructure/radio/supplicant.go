// Package radio provides the platform implementations of the Radio port.
package radio

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang-wifista/internal/types"
)

// ErrUnsupportedAuth is returned when the platform cannot join with the requested auth method.
var ErrUnsupportedAuth = errors.New("unsupported auth method")

const supplicantHeader = `# Generated by golang-wifista
ctrl_interface=DIR=/run/wpa_supplicant
update_config=0
`

// renderSupplicantConfig returns a wpa_supplicant configuration with a single network block.
// The SSID is hex encoded so that any byte sequence survives.
func renderSupplicantConfig(cfg types.StationConfig) (string, error) {
	ssid := cfg.Credentials.SSID
	if ssid == "" {
		return "", errors.New("ssid is empty")
	}
	if len(ssid) > 32 {
		return "", fmt.Errorf("ssid is %d bytes, at most 32 are allowed", len(ssid))
	}

	var lines []string
	switch cfg.Auth {
	case types.AuthNone:
		lines = append(lines, "key_mgmt=NONE")
	case types.AuthWPA, types.AuthWPA2Personal, types.AuthWPAWPA2Personal:
		if err := validatePassphrase(cfg.Credentials.Password); err != nil {
			return "", err
		}
		proto := map[types.AuthMethod]string{
			types.AuthWPA:             "WPA",
			types.AuthWPA2Personal:    "RSN",
			types.AuthWPAWPA2Personal: "WPA RSN",
		}[cfg.Auth]
		lines = append(lines,
			"key_mgmt=WPA-PSK",
			"proto="+proto,
			fmt.Sprintf("psk=%q", cfg.Credentials.Password),
		)
	case types.AuthWPA3Personal:
		if err := validatePassphrase(cfg.Credentials.Password); err != nil {
			return "", err
		}
		lines = append(lines,
			"key_mgmt=SAE",
			"ieee80211w=2",
			fmt.Sprintf("sae_password=%q", cfg.Credentials.Password),
		)
	case types.AuthWPA2WPA3Personal:
		if err := validatePassphrase(cfg.Credentials.Password); err != nil {
			return "", err
		}
		lines = append(lines,
			"key_mgmt=WPA-PSK SAE",
			"ieee80211w=1",
			fmt.Sprintf("psk=%q", cfg.Credentials.Password),
		)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAuth, cfg.Auth)
	}

	var b strings.Builder
	b.WriteString(supplicantHeader)
	b.WriteString("\nnetwork={\n")
	b.WriteString("\tssid=" + hex.EncodeToString([]byte(ssid)) + "\n")
	b.WriteString("\tscan_ssid=1\n")
	for _, line := range lines {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// validatePassphrase enforces the 802.11i passphrase rules: 8 to 63 printable ASCII characters.
func validatePassphrase(p string) error {
	if len(p) < 8 || len(p) > 63 {
		return fmt.Errorf("passphrase must be 8 to 63 characters, got %d", len(p))
	}
	for _, r := range p {
		if r < 0x20 || r > 0x7e || r == '"' {
			return errors.New("passphrase contains a character that cannot be written to the supplicant configuration")
		}
	}
	return nil
}
