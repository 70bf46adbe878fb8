//go:build unit

package radio

import (
	"strings"
	"testing"

	"golang-wifista/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSupplicantConfig(t *testing.T) {
	creds := types.StationCredentials{SSID: "lab-net", Password: "secret123"}

	t.Run("WPA2Personal", func(t *testing.T) {
		content, err := renderSupplicantConfig(types.StationConfig{Credentials: creds, Auth: types.AuthWPA2Personal})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(content, "# Generated by golang-wifista\n"))
		assert.Contains(t, content, "\tssid=6c61622d6e6574\n")
		assert.Contains(t, content, "\tkey_mgmt=WPA-PSK\n")
		assert.Contains(t, content, "\tproto=RSN\n")
		assert.Contains(t, content, "\tpsk=\"secret123\"\n")
		assert.True(t, strings.HasSuffix(content, "}\n"))
	})

	t.Run("WPA3Personal", func(t *testing.T) {
		content, err := renderSupplicantConfig(types.StationConfig{Credentials: creds, Auth: types.AuthWPA3Personal})
		require.NoError(t, err)
		assert.Contains(t, content, "\tkey_mgmt=SAE\n")
		assert.Contains(t, content, "\tieee80211w=2\n")
		assert.Contains(t, content, "\tsae_password=\"secret123\"\n")
	})

	t.Run("OpenNetworkIgnoresPassword", func(t *testing.T) {
		content, err := renderSupplicantConfig(types.StationConfig{
			Credentials: types.StationCredentials{SSID: "guest"},
			Auth:        types.AuthNone,
		})
		require.NoError(t, err)
		assert.Contains(t, content, "\tkey_mgmt=NONE\n")
		assert.NotContains(t, content, "psk=")
	})

	t.Run("WEPUnsupported", func(t *testing.T) {
		_, err := renderSupplicantConfig(types.StationConfig{Credentials: creds, Auth: types.AuthWEP})
		assert.ErrorIs(t, err, ErrUnsupportedAuth)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		tests := []struct {
			name  string
			creds types.StationCredentials
		}{
			{"EmptySSID", types.StationCredentials{Password: "secret123"}},
			{"LongSSID", types.StationCredentials{SSID: strings.Repeat("x", 33), Password: "secret123"}},
			{"ShortPassphrase", types.StationCredentials{SSID: "lab-net", Password: "short"}},
			{"LongPassphrase", types.StationCredentials{SSID: "lab-net", Password: strings.Repeat("p", 64)}},
			{"QuoteInPassphrase", types.StationCredentials{SSID: "lab-net", Password: `secret"123`}},
			{"NewlineInPassphrase", types.StationCredentials{SSID: "lab-net", Password: "secret\n123"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := renderSupplicantConfig(types.StationConfig{Credentials: tt.creds, Auth: types.AuthWPA2Personal})
				assert.Error(t, err)
			})
		}
	})
}
