package cmd

import (
	"context"
	"fmt"
	"io"

	"golang-wifista/internal/pkg/config"

	"github.com/spf13/cobra"
)

// printResolved writes the configuration the daemon would bring the station up with.
// Missing credentials are reported instead of halting.
func printResolved(w io.Writer, cfg *config.Config) error {
	resolver := config.NewResolver(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stationCfg, err := resolver.ResolveStationConfig(ctx)
	if err != nil {
		return fmt.Errorf("station credentials: %w", err)
	}

	fmt.Fprintf(w, "Interface: %s\n", cfg.Platform.Interface)
	fmt.Fprintf(w, "SSID: %s\n", stationCfg.Credentials.SSID)
	fmt.Fprintf(w, "Auth: %s\n", stationCfg.Auth)
	fmt.Fprintf(w, "Password: %d characters\n", len(stationCfg.Credentials.Password))

	if static := resolver.ResolveStaticConfig(); static != nil {
		fmt.Fprintf(w, "Addressing: fixed %s via %s\n", static.Prefix(), static.Gateway.IP)
	} else {
		fmt.Fprintln(w, "Addressing: dhcp")
	}
	fmt.Fprintf(w, "Telemetry: %s every %s\n", cfg.Telemetry.Address, cfg.Telemetry.Interval)
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve and print the station configuration without touching the radio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printResolved(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
