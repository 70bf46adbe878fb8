package cmd

import (
	"fmt"
	"os"

	"golang-wifista/internal/pkg/config"
	"golang-wifista/internal/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:           "golang-wifista",
	Short:         "golang-wifista brings up a Wi-Fi station interface and reports over TCP",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadConfig layers the config file and the environment on top of the built-in
// settings, validates the result and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvironment(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	logging.InitLogger(cfg.Logging)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML)")
}
