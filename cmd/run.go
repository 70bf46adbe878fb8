package cmd

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-wifista/internal/adapter/dhcp"
	"golang-wifista/internal/adapter/infrastructure/command"
	infraDhcp "golang-wifista/internal/adapter/infrastructure/dhcp"
	"golang-wifista/internal/adapter/infrastructure/file"
	"golang-wifista/internal/adapter/infrastructure/network"
	"golang-wifista/internal/adapter/infrastructure/radio"
	"golang-wifista/internal/adapter/station"
	"golang-wifista/internal/adapter/telemetry"
	"golang-wifista/internal/pkg/config"
	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/pkg/version"
	"golang-wifista/internal/port"
	"golang-wifista/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const teardownTimeout = 10 * time.Second

// createRadio creates the Linux radio for the configured wireless interface
func createRadio(cfg *config.Config) *radio.LinuxRadio {
	return radio.NewLinuxRadio(radio.LinuxOptions{
		Interface:          cfg.Platform.Interface,
		SupplicantConfig:   cfg.SupplicantConfigPath(),
		ReconfigureCommand: cfg.ReconfigureArgs(),
		DisconnectCommand:  cfg.DisconnectArgs(),
		ConnectTimeout:     cfg.Platform.ConnectTimeout,
		DHCP: dhcp.Options{
			Timeout:    cfg.Platform.DHCPTimeout,
			ResolvConf: cfg.Platform.ResolvConf,
		},
	},
		network.NewManagerAdapter(),
		file.NewManagerAdapter(),
		command.NewRunnerAdapter(),
		infraDhcp.NewClientAdapter(cfg.Platform.Hostname),
	)
}

// runStation resolves the configuration, brings the station up and streams telemetry
// until ctx is cancelled. The interface is torn down before returning.
func runStation(ctx context.Context, cfg *config.Config, r port.Radio, dialer port.Dialer, sleeper port.Sleeper) error {
	logger := logging.WithComponent("daemon")

	resolver := config.NewResolver(cfg)
	stationCfg, err := resolver.ResolveStationConfig(ctx)
	if err != nil {
		return err
	}
	static := resolver.ResolveStaticConfig()

	controller := station.NewController(r, stationCfg, static,
		station.WithDescriptorKeys(cfg.Network.StationKey, cfg.Network.RouterKey),
		station.WithTransitionHook(func(from, to types.InterfaceState) {
			logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Info("Station state changed")
		}),
	)

	if err := controller.BringUp(ctx); err != nil {
		return errors.Join(err, tearDown(controller))
	}

	reporter := telemetry.NewReporter(dialer, sleeper, telemetry.Config{
		Address:  cfg.Telemetry.Address,
		Interval: cfg.Telemetry.Interval,
		Greeting: cfg.Telemetry.Greeting,
	})
	runErr := reporter.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, tearDown(controller))
}

// tearDown brings the interface down when the controller got past configuration.
func tearDown(controller *station.Controller) error {
	switch controller.State() {
	case types.StateUnconfigured, types.StateConfigured, types.StateDown:
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := controller.TearDown(ctx); err != nil {
		logging.WithComponent("daemon").WithError(err).Error("Teardown failed")
		return err
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring up the station interface and stream the counter to the collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := logging.GetLogger()
		logger.WithFields(logrus.Fields{
			"config_file": configFlag,
			"version":     version.String(),
			"interface":   cfg.Platform.Interface,
		}).Info("Starting daemon")

		// Create context for graceful shutdown
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case sig := <-sigChan:
				logger.WithField("signal", sig.String()).Info("Received shutdown signal")
				cancel()
			case <-ctx.Done():
			}
		}()

		err = runStation(ctx, cfg, createRadio(cfg), &net.Dialer{}, telemetry.TimerSleeper{})
		if err != nil {
			return err
		}
		logger.Info("Daemon stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
