//go:build rp2040 || rp2350

// Command wifista-pico runs the station bring-up on a Raspberry Pi Pico W.
// Settings are injected at build time, e.g.
//
//	tinygo flash -target=pico-w -ldflags "-X golang-wifista/internal/pkg/config.buildSSID=lab-net" ./cmd/wifista-pico
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"golang-wifista/internal/adapter/infrastructure/radio"
	"golang-wifista/internal/adapter/station"
	"golang-wifista/internal/adapter/telemetry"
	"golang-wifista/internal/pkg/config"
	"golang-wifista/internal/pkg/logging"
)

func main() {
	// Give the USB serial console time to attach.
	time.Sleep(2 * time.Second)

	cfg := config.Default()
	logging.InitLogger(cfg.Logging)
	logger := logging.WithComponent("main")
	ctx := context.Background()

	// Never returns when the credentials are missing.
	resolver := config.NewResolver(cfg)
	stationCfg, err := resolver.ResolveStationConfig(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Unable to resolve station configuration")
	}

	r := radio.NewPicoRadio(radio.PicoOptions{
		Hostname: cfg.Platform.Hostname,
		Logger:   slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo})),
	})
	controller := station.NewController(r, stationCfg, resolver.ResolveStaticConfig(),
		station.WithDescriptorKeys(cfg.Network.StationKey, cfg.Network.RouterKey))

	if err := controller.BringUp(ctx); err != nil {
		logger.WithError(err).Fatal("Station bring-up failed")
	}

	reporter := telemetry.NewReporter(r, nil, telemetry.Config{
		Address:  cfg.Telemetry.Address,
		Interval: cfg.Telemetry.Interval,
		Greeting: cfg.Telemetry.Greeting,
	})
	if err := reporter.Run(ctx); err != nil {
		logger.WithError(err).Fatal("Telemetry stopped")
	}
}
