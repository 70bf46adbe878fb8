// Package telemetry streams a liveness counter to a collector once the station is up.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"golang-wifista/internal/pkg/logging"
	"golang-wifista/internal/port"

	"github.com/sirupsen/logrus"
)

// ErrTransport is returned when the stream cannot be opened or written.
var ErrTransport = errors.New("telemetry transport failed")

// Config configures the reporter.
type Config struct {
	// Address is the host:port of the collector.
	Address string
	// Interval separates two counter lines. It is slept in two halves.
	Interval time.Duration
	// Greeting is the first line written after connecting.
	Greeting string
}

// Reporter writes a greeting followed by "count n" lines over a single TCP stream.
// It never reads from the stream and does not reconnect.
type Reporter struct {
	dialer  port.Dialer
	sleeper port.Sleeper
	cfg     Config
	sent    atomic.Uint64
}

// NewReporter creates a reporter. A nil sleeper uses timers.
func NewReporter(dialer port.Dialer, sleeper port.Sleeper, cfg Config) *Reporter {
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	return &Reporter{dialer: dialer, sleeper: sleeper, cfg: cfg}
}

// Sent returns the number of counter lines written so far.
func (r *Reporter) Sent() uint64 {
	return r.sent.Load()
}

// Run connects and writes until ctx is cancelled or the stream fails.
func (r *Reporter) Run(ctx context.Context) error {
	logger := logging.WithComponent("telemetry").WithField("address", r.cfg.Address)

	conn, err := r.dialer.DialContext(ctx, "tcp", r.cfg.Address)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: dial %s: %w", ErrTransport, r.cfg.Address, err)
	}
	defer conn.Close()

	// Unblocks a pending write on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger.Info("Connected to collector")

	if err := r.writeLine(ctx, conn, r.cfg.Greeting); err != nil {
		return err
	}

	half := r.cfg.Interval / 2
	for n := uint64(1); ; n++ {
		if err := r.sleeper.Sleep(ctx, half); err != nil {
			return err
		}
		if err := r.sleeper.Sleep(ctx, half); err != nil {
			return err
		}
		if err := r.writeLine(ctx, conn, fmt.Sprintf("count %d", n)); err != nil {
			return err
		}
		r.sent.Store(n)
		logger.WithFields(logrus.Fields{"count": n}).Debug("Sent counter")
	}
}

func (r *Reporter) writeLine(ctx context.Context, conn net.Conn, line string) error {
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: write: %w", ErrTransport, err)
	}
	return nil
}

// TimerSleeper implements the Sleeper port with runtime timers.
type TimerSleeper struct{}

// Ensure TimerSleeper implements the Sleeper port
var _ port.Sleeper = TimerSleeper{}

// Sleep blocks for d or until ctx is done.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
