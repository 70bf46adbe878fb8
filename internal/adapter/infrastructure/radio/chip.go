package radio

import (
	"fmt"
	"log/slog"
	"time"
)

// statusLED is the chip GPIO wired to the on-board LED of the Pico W.
const statusLED = 0

// chipControl drives the LED and the reset line of the wireless chip.
type chipControl interface {
	GPIOSet(wlGPIO uint8, value bool) error
	Reset()
}

// nic moves raw Ethernet frames to and from the wireless chip.
type nic interface {
	PollOne() (bool, error)
	SendEth(frame []byte) error
}

// frameSource fills outgoing frames from the IP stack.
type frameSource interface {
	HandleEth(dst []byte) (int, error)
}

// powerDown turns the status LED off and resets the chip. The reset runs even when the LED fails.
func powerDown(chip chipControl) error {
	err := chip.GPIOSet(statusLED, false)
	chip.Reset()
	if err != nil {
		return fmt.Errorf("status led off: %w", err)
	}
	return nil
}

const (
	pumpSlots     = 3
	pumpMaxResend = 3
	pumpIdle      = 51 * time.Millisecond
)

// pumpFrames moves frames between the chip and the stack until stop is closed.
// Frames the chip refuses are retried pumpMaxResend times before they are dropped.
func pumpFrames(dev nic, stack frameSource, frameSize int, stop <-chan struct{}, log *slog.Logger) {
	var (
		frames  [pumpSlots][]byte
		sizes   [pumpSlots]int
		resends [pumpSlots]int
	)
	for i := range frames {
		frames[i] = make([]byte, frameSize)
	}
	for {
		select {
		case <-stop:
			log.Debug("packet loop stopped")
			return
		default:
		}

		received, err := dev.PollOne()
		if err != nil {
			log.Error("poll chip", slog.String("err", err.Error()))
		}

		pending := false
		for i := range frames {
			if resends[i] == 0 {
				sizes[i], err = stack.HandleEth(frames[i])
				if err != nil {
					log.Error("stack handle", slog.String("err", err.Error()))
					sizes[i] = 0
				}
			}
			pending = pending || sizes[i] > 0
		}
		if !pending {
			if !received {
				time.Sleep(pumpIdle)
			}
			continue
		}

		for i := range frames {
			if sizes[i] == 0 {
				continue
			}
			err := dev.SendEth(frames[i][:sizes[i]])
			if err == nil || resends[i] >= pumpMaxResend {
				if err != nil {
					log.Warn("dropped outgoing frame", slog.Int("len", sizes[i]), slog.String("err", err.Error()))
				}
				sizes[i], resends[i] = 0, 0
				continue
			}
			resends[i]++
		}
	}
}
