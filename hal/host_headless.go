package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the host runner.
type HeadlessConfig struct {
	// Hz is the rate at which the runner advances the clock and calls step.
	Hz int
	// Ticks stops the runner after that many periods. Zero runs until ctx
	// is done.
	Ticks uint64
	// IRQEvery raises IRQLine every IRQEvery periods. Zero disables it.
	IRQLine  Line
	IRQEvery uint64
}

// RunHeadless drives the clock and interrupt lines of a host HAL and calls
// step once per period.
func RunHeadless(ctx context.Context, h HAL, step func() error, cfg HeadlessConfig) error {
	hh, ok := h.(*hostHAL)
	if !ok {
		return fmt.Errorf("headless: unsupported HAL %T", h)
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 1000
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			hh.t.step(1)
			tick++
			if cfg.IRQEvery > 0 && tick%cfg.IRQEvery == 0 {
				hh.irq.raise(cfg.IRQLine)
			}
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
