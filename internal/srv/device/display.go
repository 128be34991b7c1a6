package device

import (
	"context"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"sync/atomic"
	"time"
)

var (
	ErrInit        = errors.New("display initialization failed")
	ErrDeviceFault = errors.New("display device fault")
	ErrLockTimeout = errors.New("display lock acquisition timed out")
)

// Display is the single shared display of the process. Every draw goes
// through WithLock; the lock covers one full clear, draw, flush sequence.
type Display struct {
	panel       Panel
	oledLock    *semaphore.Weighted
	lockTimeout time.Duration

	on atomic.Bool
}

// NewDisplay wraps panel. A zero lockTimeout makes WithLock wait forever.
func NewDisplay(panel Panel, lockTimeout time.Duration) *Display {
	d := &Display{
		panel:       panel,
		oledLock:    semaphore.NewWeighted(1),
		lockTimeout: lockTimeout,
	}
	d.on.Store(true)
	return d
}

// WithLock runs drawFn with exclusive access to the panel. The lock is
// released on every path, a panic in drawFn included.
func (d *Display) WithLock(ctx context.Context, drawFn func(p Panel) error) (err error) {
	acquireCtx := ctx
	if d.lockTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, d.lockTimeout)
		defer cancel()
	}

	if err := d.oledLock.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %v", ErrLockTimeout, d.lockTimeout)
	}
	defer d.oledLock.Release(1)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: recovered from panic: %v", ErrDeviceFault, rec)
		}
	}()

	return drawFn(switchedPanel{Panel: d.panel, display: d})
}

func (d *Display) Stop(ctx context.Context) {
	logrus.Infof("Stop display device")

	err := d.WithLock(ctx, func(p Panel) error {
		return errors.Join(d.panel.Halt(), d.panel.Close())
	})
	if err != nil {
		logrus.WithError(err).Warn("Unable to stop display cleanly")
	}
}

func (d *Display) SetOff(ctx context.Context) error {
	return d.WithLock(ctx, func(p Panel) error {
		return d.setOff()
	})
}

func (d *Display) setOff() error {
	d.on.Store(false)
	return d.panel.Halt()
}

func (d *Display) SetOn(ctx context.Context) error {
	return d.WithLock(ctx, func(p Panel) error {
		return d.setOn()
	})
}

// setOn shows the frame drawn while the display was off.
func (d *Display) setOn() error {
	d.on.Store(true)
	return d.panel.Flush()
}

// Switch toggles the display and returns the new state.
func (d *Display) Switch(ctx context.Context) (bool, error) {
	err := d.WithLock(ctx, func(p Panel) error {
		if d.on.Load() {
			return d.setOff()
		}
		return d.setOn()
	})
	return d.on.Load(), err
}

func (d *Display) IsOn() bool {
	return d.on.Load()
}

// switchedPanel keeps drawing into the frame buffer while the display is off
// but withholds the flush.
type switchedPanel struct {
	Panel
	display *Display
}

func (p switchedPanel) Flush() error {
	if !p.display.on.Load() {
		return nil
	}
	return p.Panel.Flush()
}
