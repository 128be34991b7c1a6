package refresh

import (
	"context"
	"fmt"
	"github.com/jypelle/vekimon/internal/srv/device"
	"github.com/sirupsen/logrus"
	"image"
	"time"
)

type Task struct {
	display  *device.Display
	strategy Strategy
	period   time.Duration
}

func NewTask(display *device.Display, strategy Strategy, period time.Duration) *Task {
	return &Task{
		display:  display,
		strategy: strategy,
		period:   period,
	}
}

// Run draws a first frame, then wakes every period until ctx is done.
// Device faults never stop the loop.
func (t *Task) Run(ctx context.Context) error {
	if t.period <= 0 {
		return fmt.Errorf("invalid refresh period: %v", t.period)
	}
	logrus.Infof("Start refresh task (%s strategy, every %v)", t.strategy.Name(), t.period)

	t.step(ctx, true)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Stop refresh task")
			return nil
		case <-ticker.C:
			t.Step(ctx)
		}
	}
}

// Step runs one wake and reports whether a frame reached the display.
func (t *Task) Step(ctx context.Context) bool {
	return t.step(ctx, false)
}

func (t *Task) step(ctx context.Context, force bool) bool {
	content, due := t.strategy.Compose(force)
	if !due {
		return false
	}

	err := t.display.WithLock(ctx, func(p device.Panel) error {
		return Render(p, content)
	})
	if err != nil {
		if ctx.Err() == nil {
			logrus.WithError(err).WithField("strategy", t.strategy.Name()).Warn("Frame skipped")
		}
		return false
	}

	logrus.Debugf("Display %s frame: %s", t.strategy.Name(), content.Primary)
	t.strategy.Commit()
	return true
}

// Render draws one full frame. The caller holds the display lock.
func Render(p device.Panel, content Content) error {
	p.Clear()
	p.SetFont(device.SMALL_FONT)
	p.DrawText(device.NORTH_ANCHOR, content.Secondary)
	p.DrawText(device.SOUTH_ANCHOR, content.Label)
	p.SetFont(device.LARGE_FONT)
	p.DrawText(device.CENTER_ANCHOR, content.Primary)
	if content.Icon != nil {
		b := p.Bounds()
		p.DrawBitmap(image.Pt(b.Max.X-content.Icon.Bounds().Dx(), b.Min.Y), content.Icon)
	}
	return p.Flush()
}
