// Package refresh renders periodic status frames on the shared display.
//
// A Task wakes at a fixed period and asks its Strategy for the content to
// show. The strategy decides whether a redraw is due; the task owns the
// display lock for the whole clear, draw, flush sequence and reports back
// to the strategy only when the frame reached the device.
package refresh

import (
	"fmt"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/status"
	"image"
	"time"
)

// Content is one frame worth of text.
type Content struct {
	// Primary is the main value, large font, centered.
	Primary string
	// Secondary is drawn in small font at the top.
	Secondary string
	// Label is drawn in small font at the bottom.
	Label string
	// Icon is drawn in the top right corner when set.
	Icon image.Image
}

type Strategy interface {
	Name() string
	// Compose returns the content to draw and whether a redraw is due.
	// force asks for the content even when nothing changed.
	Compose(force bool) (Content, bool)
	// Commit records that the last composed content reached the display.
	Commit()
}

// NewStrategy builds the strategy selected in param.
func NewStrategy(param config.RefreshParam, shared *status.Shared, clock func() time.Time) (Strategy, error) {
	switch param.Strategy {
	case config.CLOCK_STRATEGY:
		return NewClock(shared, clock, param.Label), nil
	case config.HEAP_STRATEGY:
		return NewHeap(NewRuntimeSampler(), param.Label), nil
	case config.STATIC_STRATEGY:
		return NewStatic(param.Label), nil
	}
	return nil, fmt.Errorf("unknown refresh strategy: %q", param.Strategy)
}

// IsPeriodic reports whether the strategy needs the periodic task at all.
func IsPeriodic(strategy Strategy) bool {
	_, static := strategy.(*Static)
	return !static
}
