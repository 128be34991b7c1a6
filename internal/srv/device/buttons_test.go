package device

import (
	"context"
	"testing"
	"time"

	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type fakePin struct {
	level gpio.Level
}

func (p *fakePin) Read() gpio.Level {
	return p.level
}

func TestButtonPressAndRelease(t *testing.T) {
	pin := &fakePin{level: gpio.High}
	button := &Button{buttonId: event.POWER_BUTTON, pin: pin}
	events := make(chan event.ButtonEvent, 10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	button.Refresh(now, events)
	assert.Len(t, events, 0)

	// pulled low while pressed
	pin.level = gpio.Low
	button.Refresh(now, events)
	button.Refresh(now.Add(50*time.Millisecond), events)
	button.Refresh(now.Add(200*time.Millisecond), events)
	require.Len(t, events, 2)
	ev := <-events
	assert.Equal(t, event.PRESS_EVENT_TYPE, ev.ButtonEventType)
	assert.Equal(t, int64(1), ev.PressStepCount)
	ev = <-events
	assert.Equal(t, int64(2), ev.PressStepCount)

	pin.level = gpio.High
	button.Refresh(now.Add(210*time.Millisecond), events)
	require.Len(t, events, 1)
	ev = <-events
	assert.Equal(t, event.RELEASE_EVENT_TYPE, ev.ButtonEventType)
	assert.Equal(t, int64(2), ev.PressStepCount)
	assert.Equal(t, event.POWER_BUTTON, ev.ButtonId)
}

func TestButtonsWithoutPinWaitForContext(t *testing.T) {
	buttons := NewButtons(config.ButtonsParam{}, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.NoError(t, buttons.Run(ctx))
}
