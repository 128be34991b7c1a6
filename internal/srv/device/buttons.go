package device

import (
	"context"
	"fmt"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"time"
)

const (
	buttonStep  = 160 * time.Millisecond
	buttonCheck = 5 * time.Millisecond
)

// levelReader is the part of gpio.PinIO the buttons need.
type levelReader interface {
	Read() gpio.Level
}

type Button struct {
	buttonId       event.ButtonId
	pin            levelReader
	isPressed      bool
	pressStepCount int64
	lastChange     time.Time
}

func NewButton(buttonId event.ButtonId, name string) (*Button, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find %s button", name)
	}

	// Set it as input, with an internal pull up resistor:
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to setup %s button: %w", name, err)
	}
	return &Button{buttonId: buttonId, pin: pin}, nil
}

// Refresh emits a press event every step while held and a release event with the step count.
func (b *Button) Refresh(now time.Time, buttonEventChannel chan<- event.ButtonEvent) {
	wasPressed := b.isPressed
	b.isPressed = bool(!b.pin.Read())

	if !b.isPressed && wasPressed {
		b.lastChange = now
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: b.pressStepCount}
		b.pressStepCount = 0
	} else if b.isPressed && b.lastChange.Add(buttonStep).Before(now) {
		b.lastChange = now
		b.pressStepCount++
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: b.pressStepCount}
	}
}

type Buttons struct {
	param          config.ButtonsParam
	simulationMode bool
	eventChannel   chan event.ButtonEvent

	buttons []*Button
}

func NewButtons(param config.ButtonsParam, simulationMode bool) *Buttons {
	return &Buttons{
		param:          param,
		simulationMode: simulationMode,
		eventChannel:   make(chan event.ButtonEvent),
	}
}

// Run polls the buttons until ctx is done. Without a configured pin it only waits.
func (d *Buttons) Run(ctx context.Context) error {
	logrus.Infof("Start buttons device")
	defer logrus.Infof("Stop buttons device")

	if !d.simulationMode && d.param.PowerPin != "" {
		if _, err := host.Init(); err != nil {
			logrus.Errorf("Unable to initialize gpio: %v", err)
		} else if button, err := NewButton(event.POWER_BUTTON, d.param.PowerPin); err != nil {
			logrus.Errorf("Power button disabled: %v", err)
		} else {
			d.buttons = append(d.buttons, button)
		}
	}

	if len(d.buttons) == 0 {
		<-ctx.Done()
		return nil
	}

	checkTicker := time.NewTicker(buttonCheck)
	defer checkTicker.Stop()

	events := make(chan event.ButtonEvent, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-checkTicker.C:
			for _, button := range d.buttons {
				button.Refresh(now, events)
				select {
				case ev := <-events:
					select {
					case d.eventChannel <- ev:
					case <-ctx.Done():
						return nil
					}
				default:
				}
			}
		}
	}
}

func (d *Buttons) EventChannel() <-chan event.ButtonEvent {
	return d.eventChannel
}
