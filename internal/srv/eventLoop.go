package srv

import (
	"context"
	"fmt"
	"github.com/jypelle/vekimon/internal/srv/device"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/sirupsen/logrus"
)

func (s *ServerApp) eventLoop(ctx context.Context) error {
	logrus.Infof("Start event loop")
	defer logrus.Infof("Stop event loop")

	var apiEvents <-chan event.ApiEvent
	if s.apiDevice != nil {
		apiEvents = s.apiDevice.EventChannel()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.internalEventChannel:
			switch data := ev.Data.(type) {
			case event.InternalEventSyncStateData:
				logrus.Debugf("Receive sync state event: %s", data.State)
				s.publishStatus()
			}
		case ev := <-apiEvents:
			switch ev.Data.(type) {
			case event.ApiEventDisplaySwitchData:
				ev.Result <- s.switchDisplay(ctx)
			default:
				ev.Result <- fmt.Errorf("unsupported api event %T", ev.Data)
			}
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d", ev.ButtonId, ev.ButtonEventType, ev.PressStepCount)
			s.handleButton(ctx, ev)
		}
	}
}

func (s *ServerApp) handleButton(ctx context.Context, ev event.ButtonEvent) {
	switch ev.ButtonId {
	case event.POWER_BUTTON:
		if ev.ButtonEventType == event.RELEASE_EVENT_TYPE && ev.PressStepCount < 5 {
			logrus.Debugf("Switch display on/off")
			if err := s.switchDisplay(ctx); err != nil {
				logrus.WithError(err).Warn("Unable to switch display")
			}
		} else if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == haltStepCount {
			logrus.Infof("See you!")
			s.requestHalt()
		}
	}
}

func (s *ServerApp) switchDisplay(ctx context.Context) error {
	if s.displayDevice == nil {
		return fmt.Errorf("%w: no display to switch", device.ErrInit)
	}
	on, err := s.displayDevice.Switch(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("Display switched %s", onOff(on))
	s.publishStatus()
	return nil
}

func (s *ServerApp) publishStatus() {
	if !s.publisherDevice.Enabled() {
		return
	}
	if err := s.publisherDevice.Publish(s.Status()); err != nil {
		logrus.WithError(err).Warn("Unable to publish status")
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
