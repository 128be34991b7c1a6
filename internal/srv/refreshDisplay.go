package srv

import (
	"context"
	"github.com/jypelle/vekimon/internal/srv/device"
	"github.com/jypelle/vekimon/internal/srv/refresh"
	"github.com/jypelle/vekimon/internal/version"
	"github.com/sirupsen/logrus"
)

const farewellMessage = "See you!"

// splashContent is the startup frame. The static strategy is only ever
// drawn here.
func (s *ServerApp) splashContent() (refresh.Content, bool) {
	if !refresh.IsPeriodic(s.strategy) {
		content, _ := s.strategy.Compose(true)
		return content, true
	}
	return refresh.Content{
		Primary:   version.AppName,
		Secondary: "v" + version.AppVersion.String(),
		Label:     s.Refresh.Label,
	}, false
}

func (s *ServerApp) showSplash(ctx context.Context) {
	logrus.Debugf("Display splash")
	content, static := s.splashContent()

	err := s.displayDevice.WithLock(ctx, func(p device.Panel) error {
		return refresh.Render(p, content)
	})
	if err != nil {
		logrus.WithError(err).Warn("Unable to display splash")
		return
	}
	if static {
		s.strategy.Commit()
	}
}

func (s *ServerApp) showFarewell(ctx context.Context) {
	logrus.Debugf("Display farewell")
	err := s.displayDevice.WithLock(ctx, func(p device.Panel) error {
		return refresh.Render(p, refresh.Content{Primary: farewellMessage})
	})
	if err != nil {
		logrus.WithError(err).Warn("Unable to display farewell")
	}
}
