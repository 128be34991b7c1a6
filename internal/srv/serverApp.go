package srv

import (
	"context"
	"errors"
	"fmt"
	"github.com/jypelle/vekimon/apimodel"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/device"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/jypelle/vekimon/internal/srv/refresh"
	"github.com/jypelle/vekimon/internal/srv/status"
	"github.com/jypelle/vekimon/internal/srv/timesync"
	"github.com/jypelle/vekimon/internal/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"os/exec"
	"syscall"
	"time"
)

const (
	defaultSplashHold = 2 * time.Second
	farewellTimeout   = 3 * time.Second
	haltStepCount     = 20
)

// PanelOpener opens the display hardware (or its simulation).
type PanelOpener func(param config.DisplayParam) (device.Panel, error)

type ServerApp struct {
	*config.ServerConfig
	shared *status.Shared

	// displayDevice stays nil when the panel could not be opened
	displayDevice   *device.Display
	networkDevice   *device.Network
	buttonsDevice   *device.Buttons
	apiDevice       *device.Api
	publisherDevice *device.Publisher

	ntpClient   *timesync.NtpClient
	coordinator *timesync.Coordinator
	strategy    refresh.Strategy
	refreshTask *refresh.Task
	heapSampler refresh.HeapSampler

	openPanel   PanelOpener
	splashHold  time.Duration
	requestHalt func()

	internalEventChannel chan event.InternalEvent

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewServerApp(serverConfig *config.ServerConfig, openPanel PanelOpener) (*ServerApp, error) {
	logrus.Debugf("Creation of %s server %s ...", version.AppName, version.AppVersion)

	app := &ServerApp{
		ServerConfig:         serverConfig,
		shared:               status.NewShared(),
		openPanel:            openPanel,
		splashHold:           defaultSplashHold,
		heapSampler:          refresh.NewRuntimeSampler(),
		internalEventChannel: make(chan event.InternalEvent, 8),
		requestHalt: func() {
			syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
		},
	}

	app.ntpClient = timesync.NewNtpClient(serverConfig.TimeSync)

	strategy, err := refresh.NewStrategy(serverConfig.Refresh, app.shared, app.ntpClient.Now)
	if err != nil {
		return nil, err
	}
	app.strategy = strategy

	app.coordinator = timesync.NewCoordinator(
		serverConfig.TimeSync,
		app.shared,
		timesync.NewZoneResolver(),
		app.ntpClient,
		timesync.NewClock(app.ntpClient.Now),
	)
	app.coordinator.OnStateChange = func(state timesync.State) {
		select {
		case app.internalEventChannel <- event.InternalEvent{Data: event.InternalEventSyncStateData{State: state.String()}}:
		default:
			logrus.Debugf("Event loop busy, sync state %s not forwarded", state)
		}
	}

	app.networkDevice = device.NewNetwork(serverConfig.Network, serverConfig.SimulationMode)
	app.buttonsDevice = device.NewButtons(serverConfig.Buttons, serverConfig.SimulationMode)
	if serverConfig.ApiParam.Enabled {
		app.apiDevice = device.NewApi(serverConfig.ApiParam, serverConfig.ConfigDir, app.Status)
	}
	app.publisherDevice = device.NewPublisher(serverConfig.Mqtt)

	logrus.Debugln("Server created")

	return app, nil
}

// Start opens the display, draws the splash and launches every task. A
// display that cannot be opened disables the refresh task only.
func (s *ServerApp) Start(ctx context.Context) {
	logrus.Printf("Starting %s server ...", version.AppName)

	panel, err := s.openPanel(s.Display)
	if err != nil {
		if !errors.Is(err, device.ErrInit) {
			err = fmt.Errorf("%w: %w", device.ErrInit, err)
		}
		logrus.WithError(err).Error("Display disabled")
	} else {
		logrus.Infof("Start display device")
		s.displayDevice = device.NewDisplay(panel, s.Display.LockTimeout)
		s.showSplash(ctx)
		if refresh.IsPeriodic(s.strategy) {
			s.refreshTask = refresh.NewTask(s.displayDevice, s.strategy, s.Refresh.EffectivePeriod())
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.group, runCtx = errgroup.WithContext(runCtx)

	logrus.Printf("Starting devices ...")

	if s.refreshTask != nil {
		s.group.Go(func() error {
			select {
			case <-runCtx.Done():
				return nil
			case <-time.After(s.splashHold):
			}
			return s.refreshTask.Run(runCtx)
		})
	}

	// Subscribe before the notifier runs so present addresses are not missed
	connectivity := s.networkDevice.Subscribe()
	s.group.Go(func() error {
		return s.coordinator.Run(runCtx, connectivity)
	})
	s.group.Go(func() error {
		return s.networkDevice.Run(runCtx)
	})
	s.group.Go(func() error {
		return s.buttonsDevice.Run(runCtx)
	})
	if s.apiDevice != nil {
		s.group.Go(func() error {
			return s.apiDevice.Run(runCtx)
		})
	}
	s.group.Go(func() error {
		return s.publisherDevice.Run(runCtx)
	})
	s.group.Go(func() error {
		return s.eventLoop(runCtx)
	})
}

// Stop cancels every task, shows the farewell frame and releases the display.
func (s *ServerApp) Stop(halt bool) error {
	logrus.Printf("Stopping %s server ...", version.AppName)

	var err error
	if s.group != nil {
		s.cancel()
		err = s.group.Wait()
	}

	if s.displayDevice != nil {
		ctx, cancel := context.WithTimeout(context.Background(), farewellTimeout)
		s.showFarewell(ctx)
		s.displayDevice.Stop(ctx)
		cancel()
	}

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		if haltErr := haltCmd.Run(); haltErr != nil {
			return errors.Join(err, fmt.Errorf("unable to halt the system: %w", haltErr))
		}
	}
	return err
}

// Status is the snapshot served by the api and published over mqtt.
func (s *ServerApp) Status() apimodel.Status {
	st := apimodel.Status{
		Version:     version.AppVersion.String(),
		Strategy:    s.strategy.Name(),
		TimeValid:   s.shared.TimeValid(),
		SyncState:   s.shared.SyncState(),
		Timezone:    s.TimeSync.Timezone,
		DisplayOk:   s.displayDevice != nil,
		FreeHeapKiB: s.heapSampler.FreeHeap(),
	}
	if ip := s.shared.Address(); ip != nil {
		st.Address = ip.String()
	}
	if s.displayDevice != nil {
		st.DisplayOn = s.displayDevice.IsOn()
	}
	if st.TimeValid {
		st.LocalTime = s.ntpClient.Now().In(s.shared.Location()).Format(time.RFC3339)
	}
	return st
}
