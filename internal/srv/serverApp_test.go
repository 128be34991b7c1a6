package srv

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/device"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, overlay string) *config.ServerConfig {
	t.Helper()
	param, err := config.ParseServerParam([]byte(`
time_sync:
  servers: []
network:
  poll_interval: 1h
` + overlay))
	require.NoError(t, err)
	return &config.ServerConfig{ConfigDir: t.TempDir(), SimulationMode: true, ServerParam: param}
}

func memoryOpener(sink *device.MemorySink) PanelOpener {
	return func(param config.DisplayParam) (device.Panel, error) {
		return device.NewFramePanel(param.Width, param.Height, sink), nil
	}
}

func hasLitPixel(img image.Image) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				return true
			}
		}
	}
	return false
}

func TestStartWithoutDisplay(t *testing.T) {
	app, err := NewServerApp(newTestConfig(t, ""), func(config.DisplayParam) (device.Panel, error) {
		return nil, errors.New("no i2c bus")
	})
	require.NoError(t, err)

	app.Start(context.Background())

	assert.Nil(t, app.displayDevice)
	assert.Nil(t, app.refreshTask)
	assert.False(t, app.Status().DisplayOk)
	assert.ErrorIs(t, app.switchDisplay(context.Background()), device.ErrInit)

	assert.NoError(t, app.Stop(false))
}

func TestStartShowsSplashThenFarewell(t *testing.T) {
	sink := device.NewMemorySink()
	app, err := NewServerApp(newTestConfig(t, ""), memoryOpener(sink))
	require.NoError(t, err)
	app.splashHold = time.Hour

	app.Start(context.Background())

	require.NotNil(t, app.displayDevice)
	assert.NotNil(t, app.refreshTask)
	require.Equal(t, 1, sink.FrameCount())
	splash := sink.LastFrame()
	assert.True(t, hasLitPixel(splash))

	status := app.Status()
	assert.True(t, status.DisplayOk)
	assert.True(t, status.DisplayOn)
	assert.Equal(t, "clock", status.Strategy)
	assert.False(t, status.TimeValid)

	require.NoError(t, app.Stop(false))

	assert.Equal(t, 2, sink.FrameCount())
	assert.NotEqual(t, splash, sink.LastFrame())
	assert.True(t, sink.Halted())
	assert.True(t, sink.Closed())
}

func TestStaticStrategyIsDrawnBySplashOnly(t *testing.T) {
	sink := device.NewMemorySink()
	app, err := NewServerApp(newTestConfig(t, `
refresh:
  strategy: static
  label: hello
`), memoryOpener(sink))
	require.NoError(t, err)

	app.Start(context.Background())
	defer app.Stop(false)

	assert.Nil(t, app.refreshTask)
	assert.Equal(t, 1, sink.FrameCount())

	_, due := app.strategy.Compose(false)
	assert.False(t, due)
}

func TestPowerButton(t *testing.T) {
	sink := device.NewMemorySink()
	app, err := NewServerApp(newTestConfig(t, ""), memoryOpener(sink))
	require.NoError(t, err)
	app.splashHold = time.Hour
	halted := false
	app.requestHalt = func() { halted = true }

	app.Start(context.Background())
	defer app.Stop(false)

	ctx := context.Background()
	app.handleButton(ctx, event.ButtonEvent{ButtonId: event.POWER_BUTTON, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: 1})
	assert.False(t, app.displayDevice.IsOn())
	assert.True(t, sink.Halted())

	app.handleButton(ctx, event.ButtonEvent{ButtonId: event.POWER_BUTTON, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: 2})
	assert.True(t, app.displayDevice.IsOn())
	assert.False(t, sink.Halted())

	// a long press is not a switch
	app.handleButton(ctx, event.ButtonEvent{ButtonId: event.POWER_BUTTON, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: 8})
	assert.True(t, app.displayDevice.IsOn())
	assert.False(t, halted)

	app.handleButton(ctx, event.ButtonEvent{ButtonId: event.POWER_BUTTON, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: haltStepCount})
	assert.True(t, halted)
}

func TestApiSwitchThroughEventLoop(t *testing.T) {
	sink := device.NewMemorySink()
	app, err := NewServerApp(newTestConfig(t, `
api:
  enabled: true
  port: 18080
  api_key: secret
`), memoryOpener(sink))
	require.NoError(t, err)
	app.splashHold = time.Hour

	app.Start(context.Background())
	defer app.Stop(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/display/switch", nil).WithContext(ctx)
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	app.apiDevice.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, app.displayDevice.IsOn())
	assert.Contains(t, rec.Body.String(), `"display_on":false`)
}
