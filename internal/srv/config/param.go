package config

import (
	_ "embed"
	"fmt"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

const (
	CLOCK_STRATEGY  = "clock"
	HEAP_STRATEGY   = "heap"
	STATIC_STRATEGY = "static"
)

type ServerParam struct {
	Display  DisplayParam  `yaml:"display"`
	Refresh  RefreshParam  `yaml:"refresh"`
	TimeSync TimeSyncParam `yaml:"time_sync"`
	Network  NetworkParam  `yaml:"network"`
	Buttons  ButtonsParam  `yaml:"buttons"`
	ApiParam ApiParam      `yaml:"api"`
	Mqtt     MqttParam     `yaml:"mqtt"`
}

type DisplayParam struct {
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Bus         string        `yaml:"bus"`
	Address     uint16        `yaml:"address"`
	ResetPin    string        `yaml:"reset_pin"`
	Contrast    byte          `yaml:"contrast"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type RefreshParam struct {
	Strategy string        `yaml:"strategy"`
	Period   time.Duration `yaml:"period"`
	Label    string        `yaml:"label"`
}

// EffectivePeriod falls back to the strategy's natural period when none is set.
func (p RefreshParam) EffectivePeriod() time.Duration {
	if p.Period > 0 {
		return p.Period
	}
	switch p.Strategy {
	case HEAP_STRATEGY:
		return 10 * time.Second
	case CLOCK_STRATEGY:
		return 300 * time.Millisecond
	}
	return 0
}

type TimeSyncParam struct {
	Timezone     string        `yaml:"timezone"`
	Servers      []string      `yaml:"servers"`
	PollInterval time.Duration `yaml:"poll_interval"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	WaitInterval time.Duration `yaml:"wait_interval"`
	WaitAttempts int           `yaml:"wait_attempts"`
	MinValidYear int           `yaml:"min_valid_year"`
}

type NetworkParam struct {
	Interface    string        `yaml:"interface"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type ButtonsParam struct {
	PowerPin string `yaml:"power_pin"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	Port    int64  `yaml:"port"`
	ApiKey  string `yaml:"api_key"`
	// Tls serves https with a self-signed certificate kept in the config folder
	Tls bool `yaml:"tls"`
}

type MqttParam struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientId string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func (sp *ServerParam) Validate() error {
	if sp.Display.Width <= 0 || sp.Display.Height <= 0 {
		return fmt.Errorf("invalid display geometry %dx%d", sp.Display.Width, sp.Display.Height)
	}
	if sp.Display.LockTimeout < 0 {
		return fmt.Errorf("invalid display lock timeout: %v", sp.Display.LockTimeout)
	}
	switch sp.Refresh.Strategy {
	case CLOCK_STRATEGY, HEAP_STRATEGY, STATIC_STRATEGY:
	default:
		return fmt.Errorf("unknown refresh strategy: %q", sp.Refresh.Strategy)
	}
	if sp.Refresh.Period < 0 {
		return fmt.Errorf("invalid refresh period: %v", sp.Refresh.Period)
	}
	if sp.TimeSync.WaitInterval <= 0 {
		return fmt.Errorf("invalid time sync wait interval: %v", sp.TimeSync.WaitInterval)
	}
	if sp.TimeSync.WaitAttempts <= 0 {
		return fmt.Errorf("invalid time sync wait attempts: %d", sp.TimeSync.WaitAttempts)
	}
	if sp.TimeSync.PollInterval <= 0 {
		return fmt.Errorf("invalid time sync poll interval: %v", sp.TimeSync.PollInterval)
	}
	if sp.Network.PollInterval <= 0 {
		return fmt.Errorf("invalid network poll interval: %v", sp.Network.PollInterval)
	}
	if sp.ApiParam.Enabled && (sp.ApiParam.Port <= 0 || sp.ApiParam.Port > 65535) {
		return fmt.Errorf("invalid api port: %d", sp.ApiParam.Port)
	}
	if sp.Mqtt.Enabled && sp.Mqtt.Broker == "" {
		return fmt.Errorf("mqtt enabled without broker")
	}
	return nil
}
