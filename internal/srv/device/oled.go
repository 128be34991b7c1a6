package device

import (
	"fmt"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/sirupsen/logrus"
	"image"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
	"time"
)

const defaultOledAddress = 0x3C

// OpenOled initializes a ssd1306 panel on an I²C bus. Every failure wraps ErrInit.
func OpenOled(param config.DisplayParam) (Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	if param.ResetPin != "" {
		if err := resetOled(param.ResetPin); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInit, err)
		}
	}

	// Open a handle to the i2c bus (first available when no name is given)
	i2cBus, err := i2creg.Open(param.Bus)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open i2c bus: %w", ErrInit, err)
	}

	address := param.Address
	if address == 0 {
		address = defaultOledAddress
	}

	opts := ssd1306.DefaultOpts
	opts.W = param.Width
	opts.H = param.Height

	oledDisplay, err := ssd1306.NewI2C(&addressedBus{BusCloser: i2cBus, addr: address}, &opts)
	if err != nil {
		i2cBus.Close()
		return nil, fmt.Errorf("%w: unable to initialize oled display: %w", ErrInit, err)
	}

	if err := oledDisplay.SetContrast(param.Contrast); err != nil {
		logrus.Warnf("Unable to set oled contrast: %v", err)
	}

	logrus.Infof("Oled display %dx%d ready on %s at 0x%02x", param.Width, param.Height, i2cBus, address)

	return NewFramePanel(param.Width, param.Height, &oledSink{
		oledDisplay: oledDisplay,
		i2cBus:      i2cBus,
		contrast:    param.Contrast,
	}), nil
}

func resetOled(pinName string) error {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return fmt.Errorf("failed to find reset pin %s", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to pull reset pin %s low: %w", pinName, err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to release reset pin %s: %w", pinName, err)
	}
	return nil
}

// addressedBus pins every transaction to the configured device address;
// the ssd1306 driver always talks to 0x3C.
type addressedBus struct {
	i2c.BusCloser
	addr uint16
}

func (b *addressedBus) Tx(addr uint16, w, r []byte) error {
	return b.BusCloser.Tx(b.addr, w, r)
}

type oledSink struct {
	oledDisplay *ssd1306.Dev
	i2cBus      i2c.BusCloser
	contrast    byte
	halted      bool
}

func (s *oledSink) Show(img image.Image) error {
	if s.halted {
		// Drawing alone does not wake a halted panel
		if err := s.oledDisplay.SetContrast(s.contrast); err != nil {
			return err
		}
		s.halted = false
	}
	return s.oledDisplay.Draw(s.oledDisplay.Bounds(), img, image.Point{})
}

func (s *oledSink) Halt() error {
	s.halted = true
	return s.oledDisplay.Halt()
}

func (s *oledSink) Close() error {
	return s.i2cBus.Close()
}
