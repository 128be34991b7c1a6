//go:build arm || arm64

package simulation

import (
	"errors"
	"image"
)

type Window struct{}

func NewWindow(width, height int) (*Window, error) {
	return nil, errors.New("simulation window not available on this platform")
}

func (w *Window) Show(img image.Image) error {
	return nil
}

func (w *Window) Halt() error {
	return nil
}

func (w *Window) Close() error {
	return nil
}
