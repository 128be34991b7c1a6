//go:build !arm && !arm64

// Package simulation shows the display frames in a desktop window.
package simulation

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
	"image"
	"sync"
)

type Window struct {
	lock     sync.RWMutex
	lastImg  image.Image
	halted   bool
	blankImg image.Image

	simulationWindow *app.Window
}

// NewWindow opens a window twice the size of the simulated panel.
func NewWindow(width, height int) (*Window, error) {
	w := &Window{
		blankImg: image.NewGray(image.Rect(0, 0, width, height)),
	}
	w.lastImg = w.blankImg
	w.simulationWindow = app.NewWindow(
		app.Title("vekimon"),
		app.Size(unit.Px(float32(2*width)), unit.Px(float32(2*height))),
		app.MinSize(unit.Px(float32(width)), unit.Px(float32(height))),
	)
	go func() {
		if err := w.gioloop(); err != nil {
			logrus.Errorf("Simulation window closed: %v", err)
		}
	}()
	go app.Main()
	return w, nil
}

func (w *Window) Show(img image.Image) error {
	w.lock.Lock()
	w.lastImg = img
	w.halted = false
	w.lock.Unlock()
	w.simulationWindow.Invalidate()
	return nil
}

func (w *Window) Halt() error {
	w.lock.Lock()
	w.halted = true
	w.lock.Unlock()
	w.simulationWindow.Invalidate()
	return nil
}

func (w *Window) Close() error {
	w.simulationWindow.Close()
	return nil
}

func (w *Window) gioloop() error {
	var ops op.Ops
	for {
		e := <-w.simulationWindow.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			w.lock.RLock()
			shownImg := w.lastImg
			if w.halted {
				shownImg = w.blankImg
			}
			w.lock.RUnlock()

			img := widget.Image{Src: paint.NewImageOp(shownImg), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
