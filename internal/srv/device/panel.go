package device

import (
	"fmt"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
)

type FontClass int

const (
	SMALL_FONT FontClass = iota
	LARGE_FONT
)

type Anchor int

const (
	NORTH_ANCHOR Anchor = iota
	CENTER_ANCHOR
	SOUTH_ANCHOR
)

// Panel is the display handle. Calls are synchronous and not reentrant:
// callers go through Display.WithLock.
type Panel interface {
	Bounds() image.Rectangle
	Clear()
	SetFont(fontClass FontClass)
	DrawText(anchor Anchor, text string)
	DrawBitmap(at image.Point, img image.Image)
	Flush() error
	Halt() error
	Close() error
}

// Sink receives complete frames from a FramePanel.
type Sink interface {
	Show(img image.Image) error
	Halt() error
	Close() error
}

var (
	black = image.NewUniform(color.Gray{Y: 0})
	white = image.NewUniform(color.Gray{Y: 255})
)

// FramePanel draws into an in-memory gray frame and hands it to its sink on Flush.
type FramePanel struct {
	frame *image.Gray
	face  font.Face
	sink  Sink
}

func NewFramePanel(width, height int, sink Sink) *FramePanel {
	return &FramePanel{
		frame: image.NewGray(image.Rect(0, 0, width, height)),
		face:  FaceFor(SMALL_FONT),
		sink:  sink,
	}
}

func (p *FramePanel) Bounds() image.Rectangle {
	return p.frame.Bounds()
}

func (p *FramePanel) Clear() {
	draw.Draw(p.frame, p.frame.Bounds(), black, image.Point{}, draw.Src)
}

func (p *FramePanel) SetFont(fontClass FontClass) {
	p.face = FaceFor(fontClass)
}

func (p *FramePanel) DrawText(anchor Anchor, text string) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  p.frame,
		Src:  white,
		Face: p.face,
		Dot:  AnchoredDot(p.face, p.frame.Bounds(), anchor, text),
	}
	d.DrawString(text)
}

func (p *FramePanel) DrawBitmap(at image.Point, img image.Image) {
	b := img.Bounds()
	draw.Draw(p.frame, b.Sub(b.Min).Add(at), img, b.Min, draw.Over)
}

// Flush hands a copy of the frame to the sink, which may keep it.
func (p *FramePanel) Flush() error {
	snapshot := image.NewGray(p.frame.Bounds())
	copy(snapshot.Pix, p.frame.Pix)
	if err := p.sink.Show(snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceFault, err)
	}
	return nil
}

func (p *FramePanel) Halt() error {
	if err := p.sink.Halt(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceFault, err)
	}
	return nil
}

func (p *FramePanel) Close() error {
	return p.sink.Close()
}

// AnchoredDot returns the baseline origin placing text horizontally centered
// in bounds, vertically at the anchor.
func AnchoredDot(face font.Face, bounds image.Rectangle, anchor Anchor, text string) fixed.Point26_6 {
	width := font.MeasureString(face, text).Ceil()
	x := bounds.Min.X + (bounds.Dx()-width)/2
	if x < bounds.Min.X {
		x = bounds.Min.X
	}

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()

	var y int
	switch anchor {
	case NORTH_ANCHOR:
		y = bounds.Min.Y + ascent
	case SOUTH_ANCHOR:
		y = bounds.Max.Y - descent
	default:
		y = bounds.Min.Y + (bounds.Dy()-ascent-descent)/2 + ascent
	}
	return fixed.P(x, y)
}
