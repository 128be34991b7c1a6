package device

import (
	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
)

const largeFontSize = 26

var smallFace font.Face = bitmapfont.Face

var largeFace font.Face

func init() {
	f, err := opentype.Parse(gomonobold.TTF)
	if err != nil {
		logrus.Panicf("Can't load large font: %v", err)
	}
	largeFace, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    largeFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		logrus.Panicf("Can't create large font face: %v", err)
	}
}

// FaceFor maps a content class to its face: bitmap font for secondary text, large monospace for the primary value.
func FaceFor(fontClass FontClass) font.Face {
	if fontClass == LARGE_FONT {
		return largeFace
	}
	return smallFace
}
