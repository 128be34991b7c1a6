package images

import (
	"errors"
	"github.com/sirupsen/logrus"
	"image"
	"image/color"
	"strings"
)

const syncMask = `
..####..
.#....#.
#......#
#..#...#
#..###.#
#......#
.#....#.
..####..
`

const networkMask = `
........
.######.
#......#
..####..
.#....#.
...##...
...##...
........
`

var (
	errEmptyMask   = errors.New("empty mask")
	errRaggedMask  = errors.New("mask rows differ in width")
	errBadMaskChar = errors.New("mask accepts only '#' and '.'")
)

var SyncIcon image.Image

var NetworkIcon image.Image

func init() {
	var err error

	SyncIcon, err = FromMask(syncMask)
	if err != nil {
		logrus.Panicf("Can't load sync icon: %v", err)
	}

	NetworkIcon, err = FromMask(networkMask)
	if err != nil {
		logrus.Panicf("Can't load network icon: %v", err)
	}
}

// FromMask builds a monochrome image from rows of '#' (lit) and '.' (dark).
func FromMask(mask string) (*image.Gray, error) {
	rows := strings.Fields(mask)
	if len(rows) == 0 {
		return nil, errEmptyMask
	}
	width := len(rows[0])

	img := image.NewGray(image.Rect(0, 0, width, len(rows)))
	for y, row := range rows {
		if len(row) != width {
			return nil, errRaggedMask
		}
		for x, c := range row {
			switch c {
			case '#':
				img.SetGray(x, y, color.Gray{Y: 255})
			case '.':
			default:
				return nil, errBadMaskChar
			}
		}
	}
	return img, nil
}
