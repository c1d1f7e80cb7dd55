// Copyright (C) 2026 Ryo Murata
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package cr

import (
	"bufio"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/rmurata/crclean/internal/fits"
)

// RenderOverlay renders the image as grayscale scaled between min and
// max, tinting the pixels of each detected region with a distinct hue.
func RenderOverlay(f *fits.Image, regions []*Region, min, max float32) *image.RGBA {
	width, height := int(f.Width()), int(f.Height())
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	scale := float32(1)
	if max > min {
		scale = 1 / (max - min)
	}
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			gray := (f.Data[yoffset+x] - min) * scale
			if math.IsNaN(float64(gray)) || gray < 0 {
				gray = 0
			}
			if gray > 1 {
				gray = 1
			}
			g := uint8(gray * 255)
			img.SetRGBA(x, y, color.RGBA{g, g, g, 255})
		}
	}

	for i, reg := range regions {
		// golden angle steps keep neighboring region hues far apart
		tint := colorful.Hsv(float64((i*137)%360), 0.9, 1.0)
		r8, g8, b8 := tint.RGB255()
		for _, sp := range reg.Spans {
			y := int(sp.Y - f.Y0)
			for x := int(sp.X0 - f.X0); x <= int(sp.X1-f.X0); x++ {
				gray := img.RGBAAt(x, y).R
				// keep some of the underlying brightness in the tint
				w := 0.5 + 0.5*float32(gray)/255
				img.SetRGBA(x, y, color.RGBA{
					uint8(w * float32(r8)),
					uint8(w * float32(g8)),
					uint8(w * float32(b8)),
					255,
				})
			}
		}
	}
	return img
}

// WriteOverlayPNG encodes the rendered overlay as PNG
func WriteOverlayPNG(writer io.Writer, f *fits.Image, regions []*Region, min, max float32) error {
	return png.Encode(writer, RenderOverlay(f, regions, min, max))
}

// WriteOverlayPNGToFile writes the rendered overlay to a PNG file
func WriteOverlayPNGToFile(fileName string, f *fits.Image, regions []*Region, min, max float32) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return WriteOverlayPNG(writer, f, regions, min, max)
}
