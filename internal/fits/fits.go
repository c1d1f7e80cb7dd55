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

package fits

import (
	"fmt"
	"strings"

	"github.com/rmurata/crclean/internal/stats"
)

// A masked FITS image: the intensity plane read from file, plus co-registered
// variance and bitmask planes of the same dimensions. The variance and mask
// planes are synthesized in memory; FITS persistence covers the intensity
// plane only.
// FITS spec:   https://fits.gsfc.nasa.gov/standard40/fits_standard40aa-le.pdf
// Primer here: https://fits.gsfc.nasa.gov/fits_primer.html
type Image struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Header Header  // All header keys, values, comments, history entries
	Bitpix int32   // Bits per pixel value from the header. Positive integral, negative floating
	Bzero  float32 // Zero offset. True pixel value is Bzero + Bscale * Data[i]
	Bscale float32 // Value scaler. True pixel value is Bzero + Bscale * Data[i]
	Naxisn []int32 // Axis dimensions. Most quickly varying dimension first (i.e. X,Y)
	Pixels int32   // Number of pixels in the image. Product of Naxisn[]

	Data     []float32 // Intensity plane
	Variance []float32 // Per-pixel variance plane, nil until synthesized
	Mask     []uint8   // Bitmask plane, nil until allocated

	Planes *MaskPlanes // Named bitmask plane registry for Mask

	X0, Y0 int32 // Origin offset of pixel (0,0) in the parent coordinate system

	Exposure float32 // Image exposure in seconds

	Stats *stats.Basic // Basic image statistics: min, mean, max, stddev
}

// Creates an image initialized with empty header and default mask planes
func NewImage() *Image {
	return &Image{
		Header: NewHeader(),
		Bscale: 1,
		Planes: DefaultMaskPlanes(),
	}
}

// Creates an image from given naxisn, with variance and mask planes
// allocated. Data is not copied, allocated if nil. naxisn is deep copied
func NewImageFromNaxisn(naxisn []int32, data []float32) *Image {
	numPixels := int32(1)
	for _, naxis := range naxisn {
		numPixels *= naxis
	}
	if data == nil {
		data = make([]float32, numPixels)
	}
	return &Image{
		Header:   NewHeader(),
		Bitpix:   -32,
		Bscale:   1,
		Naxisn:   append([]int32(nil), naxisn...), // clone slice
		Pixels:   numPixels,
		Data:     data,
		Variance: make([]float32, numPixels),
		Mask:     make([]uint8, numPixels),
		Planes:   DefaultMaskPlanes(),
		Stats:    stats.CalcBasicStats(data),
	}
}

// Allocates variance and mask planes if missing
func (f *Image) EnsurePlanes() {
	if f.Variance == nil {
		f.Variance = make([]float32, f.Pixels)
	}
	if f.Mask == nil {
		f.Mask = make([]uint8, f.Pixels)
	}
	if f.Planes == nil {
		f.Planes = DefaultMaskPlanes()
	}
}

func (f *Image) Width() int32  { return f.Naxisn[0] }
func (f *Image) Height() int32 { return f.Naxisn[1] }

func (f *Image) DimensionsToString() string {
	b := strings.Builder{}
	for i, naxis := range f.Naxisn {
		if i > 0 {
			fmt.Fprintf(&b, "x%d", naxis)
		} else {
			fmt.Fprintf(&b, "%d", naxis)
		}
	}
	return b.String()
}

// FITS header data
type Header struct {
	Bools    map[string]bool
	Ints     map[string]int32
	Floats   map[string]float32
	Strings  map[string]string
	Comments []string
	History  []string
	End      bool
}

// Creates a FITS header initialized with empty maps and arrays
func NewHeader() Header {
	return Header{
		Bools:   make(map[string]bool),
		Ints:    make(map[string]int32),
		Floats:  make(map[string]float32),
		Strings: make(map[string]string),
	}
}

const fitsBlockSize int = 2880 // Block size of FITS header and data units
const headerLineSize int = 80  // Line size of a FITS header

// Equal tells whether a and b contain the same elements.
// A nil argument is equivalent to an empty slice.
func EqualInt32Slice(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}
