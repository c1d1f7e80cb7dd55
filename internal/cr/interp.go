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
	"github.com/rmurata/crclean/internal/fits"
)

// Linear predictive coding coefficients for reconstructing a pixel from
// its neighbors at lag 1 and 2 along an axis. The first pair applies to
// unit spacing, the second to sqrt(2) spacing on the diagonals.
const (
	lpc1C1   = 0.7737
	lpc1C2   = -0.2737
	lpc1s2C1 = 0.7358
	lpc1s2C2 = -0.2358

	// expected bias of the minimum of two unit-variance Gaussian
	// estimates, -1/sqrt(pi)
	min2GaussianBias = -0.5641895835
)

// Interpolates a single pixel along one full image row or column.
// Searches outward from (x,y) on both sides for the nearest pixel free of
// badMask bits and interpolates linearly between the two; with only one
// side available that value is used directly. Returns false when no
// usable pixel exists on either side or the result falls below minval.
func singlePixel(f *fits.Image, x, y int32, horizontal bool, minval float32, badMask uint8) (float32, bool) {
	width, height := f.Width(), f.Height()

	var pos, limit, stride int32
	if horizontal {
		pos, limit, stride = x, width, 1
	} else {
		pos, limit, stride = y, height, width
	}
	base := y*width + x - pos*stride

	loPos, hiPos := int32(-1), int32(-1)
	var loVal, hiVal float32
	for p := pos - 1; p >= 0; p-- {
		if f.Mask[base+p*stride]&badMask == 0 {
			loPos, loVal = p, f.Data[base+p*stride]
			break
		}
	}
	for p := pos + 1; p < limit; p++ {
		if f.Mask[base+p*stride]&badMask == 0 {
			hiPos, hiVal = p, f.Data[base+p*stride]
			break
		}
	}

	var val float32
	switch {
	case loPos >= 0 && hiPos >= 0:
		val = loVal + (hiVal-loVal)*float32(pos-loPos)/float32(hiPos-loPos)
	case loPos >= 0:
		val = loVal
	case hiPos >= 0:
		val = hiVal
	default:
		return 0, false
	}
	if val < minval {
		return 0, false
	}
	return val, true
}
