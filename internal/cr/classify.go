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
	"math"
)

// Cursor into the data, variance and mask planes at a single pixel.
// dx runs along columns, dy along rows; callers guarantee the pixel
// plus its 8 neighbors lie inside the image.
type locator struct {
	data  []float32
	vari  []float32
	mask  []uint8
	idx   int32
	width int32
}

func (l locator) image(dx, dy int32) float32 {
	return l.data[l.idx+dy*l.width+dx]
}

func (l locator) variance(dx, dy int32) float32 {
	return l.vari[l.idx+dy*l.width+dx]
}

func (l locator) maskBits() uint8 {
	return l.mask[l.idx]
}

// Tests a single pixel for being a cosmic ray hit. Returns the corrected
// intensity estimate for the pixel and whether it was flagged.
//
// A pixel is flagged when it is non-negative, stands out above all four
// neighbor-pair means, is sharper than the point spread function along at
// least one axis, and carries none of the badMask bits.
func isCRPixel(l locator, minSigma, thresH, thresV, thresD, bkgd, cond3Fac float32, badMask uint8) (corr float32, ok bool) {
	v00 := l.image(0, 0)
	if v00 < 0 {
		return 0, false
	}

	meanNS := 0.5 * (l.image(0, -1) + l.image(0, 1))
	meanWE := 0.5 * (l.image(-1, 0) + l.image(1, 0))
	meanSWNE := 0.5 * (l.image(-1, -1) + l.image(1, 1))
	meanNWSE := 0.5 * (l.image(-1, 1) + l.image(1, -1))

	// condition 2: exceed all four neighbor-pair means. A negative
	// minSigma requests a flat threshold of |minSigma| DN instead
	if minSigma < 0 {
		if v00 < -minSigma {
			return 0, false
		}
	} else {
		thres := minSigma * float32(math.Sqrt(float64(l.variance(0, 0))))
		if v00 < meanNS+thres || v00 < meanWE+thres ||
			v00 < meanSWNE+thres || v00 < meanNWSE+thres {
			return 0, false
		}
	}

	dV00 := float32(math.Sqrt(float64(l.variance(0, 0))))
	dMeanNS := 0.5 * float32(math.Sqrt(float64(l.variance(0, -1)+l.variance(0, 1))))
	dMeanWE := 0.5 * float32(math.Sqrt(float64(l.variance(-1, 0)+l.variance(1, 0))))
	dMeanSWNE := 0.5 * float32(math.Sqrt(float64(l.variance(-1, -1)+l.variance(1, 1))))
	dMeanNWSE := 0.5 * float32(math.Sqrt(float64(l.variance(-1, 1)+l.variance(1, -1))))

	est, sharp := condition3(v00-bkgd,
		meanNS-bkgd, meanWE-bkgd, meanSWNE-bkgd, meanNWSE-bkgd,
		dV00, dMeanNS, dMeanWE, dMeanSWNE, dMeanNWSE,
		thresH, thresV, thresD, cond3Fac)
	if !sharp {
		return 0, false
	}

	// condition 4: pre-flagged bad pixels are not cosmic rays
	if l.maskBits()&badMask != 0 {
		return 0, false
	}

	return est + bkgd, true
}

// The sharpness test. Compares the background-subtracted peak against the
// four directional neighbor means, each scaled by the expected profile of
// a point source along that axis, with error bars widened by fac. The
// first axis that fires wins and its neighbor mean becomes the corrected
// estimate; axes are tried vertical, horizontal, then the two diagonals.
func condition3(peak, meanNS, meanWE, meanSWNE, meanNWSE,
	dPeak, dMeanNS, dMeanWE, dMeanSWNE, dMeanNWSE,
	thresH, thresV, thresD, fac float32) (est float32, ok bool) {

	if thresV*(peak-fac*dPeak) > meanNS+fac*dMeanNS {
		return meanNS, true
	}
	if thresH*(peak-fac*dPeak) > meanWE+fac*dMeanWE {
		return meanWE, true
	}
	if thresD*(peak-fac*dPeak) > meanSWNE+fac*dMeanSWNE {
		return meanSWNE, true
	}
	if thresD*(peak-fac*dPeak) > meanNWSE+fac*dMeanNWSE {
		return meanNWSE, true
	}
	return 0, false
}
