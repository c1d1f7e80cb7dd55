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

	"gonum.org/v1/gonum/stat/distuv"
)

// Repairs the given regions in place, last-found region first. Regions of
// fewer than 100 pixels lying within one pixel of saturation are handed
// over to the bleed trail handling instead: they receive the saturation
// bit, lose any CR bit, and keep their intensities. badMask bits exclude
// pixels from serving as interpolation sources. With repair false only
// the saturation handover is performed.
func (d *detector) repairRegions(regions []*Region, badMask uint8, repair bool) {
	for i := len(regions) - 1; i >= 0; i-- {
		reg := regions[i]
		if reg.Saturated {
			continue
		}
		if reg.NumPix < 100 && d.regionTouchesMask(reg, d.saturBit) {
			d.clearMaskInRegion(reg, d.crBit)
			d.setMaskInRegion(reg, d.saturBit)
			reg.Saturated = true
			continue
		}
		if !repair {
			continue
		}
		for _, sp := range reg.Spans {
			y := sp.Y - d.f.Y0
			for x := sp.X0 - d.f.X0; x <= sp.X1-d.f.X0; x++ {
				d.repairPixel(x, y, badMask)
			}
		}
	}
}

// Replaces a single pixel by the most pessimistic of up to four linear
// predictive estimates, one per axis through the pixel. An axis
// contributes when its four sample pixels lie inside the image, carry no
// badMask bits, and the estimate stays above the noise floor of
// bkgd - 2 sqrt(variance). With no usable axis the full row and column
// interpolations take over, then a background plus noise draw as the last
// resort.
func (d *detector) repairPixel(x, y int32, badMask uint8) {
	idx := y*d.width + x
	sd := float32(math.Sqrt(float64(d.f.Variance[idx])))
	minval := d.bkgd - 2*sd

	type axis struct {
		dx, dy int32
		c1, c2 float32
	}
	axes := [4]axis{
		{1, 0, lpc1C1, lpc1C2},
		{0, 1, lpc1C1, lpc1C2},
		{1, 1, lpc1s2C1, lpc1s2C2},
		{-1, 1, lpc1s2C1, lpc1s2C2},
	}

	min := float32(math.MaxFloat32)
	ngood := 0
	for _, a := range axes {
		if x-2*a.dx < 0 || x+2*a.dx < 0 || x-2*a.dx >= d.width || x+2*a.dx >= d.width ||
			y-2*a.dy < 0 || y+2*a.dy >= d.height {
			continue
		}
		off := a.dy*d.width + a.dx
		if d.f.Mask[idx-2*off]&badMask != 0 || d.f.Mask[idx-off]&badMask != 0 ||
			d.f.Mask[idx+off]&badMask != 0 || d.f.Mask[idx+2*off]&badMask != 0 {
			continue
		}
		est := a.c1*(d.f.Data[idx-off]+d.f.Data[idx+off]) +
			a.c2*(d.f.Data[idx-2*off]+d.f.Data[idx+2*off])
		if est <= minval {
			continue
		}
		ngood++
		if est < min {
			min = est
		}
	}

	switch {
	case ngood > 1:
		// taking the minimum of several noisy estimates biases low
		min -= min2GaussianBias * sd
	case ngood == 0:
		valH, okH := singlePixel(d.f, x, y, true, minval, badMask)
		valV, okV := singlePixel(d.f, x, y, false, minval, badMask)
		switch {
		case okH && okV:
			min = 0.5 * (valH + valV)
		case okH:
			min = valH
		case okV:
			min = valV
		default:
			min = d.bkgd + sd*float32(distuv.UnitNormal.Rand())
		}
	}
	d.f.Data[idx] = min
}
