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

// Grows the regions to soak up faint cosmic ray wings. Each round rescans
// a one pixel border around every span with the detection threshold
// halved and the sharpness error bars disabled; newly flagged pixels join
// their region and are corrected in place. Rounds repeat until one adds
// no pixels or the iteration budget runs out. Saturation handovers and
// fully interpolated regions are left alone.
func (d *detector) growRegions(regions []*Region) {
	for iter := int32(0); iter < d.p.NIter; iter++ {
		var nextra int32
		for _, reg := range regions {
			if reg.Saturated {
				continue
			}
			if d.countMaskInRegion(reg, d.interpBit) == reg.NumPix {
				continue
			}
			var extra []Span
			for _, sp := range reg.Spans {
				y := sp.Y - d.f.Y0
				if y < 2 || y > d.height-3 {
					continue
				}
				x0 := clampInt32(sp.X0-d.f.X0, 2, d.width-3)
				x1 := clampInt32(sp.X1-d.f.X0, 2, d.width-3)
				extra = d.checkRowForCRs(extra, y-1, x0, x1)
				extra = d.checkRowForCRs(extra, y, x0, x1)
				extra = d.checkRowForCRs(extra, y+1, x0, x1)
			}
			if len(extra) > 0 {
				for _, sp := range extra {
					nextra += sp.NPix()
				}
				reg.Spans = append(reg.Spans, extra...)
				reg.normalize()
			}
		}
		if nextra == 0 {
			break
		}
	}
}

// Rescans columns x0-1 through x1+1 of one row with relaxed thresholds,
// appending a single pixel span for every hit. Hits are corrected in
// place; in keep mode their original intensity is recorded first.
func (d *detector) checkRowForCRs(extra []Span, y, x0, x1 int32) []Span {
	idx := y*d.width + x0 - 1
	for x := x0 - 1; x <= x1+1; x++ {
		l := locator{d.f.Data, d.f.Variance, d.f.Mask, idx, d.width}
		corr, hit := isCRPixel(l, 0.5*d.p.MinSigma, d.thresH, d.thresV, d.thresD,
			d.bkgd, 0, d.badMask)
		if hit {
			if d.p.Keep {
				d.pixels = append(d.pixels, crPixel{col: x, row: y, val: d.f.Data[idx], id: -1, seq: d.seq})
				d.seq++
			}
			d.f.Data[idx] = corr
			extra = append(extra, Span{Y: y + d.f.Y0, X0: x + d.f.X0, X1: x + d.f.X0})
		}
		idx++
	}
	return extra
}
