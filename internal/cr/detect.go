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
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rmurata/crclean/internal/fits"
	"github.com/rmurata/crclean/internal/psf"
)

// A pixel flagged during the sweep, in local image coordinates. val holds
// the intensity before the in-place perturbation; seq preserves birth
// order so intensities can be restored with the earliest record winning.
type crPixel struct {
	col, row int32
	val      float32
	id       int32
	seq      int32
}

// A provisional row span produced by labeling, before spans are folded
// into regions. Coordinates are local; id is a provisional label.
type labelSpan struct {
	id     int32
	y      int32
	x0, x1 int32
}

type detector struct {
	f             *fits.Image
	p             Params
	bkgd          float32
	width, height int32

	// sharpness thresholds derived from the point spread function
	thresH, thresV, thresD float32

	crBit, interpBit, saturBit uint8
	badMask                    uint8

	logWriter io.Writer
	pixels    []crPixel
	seq       int32
}

// FindCosmicRays detects cosmic ray hits in the given image and repairs
// them in place by interpolation, setting the CR and INTRP mask bits on
// affected pixels. bkgd is the unsubtracted background level still
// present in the data. With p.Keep the pixel intensities are restored
// after detection and only the mask and region list report the findings.
// Regions adjacent to saturated pixels are handed over to the bleed
// trail handling: they receive the saturation bit instead of the CR bit
// and their intensities are left untouched.
//
// Returns the detected regions in absolute image coordinates.
func FindCosmicRays(f *fits.Image, sf psf.PSF, bkgd float32, p Params, logWriter io.Writer) ([]*Region, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(f.Naxisn) != 2 {
		return nil, fmt.Errorf("cosmic ray detection needs a 2D image, have %d axes", len(f.Naxisn))
	}
	f.EnsurePlanes()

	badBit, err := f.Planes.BitMask(fits.MaskBad)
	if err != nil {
		return nil, err
	}
	interpBit, err := f.Planes.BitMask(fits.MaskInterp)
	if err != nil {
		return nil, err
	}
	saturBit, err := f.Planes.BitMask(fits.MaskSat)
	if err != nil {
		return nil, err
	}
	crBit, err := f.Planes.BitMask(fits.MaskCR)
	if err != nil {
		return nil, err
	}

	d := &detector{
		f:         f,
		p:         p,
		bkgd:      bkgd,
		width:     f.Width(),
		height:    f.Height(),
		thresH:    p.Cond3Fac2 * float32(sf.Eval(0, 1)),
		thresV:    p.Cond3Fac2 * float32(sf.Eval(1, 0)),
		thresD:    p.Cond3Fac2 * float32(sf.Eval(1, 1)),
		crBit:     crBit,
		interpBit: interpBit,
		saturBit:  saturBit,
		badMask:   badBit | interpBit | saturBit,
		logWriter: logWriter,
	}

	d.sweep()
	fmt.Fprintf(logWriter, "%d: %d cosmic ray candidate pixels\n", f.ID, len(d.pixels)-1)

	regions, err := d.label()
	if err != nil {
		return nil, err
	}

	// reinstate original intensities before flux filtering
	d.restore()
	regions = d.fluxFilter(regions)
	fmt.Fprintf(logWriter, "%d: %d cosmic rays\n", f.ID, len(regions))

	d.repairRegions(regions, d.badMask, true)
	d.growRegions(regions)

	for _, reg := range regions {
		if !reg.Saturated {
			d.setMaskInRegion(reg, d.crBit)
		}
	}

	if p.Keep {
		// saturation side effects still apply before backing out
		d.repairRegions(regions, 0, false)
		d.restore()
		return regions, nil
	}

	d.repairRegions(regions, d.badMask|d.crBit, true)
	for _, reg := range regions {
		if !reg.Saturated {
			d.setMaskInRegion(reg, d.interpBit)
		}
	}
	return regions, nil
}

// Single forward pass over the interior pixels, row-major. Flagged pixels
// are recorded with their original value and perturbed in place to the
// corrected estimate so later pixels see a smoothed neighborhood. Ends by
// appending a sentinel that simplifies the labeling end condition.
func (d *detector) sweep() {
	for y := int32(1); y < d.height-1; y++ {
		l := locator{d.f.Data, d.f.Variance, d.f.Mask, y*d.width + 1, d.width}
		for x := int32(1); x < d.width-1; x++ {
			corr, hit := isCRPixel(l, d.p.MinSigma, d.thresH, d.thresV, d.thresD,
				d.bkgd, d.p.Cond3Fac, d.badMask)
			if hit {
				d.pixels = append(d.pixels, crPixel{col: x, row: y, val: d.f.Data[l.idx], id: -1, seq: d.seq})
				d.seq++
				d.f.Data[l.idx] = corr
			}
			l.idx++
		}
	}
	d.pixels = append(d.pixels, crPixel{col: 0, row: -1, val: 0, id: -1, seq: -1})
}

// Writes recorded original intensities back, in reverse birth order so
// the earliest record of a pixel wins. Skips the sentinel.
func (d *detector) restore() {
	for i := len(d.pixels) - 1; i >= 0; i-- {
		cp := d.pixels[i]
		if cp.row < 0 {
			continue
		}
		d.f.Data[cp.row*d.width+cp.col] = cp.val
	}
}

// Groups the flagged pixels into connected regions. Adjacent pixels on
// one row inherit the same provisional id and form spans; spans on
// neighboring rows that touch, diagonal contact included, have their ids
// merged through a union-find alias table. Returns one region per
// canonical id, spans translated to absolute coordinates.
func (d *detector) label() ([]*Region, error) {
	if len(d.pixels) == 1 { // only the sentinel
		return nil, nil
	}

	aliases := newAliasTable(len(d.pixels))
	spans := make([]labelSpan, 0, len(d.pixels))
	var x0 int32
	for i := 0; i < len(d.pixels)-1; i++ {
		cp := &d.pixels[i]
		if cp.id < 0 {
			cp.id = aliases.next()
			x0 = cp.col
		}
		next := &d.pixels[i+1]
		if next.row == cp.row && next.col == cp.col+1 {
			next.id = cp.id
		} else {
			spans = append(spans, labelSpan{id: cp.id, y: cp.row, x0: x0, x1: cp.col})
		}
	}
	for i := 0; i < len(d.pixels)-1; i++ {
		if d.pixels[i].id < 0 {
			return nil, errors.New("flagged pixel escaped span labeling")
		}
	}

	// merge spans on adjacent rows that touch or overlap. Spans arrive
	// sorted by row then column from the sweep, so the scan can stop at
	// the first span too far down or too far right
	for i := range spans {
		s := &spans[i]
		for j := i + 1; j < len(spans); j++ {
			s2 := &spans[j]
			if s2.y == s.y {
				continue
			}
			if s2.y > s.y+1 || s2.x0 > s.x1+1 {
				break
			}
			if s2.x1 >= s.x0-1 {
				aliases.union(s.id, s2.id)
			}
		}
	}
	aliases.flatten()
	for i := range spans {
		spans[i].id = aliases[spans[i].id]
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].id != spans[j].id {
			return spans[i].id < spans[j].id
		}
		if spans[i].y != spans[j].y {
			return spans[i].y < spans[j].y
		}
		return spans[i].x0 < spans[j].x0
	})

	var regions []*Region
	for i := 0; i < len(spans); {
		reg := &Region{ID: spans[i].id}
		for ; i < len(spans) && spans[i].id == reg.ID; i++ {
			reg.Spans = append(reg.Spans, Span{
				Y:  spans[i].y + d.f.Y0,
				X0: spans[i].x0 + d.f.X0,
				X1: spans[i].x1 + d.f.X0,
			})
		}
		reg.normalize()
		regions = append(regions, reg)
	}
	return regions, nil
}

// Drops regions whose summed background-subtracted charge falls below the
// minimum electron count
func (d *detector) fluxFilter(regions []*Region) []*Region {
	minDN := d.p.MinE / d.p.EPerDN
	kept := regions[:0]
	for _, reg := range regions {
		var sum float32
		for _, sp := range reg.Spans {
			idx := (sp.Y-d.f.Y0)*d.width + sp.X0 - d.f.X0
			for x := sp.X0; x <= sp.X1; x++ {
				sum += d.f.Data[idx] - d.bkgd
				idx++
			}
		}
		if sum < minDN {
			fmt.Fprintf(d.logWriter, "%d: dropping faint candidate at (%d,%d) with %.1f DN\n",
				d.f.ID, reg.BBox.X0, reg.BBox.Y0, sum)
			continue
		}
		kept = append(kept, reg)
	}
	return kept
}

func (d *detector) setMaskInRegion(reg *Region, bits uint8) {
	for _, sp := range reg.Spans {
		idx := (sp.Y-d.f.Y0)*d.width + sp.X0 - d.f.X0
		for x := sp.X0; x <= sp.X1; x++ {
			d.f.Mask[idx] |= bits
			idx++
		}
	}
}

func (d *detector) clearMaskInRegion(reg *Region, bits uint8) {
	for _, sp := range reg.Spans {
		idx := (sp.Y-d.f.Y0)*d.width + sp.X0 - d.f.X0
		for x := sp.X0; x <= sp.X1; x++ {
			d.f.Mask[idx] &^= bits
			idx++
		}
	}
}

func (d *detector) countMaskInRegion(reg *Region, bits uint8) int32 {
	var n int32
	for _, sp := range reg.Spans {
		idx := (sp.Y-d.f.Y0)*d.width + sp.X0 - d.f.X0
		for x := sp.X0; x <= sp.X1; x++ {
			if d.f.Mask[idx]&bits != 0 {
				n++
			}
			idx++
		}
	}
	return n
}

// Reports whether any pixel within one pixel of the region carries one of
// the given mask bits
func (d *detector) regionTouchesMask(reg *Region, bits uint8) bool {
	for _, sp := range reg.Spans {
		y0 := clampInt32(sp.Y-d.f.Y0-1, 0, d.height-1)
		y1 := clampInt32(sp.Y-d.f.Y0+1, 0, d.height-1)
		x0 := clampInt32(sp.X0-d.f.X0-1, 0, d.width-1)
		x1 := clampInt32(sp.X1-d.f.X0+1, 0, d.width-1)
		for y := y0; y <= y1; y++ {
			idx := y*d.width + x0
			for x := x0; x <= x1; x++ {
				if d.f.Mask[idx]&bits != 0 {
					return true
				}
				idx++
			}
		}
	}
	return false
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
