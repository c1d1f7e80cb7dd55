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
	"sort"
)

// A maximal horizontal run of contaminated pixels on one row, in the
// caller's absolute coordinate system. Column range is inclusive.
type Span struct {
	Y  int32 // row
	X0 int32 // first column
	X1 int32 // last column
}

// Number of pixels in the span
func (s Span) NPix() int32 { return s.X1 - s.X0 + 1 }

// Inclusive bounding box
type BBox struct {
	X0, Y0 int32
	X1, Y1 int32
}

// A connected group of cosmic-ray contaminated pixels, represented as
// row spans plus a bounding box. Coordinates are absolute.
type Region struct {
	ID        int32  // canonical region id from labeling
	Spans     []Span // member spans, sorted by (row, column) after normalization
	NumPix    int32  // number of member pixels
	BBox      BBox   // bounding box over all spans
	Saturated bool   // redirected to the saturation path; not interpolated, not CR-marked
}

// Recomputes the bounding box from the spans
func (r *Region) setBBox() {
	if len(r.Spans) == 0 {
		r.BBox = BBox{}
		return
	}
	b := BBox{X0: r.Spans[0].X0, Y0: r.Spans[0].Y, X1: r.Spans[0].X1, Y1: r.Spans[0].Y}
	for _, s := range r.Spans[1:] {
		if s.X0 < b.X0 {
			b.X0 = s.X0
		}
		if s.X1 > b.X1 {
			b.X1 = s.X1
		}
		if s.Y < b.Y0 {
			b.Y0 = s.Y
		}
		if s.Y > b.Y1 {
			b.Y1 = s.Y
		}
	}
	r.BBox = b
}

// Sorts the spans, merges overlapping or adjacent runs on the same row,
// and recomputes pixel count and bounding box. Growth can produce
// duplicate single-pixel spans; normalization folds them away.
func (r *Region) normalize() {
	sort.Slice(r.Spans, func(i, j int) bool {
		if r.Spans[i].Y != r.Spans[j].Y {
			return r.Spans[i].Y < r.Spans[j].Y
		}
		return r.Spans[i].X0 < r.Spans[j].X0
	})

	merged := r.Spans[:0]
	for _, s := range r.Spans {
		if n := len(merged); n > 0 && merged[n-1].Y == s.Y && s.X0 <= merged[n-1].X1+1 {
			if s.X1 > merged[n-1].X1 {
				merged[n-1].X1 = s.X1
			}
			continue
		}
		merged = append(merged, s)
	}
	r.Spans = merged

	r.NumPix = 0
	for _, s := range r.Spans {
		r.NumPix += s.NPix()
	}
	r.setBBox()
}
