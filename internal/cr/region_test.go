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
	"testing"
)

func TestNormalizeMergesDuplicates(t *testing.T) {
	reg := &Region{Spans: []Span{
		{Y: 6, X0: 4, X1: 4},
		{Y: 5, X0: 3, X1: 5},
		{Y: 5, X0: 5, X1: 6},
		{Y: 5, X0: 4, X1: 4},
	}}
	reg.normalize()

	if len(reg.Spans) != 2 {
		t.Fatalf("spans=%d; want 2", len(reg.Spans))
	}
	if s := reg.Spans[0]; s.Y != 5 || s.X0 != 3 || s.X1 != 6 {
		t.Errorf("span[0]=%v; want row 5 columns 3-6", s)
	}
	if reg.NumPix != 5 {
		t.Errorf("numPix=%d; want 5", reg.NumPix)
	}
	want := BBox{X0: 3, Y0: 5, X1: 6, Y1: 6}
	if reg.BBox != want {
		t.Errorf("bbox=%v; want %v", reg.BBox, want)
	}
}

func TestAliasTable(t *testing.T) {
	a := newAliasTable(8)
	for i := 0; i < 4; i++ {
		a.next()
	}
	a.union(1, 2)
	a.union(3, 4)
	a.union(2, 3)

	a.flatten()
	root := a.resolve(1)
	for id := int32(1); id <= 4; id++ {
		if a[id] != root {
			t.Errorf("alias[%d]=%d; want %d", id, a[id], root)
		}
	}
	if a[0] != 0 {
		t.Errorf("sentinel alias=%d; want 0", a[0])
	}
}
