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
	"bytes"
	"testing"
)

func TestMaskPlanes(t *testing.T) {
	p := DefaultMaskPlanes()

	bits := map[string]uint8{}
	for _, name := range []string{MaskBad, MaskSat, MaskInterp, MaskCR} {
		bit, err := p.BitMask(name)
		if err != nil {
			t.Fatalf("BitMask(%s): %s", name, err.Error())
		}
		if bit == 0 || bit&(bit-1) != 0 {
			t.Errorf("BitMask(%s)=%d; want a single bit", name, bit)
		}
		for other, otherBit := range bits {
			if otherBit == bit {
				t.Errorf("planes %s and %s share bit %d", name, other, bit)
			}
		}
		bits[name] = bit
	}

	if _, err := p.BitMask("NOSUCH"); err == nil {
		t.Errorf("BitMask(NOSUCH) succeeded; want error")
	}
	if _, err := p.Add(MaskCR); err == nil {
		t.Errorf("duplicate Add(CR) succeeded; want error")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	width, height := int32(7), int32(5)
	src := NewImageFromNaxisn([]int32{width, height}, nil)
	for i := range src.Data {
		src.Data[i] = float32(i)*0.5 - 3
	}
	src.X0, src.Y0 = 100, 200

	buf := &bytes.Buffer{}
	if err := src.Write(buf); err != nil {
		t.Fatalf("write: %s", err.Error())
	}
	if buf.Len()%2880 != 0 {
		t.Errorf("output size %d is not a multiple of the FITS block size", buf.Len())
	}

	dest := NewImage()
	if err := dest.Read(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("read: %s", err.Error())
	}
	if !EqualInt32Slice(dest.Naxisn, src.Naxisn) {
		t.Fatalf("naxisn=%v; want %v", dest.Naxisn, src.Naxisn)
	}
	if dest.X0 != src.X0 || dest.Y0 != src.Y0 {
		t.Errorf("origin=(%d,%d); want (%d,%d)", dest.X0, dest.Y0, src.X0, src.Y0)
	}
	for i, v := range dest.Data {
		if v != src.Data[i] {
			t.Fatalf("data[%d]=%f; want %f", i, v, src.Data[i])
		}
	}
}

func TestSynthesizeVariance(t *testing.T) {
	f := NewImageFromNaxisn([]int32{4, 4}, nil)
	for i := range f.Data {
		f.Data[i] = 100
	}
	f.Data[5] = 1100

	if err := f.SynthesizeVariance(100, 3, 2); err != nil {
		t.Fatalf("synthesize: %s", err.Error())
	}
	if f.Variance[0] != 9 {
		t.Errorf("background variance=%f; want 9", f.Variance[0])
	}
	if f.Variance[5] != 9+500 {
		t.Errorf("signal variance=%f; want 509", f.Variance[5])
	}

	if err := f.SynthesizeVariance(100, 3, 0); err == nil {
		t.Errorf("zero gain accepted; want error")
	}
}

func TestFlagAbove(t *testing.T) {
	f := NewImageFromNaxisn([]int32{4, 4}, nil)
	f.Data[3] = 65000
	f.Data[7] = 66000

	n, err := f.FlagAbove(65000, MaskSat)
	if err != nil {
		t.Fatalf("flag: %s", err.Error())
	}
	if n != 2 {
		t.Errorf("flagged %d pixels; want 2", n)
	}
	satBit, _ := f.Planes.BitMask(MaskSat)
	if f.Mask[3]&satBit == 0 || f.Mask[7]&satBit == 0 {
		t.Errorf("saturated pixels not flagged in mask")
	}
	if f.CountMask(satBit) != 2 {
		t.Errorf("CountMask=%d; want 2", f.CountMask(satBit))
	}
}
