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
	"io"
	"testing"

	"github.com/rmurata/crclean/internal/fits"
	"github.com/rmurata/crclean/internal/psf"
)

func flatImage(width, height int32, variance float32) *fits.Image {
	f := fits.NewImageFromNaxisn([]int32{width, height}, nil)
	for i := range f.Variance {
		f.Variance[i] = variance
	}
	return f
}

func set(f *fits.Image, x, y int32, v float32) {
	f.Data[y*f.Width()+x] = v
}

func get(f *fits.Image, x, y int32) float32 {
	return f.Data[y*f.Width()+x]
}

func maskAt(f *fits.Image, x, y int32, plane string) bool {
	bit, err := f.Planes.BitMask(plane)
	if err != nil {
		panic(err)
	}
	return f.Mask[y*f.Width()+x]&bit != 0
}

func gaussianPSF(t *testing.T) psf.PSF {
	t.Helper()
	sf, err := psf.NewDoubleGaussian(1.0, 1.0, 0)
	if err != nil {
		t.Fatalf("NewDoubleGaussian error %v", err)
	}
	return sf
}

func defaultParams() Params {
	return Params{MinSigma: 5, MinE: 10, EPerDN: 1, Cond3Fac: 2.5, Cond3Fac2: 0.6, NIter: 3}
}

func TestSingleSpike(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	reg := regions[0]
	if reg.NumPix != 1 {
		t.Errorf("numPix=%d; want 1", reg.NumPix)
	}
	want := BBox{X0: 5, Y0: 5, X1: 5, Y1: 5}
	if reg.BBox != want {
		t.Errorf("bbox=%v; want %v", reg.BBox, want)
	}
	if !maskAt(f, 5, 5, fits.MaskCR) {
		t.Errorf("CR bit not set on spike")
	}
	if !maskAt(f, 5, 5, fits.MaskInterp) {
		t.Errorf("INTRP bit not set on spike")
	}
	if v := get(f, 5, 5); v < -1 || v > 1 {
		t.Errorf("repaired value %v; want near 0", v)
	}
	for i, m := range f.Mask {
		if m != 0 && i != 5*10+5 {
			t.Errorf("stray mask bits %b at index %d", m, i)
		}
	}
}

func TestAdjacentSpikesMerge(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)
	set(f, 6, 5, 1000)

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	if regions[0].NumPix != 2 {
		t.Errorf("numPix=%d; want 2", regions[0].NumPix)
	}
}

func TestDiagonalSpikesMerge(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)
	set(f, 6, 6, 1000)

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	if regions[0].NumPix != 2 {
		t.Errorf("numPix=%d; want 2", regions[0].NumPix)
	}
}

func TestDistantSpikesStaySeparate(t *testing.T) {
	f := flatImage(12, 12, 1)
	set(f, 5, 5, 1000)
	set(f, 7, 6, 1000) // one column gap beyond the merge tolerance

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("regions=%d; want 2", len(regions))
	}
}

func TestFluxFilterDropsFaintRegions(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)

	p := defaultParams()
	p.MinE = 4000
	p.EPerDN = 2 // 2000 DN minimum, spike sums to 1000

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, p, io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 0 {
		t.Fatalf("regions=%d; want 0", len(regions))
	}
	if v := get(f, 5, 5); v != 1000 {
		t.Errorf("dropped spike value %v; want 1000", v)
	}
	if maskAt(f, 5, 5, fits.MaskCR) {
		t.Errorf("CR bit set on dropped candidate")
	}
}

func TestKeepRestoresIntensities(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)
	set(f, 2, 7, 3)
	orig := append([]float32(nil), f.Data...)

	p := defaultParams()
	p.Keep = true

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, p, io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	for i := range orig {
		if f.Data[i] != orig[i] {
			t.Fatalf("data[%d]=%v; want %v", i, f.Data[i], orig[i])
		}
	}
	if !maskAt(f, 5, 5, fits.MaskCR) {
		t.Errorf("CR bit not set in keep mode")
	}
	if maskAt(f, 5, 5, fits.MaskInterp) {
		t.Errorf("INTRP bit set in keep mode")
	}
}

func TestRepairIsIdempotent(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)

	if _, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard); err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	repaired := append([]float32(nil), f.Data...)

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("second FindCosmicRays error %v", err)
	}
	if len(regions) != 0 {
		t.Fatalf("second pass regions=%d; want 0", len(regions))
	}
	for i := range repaired {
		if f.Data[i] != repaired[i] {
			t.Fatalf("data[%d]=%v; want %v", i, f.Data[i], repaired[i])
		}
	}
}

func TestSaturationAdjacency(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)
	satBit, err := f.Planes.BitMask(fits.MaskSat)
	if err != nil {
		t.Fatalf("BitMask error %v", err)
	}
	f.Mask[5*10+6] |= satBit // neighbor flagged saturated

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	if !regions[0].Saturated {
		t.Errorf("region not marked saturated")
	}
	if maskAt(f, 5, 5, fits.MaskCR) {
		t.Errorf("CR bit set on saturation handover")
	}
	if !maskAt(f, 5, 5, fits.MaskSat) {
		t.Errorf("saturation bit did not propagate to spike")
	}
	if maskAt(f, 5, 5, fits.MaskInterp) {
		t.Errorf("INTRP bit set on saturation handover")
	}
	if v := get(f, 5, 5); v != 1000 {
		t.Errorf("handover intensity %v; want untouched 1000", v)
	}
}

func TestGrowthAddsFaintWings(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)
	set(f, 4, 5, 4) // below the full threshold, above the halved one

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	if regions[0].NumPix < 2 {
		t.Errorf("numPix=%d; want at least 2 after growth", regions[0].NumPix)
	}
	if !maskAt(f, 4, 5, fits.MaskCR) {
		t.Errorf("CR bit not set on grown wing")
	}
	if v := get(f, 4, 5); v < -1 || v > 1 {
		t.Errorf("wing value %v; want near 0", v)
	}
}

func TestFlatThreshold(t *testing.T) {
	f := flatImage(10, 10, 1)
	set(f, 5, 5, 1000)
	set(f, 2, 2, 30)

	p := defaultParams()
	p.MinSigma = -50 // flat 50 DN threshold
	p.MinE = 10

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, p, io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	if regions[0].BBox.X0 != 5 || regions[0].BBox.Y0 != 5 {
		t.Errorf("bbox=%v; want spike at (5,5)", regions[0].BBox)
	}
}

func TestEmptyImage(t *testing.T) {
	f := flatImage(10, 10, 1)

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("regions=%d; want 0", len(regions))
	}
	for i, m := range f.Mask {
		if m != 0 {
			t.Fatalf("mask[%d]=%b; want 0", i, m)
		}
	}
}

func TestGainValidation(t *testing.T) {
	f := flatImage(10, 10, 1)
	p := defaultParams()
	p.EPerDN = 0

	if _, err := FindCosmicRays(f, gaussianPSF(t), 0, p, io.Discard); err == nil {
		t.Errorf("expected error for zero gain")
	}
}

func TestOriginOffsetCoordinates(t *testing.T) {
	f := flatImage(10, 10, 1)
	f.X0, f.Y0 = 100, 200
	set(f, 5, 5, 1000)

	regions, err := FindCosmicRays(f, gaussianPSF(t), 0, defaultParams(), io.Discard)
	if err != nil {
		t.Fatalf("FindCosmicRays error %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions=%d; want 1", len(regions))
	}
	want := BBox{X0: 105, Y0: 205, X1: 105, Y1: 205}
	if regions[0].BBox != want {
		t.Errorf("bbox=%v; want %v", regions[0].BBox, want)
	}
}
