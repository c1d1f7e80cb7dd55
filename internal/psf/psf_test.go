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

package psf

import (
	"math"
	"testing"
)

func TestDoubleGaussianEval(t *testing.T) {
	g, err := NewDoubleGaussian(1, 3, 0.1)
	if err != nil {
		t.Fatalf("new: %s", err.Error())
	}

	if v := g.Eval(0, 0); math.Abs(v-1) > 1e-12 {
		t.Errorf("Eval(0,0)=%g; want 1", v)
	}

	// radial symmetry
	if v1, v2 := g.Eval(1, 0), g.Eval(0, 1); v1 != v2 {
		t.Errorf("Eval(1,0)=%g != Eval(0,1)=%g", v1, v2)
	}

	// explicit value at unit offset
	want := (math.Exp(-0.5) + 0.1*math.Exp(-1.0/18)) / 1.1
	if v := g.Eval(1, 0); math.Abs(v-want) > 1e-12 {
		t.Errorf("Eval(1,0)=%g; want %g", v, want)
	}

	// monotone falloff
	if g.Eval(1, 1) >= g.Eval(1, 0) {
		t.Errorf("PSF does not fall off with radius")
	}
}

func TestDoubleGaussianValidation(t *testing.T) {
	if _, err := NewDoubleGaussian(0, 1, 0); err == nil {
		t.Errorf("sigma1=0 accepted; want error")
	}
	if _, err := NewDoubleGaussian(1, 0, 0.5); err == nil {
		t.Errorf("sigma2=0 with halo accepted; want error")
	}
	// pure single Gaussian is fine
	if _, err := NewDoubleGaussian(1, 0, 0); err != nil {
		t.Errorf("single Gaussian rejected: %s", err.Error())
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	p, err := r.Create(DoubleGaussianName, 1.5)
	if err != nil {
		t.Fatalf("create: %s", err.Error())
	}
	if v := p.Eval(0, 0); math.Abs(v-1) > 1e-12 {
		t.Errorf("Eval(0,0)=%g; want 1", v)
	}

	if _, err := r.Create("nosuch", 1); err == nil {
		t.Errorf("unknown variety accepted; want error")
	}
	if err := r.Declare(DoubleGaussianName, NewDoubleGaussianPSF); err == nil {
		t.Errorf("duplicate declaration accepted; want error")
	}
	if names := r.Names(); len(names) != 1 || names[0] != DoubleGaussianName {
		t.Errorf("names=%v; want [%s]", names, DoubleGaussianName)
	}
}
