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
	"fmt"
	"math"
)

// Registry name of the double-Gaussian variety
const DoubleGaussianName = "dgauss"

// A circularly symmetric double Gaussian: a narrow core of width sigma1
// plus a wider halo of width sigma2 and relative amplitude b, with the
// central amplitude normalized to 1.
type DoubleGaussian struct {
	Sigma1 float64 // width of the inner Gaussian
	Sigma2 float64 // width of the outer Gaussian
	B      float64 // amplitude of the outer Gaussian relative to the inner
}

// Creates a double-Gaussian PSF. Widths of zero are rejected.
func NewDoubleGaussian(sigma1, sigma2, b float64) (*DoubleGaussian, error) {
	if b == 0 && sigma2 == 0 {
		sigma2 = 1 // avoid 0/0 at the center
	}
	if sigma1 == 0 || sigma2 == 0 {
		return nil, fmt.Errorf("PSF sigma may not be 0: %g, %g", sigma1, sigma2)
	}
	return &DoubleGaussian{Sigma1: sigma1, Sigma2: sigma2, B: b}, nil
}

// Factory adapter for Registry. params are sigma1, sigma2, b; missing
// trailing parameters default to zero.
func NewDoubleGaussianPSF(params []float64) (PSF, error) {
	if len(params) < 1 || len(params) > 3 {
		return nil, fmt.Errorf("double-Gaussian PSF takes 1 to 3 parameters, have %d", len(params))
	}
	p := make([]float64, 3)
	copy(p, params)
	return NewDoubleGaussian(p[0], p[1], p[2])
}

// Evaluate the PSF at (dx, dy) relative to the center, central amplitude 1
func (g *DoubleGaussian) Eval(dx, dy float64) float64 {
	r2 := dx*dx + dy*dy
	psf1 := math.Exp(-r2 / (2 * g.Sigma1 * g.Sigma1))
	if g.B == 0 {
		return psf1
	}
	psf2 := math.Exp(-r2 / (2 * g.Sigma2 * g.Sigma2))
	return (psf1 + g.B*psf2) / (1 + g.B)
}
