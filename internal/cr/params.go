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

import "errors"

// Tuning parameters for cosmic ray detection and removal
type Params struct {
	MinSigma  float32 `json:"minSigma"`  // detection threshold in units of sqrt(variance); negative for a flat threshold of |MinSigma| DN
	MinE      float32 `json:"minE"`      // minimum total charge in electrons for a region to survive
	EPerDN    float32 `json:"ePerDN"`    // camera gain converting data numbers to electrons, must be positive
	Cond3Fac  float32 `json:"cond3Fac"`  // error-bar scaling in the sharpness test
	Cond3Fac2 float32 `json:"cond3Fac2"` // scaling of the point spread function profile in the sharpness test
	NIter     int32   `json:"iterations"` // budget for the growth iteration
	Keep      bool    `json:"keep"`      // detect and report only, restoring pixel intensities afterwards
}

func (p Params) Validate() error {
	if p.EPerDN <= 0 {
		return errors.New("gain ePerDN must be positive")
	}
	if p.NIter < 0 {
		return errors.New("iteration budget must not be negative")
	}
	return nil
}
