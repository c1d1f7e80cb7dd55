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
	"fmt"
)

// Synthesizes the per-pixel variance plane for cameras that do not deliver
// one: Poisson shot noise of the background-subtracted signal plus the
// background noise floor. gain is in electrons per data unit.
//   var = noise^2 + max(v-bkgd, 0)/gain
func (f *Image) SynthesizeVariance(bkgd, noise, gain float32) error {
	if gain <= 0 {
		return fmt.Errorf("%d: gain must be positive, have %g", f.ID, gain)
	}
	f.EnsurePlanes()
	noiseSq := noise * noise
	for i, v := range f.Data {
		signal := v - bkgd
		if signal < 0 {
			signal = 0
		}
		f.Variance[i] = noiseSq + signal/gain
	}
	return nil
}

// Sets the named mask bit on every pixel at or above the given level.
// Returns the number of pixels flagged.
func (f *Image) FlagAbove(level float32, plane string) (int32, error) {
	bit, err := f.Planes.BitMask(plane)
	if err != nil {
		return 0, err
	}
	f.EnsurePlanes()
	flagged := int32(0)
	for i, v := range f.Data {
		if v >= level {
			f.Mask[i] |= bit
			flagged++
		}
	}
	return flagged, nil
}

// Counts pixels carrying any of the given mask bits
func (f *Image) CountMask(bits uint8) (count int32) {
	for _, m := range f.Mask {
		if m&bits != 0 {
			count++
		}
	}
	return count
}
