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

package stats

import (
	"github.com/valyala/fastrand"

	"github.com/rmurata/crclean/internal/qsort"
)

// Estimates the pixel noise sigma around the given location via the median
// absolute deviation of randomly sampled pixels. Sampling keeps the cost
// independent of image size; the 1.4826 factor makes the MAD consistent
// with the standard deviation of a Gaussian.
func SampleScale(data []float32, location float32, numSamples int) float32 {
	if numSamples > len(data) {
		numSamples = len(data)
	}
	samples := make([]float32, numSamples)
	rng := fastrand.RNG{}
	for i := range samples {
		d := data[rng.Uint32n(uint32(len(data)))] - location
		if d < 0 {
			d = -d
		}
		samples[i] = d
	}
	mad := qsort.QSelectMedianFloat32(samples)
	return mad * 1.4826
}
