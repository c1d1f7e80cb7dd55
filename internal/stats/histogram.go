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
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Calculate histogram of data between min and max into given bins
func Histogram(data []float32, min, max float32, bins []int32) {
	for i := range bins {
		bins[i] = 0
	}
	scale := float32(len(bins)-1) / (max - min)
	for _, d := range data {
		bins[int((d-min)*scale)]++
	}
}

// Returns the location and the value of the histogram peak
func GetPeak(bins []int32, min, max float32) (x, y float32) {
	maxIndex, maxValue := 0, bins[0]
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}

	x = min + (float32(maxIndex)+0.5)*(max-min)/float32(len(bins)-1)
	y = float32(maxValue)
	return x, y
}

// Estimates the mode and the standard deviation of the dominant histogram
// peak by least-squares fitting a Gaussian profile with Nelder-Mead.
// For a sky-dominated astronomical exposure this yields the background
// level and background noise.
func GetModeStdDevFromHistogram(bins []int32, min, max float32) (mode, stdDev float32, err error) {
	// educated initial guess: the maximum value of the histogram
	peak, peakVal := GetPeak(bins, min, max)
	binWidth := (max - min) / float32(len(bins)-1)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := x[0], x[1], x[2]
			scaler := alpha / (sigma * math.Sqrt(2*math.Pi))
			sumSqDiff := float64(0)

			for i, y := range bins {
				x := float64(min + (float32(i)+0.5)*binWidth)
				xmusig := (x - mu) / sigma
				yPredict := scaler * math.Exp(-0.5*xmusig*xmusig)
				diff := float64(y) - yPredict
				sumSqDiff += diff * diff
			}
			return math.Sqrt(sumSqDiff / float64(len(bins)))
		},
	}

	x0 := []float64{float64(peakVal), float64(peak), 5.0 * float64(binWidth)}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return -1, -1, err
	}

	return float32(result.X[1]), float32(math.Abs(result.X[2])), nil
}

// Estimates location and scale of the data via its histogram mode.
// Falls back to mean and standard deviation if the fit does not converge.
func HistogramScaleLoc(data []float32, min, max float32, numBins int) (loc, scale float32) {
	if max <= min { // constant image, nothing to fit
		return min, 0
	}
	bins := make([]int32, numBins)
	Histogram(data, min, max, bins)
	loc, scale, err := GetModeStdDevFromHistogram(bins, min, max)
	if err != nil || scale <= 0 {
		s := CalcBasicStats(data)
		return s.Mean, s.StdDev
	}
	return loc, scale
}
