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
	"fmt"
	"io"

	"github.com/rmurata/crclean/internal/fits"
	"github.com/rmurata/crclean/internal/stats"
)

const prepareHistogramBins = 4096

// Prepare readies an image for detection. Background and noise default
// to location and scale estimates from the image histogram when nil, the
// variance plane is synthesized from them, and pixels at or above
// satLevel are flagged saturated. Returns the background level used.
func Prepare(f *fits.Image, bkgd, noise *float32, satLevel, gain float32, logWriter io.Writer) (float32, error) {
	f.EnsurePlanes()
	if f.Stats == nil {
		f.Stats = stats.CalcBasicStats(f.Data)
	}

	var b, n float32
	if bkgd != nil && noise != nil {
		b, n = *bkgd, *noise
	} else {
		loc, scale := stats.HistogramScaleLoc(f.Data, f.Stats.Min, f.Stats.Max, prepareHistogramBins)
		fmt.Fprintf(logWriter, "%d: estimated background %.4g and noise %.4g\n", f.ID, loc, scale)
		b, n = loc, scale
		if bkgd != nil {
			b = *bkgd
		}
		if noise != nil {
			n = *noise
		}
	}

	if err := f.SynthesizeVariance(b, n, gain); err != nil {
		return 0, err
	}

	if satLevel > 0 {
		nsat, err := f.FlagAbove(satLevel, fits.MaskSat)
		if err != nil {
			return 0, err
		}
		if nsat > 0 {
			fmt.Fprintf(logWriter, "%d: flagged %d saturated pixels at level %.4g\n", f.ID, nsat, satLevel)
		}
	}
	return b, nil
}
