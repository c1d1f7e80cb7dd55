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

package qsort

import (
	"testing"

	"github.com/valyala/fastrand"
)

func permutation(n int, rng *fastrand.RNG) []float32 {
	arr := make([]float32, n)
	for j := 0; j < n; j++ {
		arr[j] = float32(j + 1)
	}
	for j := 0; j < n; j++ {
		k := rng.Uint32n(uint32(n))
		arr[j], arr[k] = arr[k], arr[j]
	}
	return arr
}

func TestSelect(t *testing.T) {
	rng := fastrand.RNG{}
	for n := 1; n < 200; n++ {
		for _, k := range []int{1, (n >> 1) + 1, n} {
			arr := permutation(n, &rng)
			if res := QSelectFloat32(arr, k); res != float32(k) {
				t.Errorf("select(1..%d, %d)=%f; want %d", n, k, res, k)
			}
		}
	}
}

func TestMedian(t *testing.T) {
	rng := fastrand.RNG{}
	for n := 1; n < 1000; n++ {
		arr := permutation(n, &rng)

		var expect float32
		if n&1 != 0 {
			expect = float32((n + 1) / 2)
		} else {
			expect = 0.5 * (float32(n/2) + float32(n/2+1))
		}

		if res := QSelectMedianFloat32(arr); res != expect {
			t.Errorf("median(1..%d)=%f; want %f", n, res, expect)
		}
	}
}
