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

// Select the kth lowest element (1-based) from an array of float32 via
// Hoare partitioning. Partially reorders the array.
// Array must not contain IEEE NaN
func QSelectFloat32(a []float32, k int) float32 {
	left, right := 0, len(a)-1
	for left < right {
		pivot := a[(left+right)>>1]
		l, r := left-1, right+1
		for {
			for {
				l++
				if a[l] >= pivot {
					break
				}
			}
			for {
				r--
				if a[r] <= pivot {
					break
				}
			}
			if l >= r {
				break
			}
			a[l], a[r] = a[r], a[l]
		}

		offset := r - left + 1
		if k <= offset {
			right = r
		} else {
			left = r + 1
			k -= offset
		}
	}
	return a[left]
}

// Select median of an array of float32. Partially reorders the array.
// For even lengths, returns the average of the two middle elements.
// Array must not contain IEEE NaN
func QSelectMedianFloat32(a []float32) float32 {
	if len(a)&1 != 0 {
		return QSelectFloat32(a, (len(a)>>1)+1)
	}
	lower := QSelectFloat32(a, len(a)>>1)
	upper := QSelectFloat32(a, (len(a)>>1)+1)
	return 0.5 * (lower + upper)
}
