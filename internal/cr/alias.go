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

// Union-find table mapping provisional span ids to canonical region ids.
// Index 0 is a sentinel that always maps to itself; real ids start at 1.
type aliasTable []int32

func newAliasTable(capacity int) aliasTable {
	a := make(aliasTable, 1, capacity+1)
	a[0] = 0
	return a
}

// Allocates a fresh id aliased to itself
func (a *aliasTable) next() int32 {
	id := int32(len(*a))
	*a = append(*a, id)
	return id
}

// Follows alias chains to the canonical id
func (a aliasTable) resolve(id int32) int32 {
	for a[id] != id {
		id = a[id]
	}
	return id
}

// Merges the classes of x and y, returns the canonical id
func (a aliasTable) union(x, y int32) int32 {
	rx, ry := a.resolve(x), a.resolve(y)
	a[rx] = ry
	return ry
}

// Collapses every chain so that a single lookup yields the canonical id
func (a aliasTable) flatten() {
	for id := range a {
		a[id] = a.resolve(int32(id))
	}
}
