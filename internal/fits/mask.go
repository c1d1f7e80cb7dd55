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
	"sort"
)

// Registry of named bitmask planes for an image's Mask. Owned by the image,
// not process-wide; planes are allocated in declaration order, at most eight
// per mask byte.
type MaskPlanes struct {
	bits map[string]uint8
	used int
}

// Standard plane names
const (
	MaskBad    = "BAD"   // generic bad pixels (detector defects)
	MaskSat    = "SAT"   // saturated pixels
	MaskInterp = "INTRP" // interpolated pixels
	MaskCR     = "CR"    // cosmic-ray contaminated pixels
)

// Creates a mask plane registry with the given planes declared in order
func NewMaskPlanes(names ...string) (*MaskPlanes, error) {
	p := &MaskPlanes{bits: make(map[string]uint8)}
	for _, name := range names {
		if _, err := p.Add(name); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Creates a registry with the standard planes BAD, SAT, INTRP and CR
func DefaultMaskPlanes() *MaskPlanes {
	p, _ := NewMaskPlanes(MaskBad, MaskSat, MaskInterp, MaskCR)
	return p
}

// Declares a new named plane and returns its bitmask
func (p *MaskPlanes) Add(name string) (uint8, error) {
	if name == "" {
		return 0, fmt.Errorf("mask plane name must not be empty")
	}
	if _, ok := p.bits[name]; ok {
		return 0, fmt.Errorf("mask plane %q is already declared", name)
	}
	if p.used >= 8 {
		return 0, fmt.Errorf("cannot declare mask plane %q: all 8 planes in use", name)
	}
	bit := uint8(1) << uint(p.used)
	p.bits[name] = bit
	p.used++
	return bit, nil
}

// Returns the bitmask for the named plane
func (p *MaskPlanes) BitMask(name string) (uint8, error) {
	bit, ok := p.bits[name]
	if !ok {
		return 0, fmt.Errorf("unknown mask plane %q", name)
	}
	return bit, nil
}

// Returns all declared plane names in bit order
func (p *MaskPlanes) Names() []string {
	names := make([]string, 0, len(p.bits))
	for name := range p.bits {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return p.bits[names[i]] < p.bits[names[j]] })
	return names
}
