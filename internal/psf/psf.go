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
	"sort"
)

// A point-spread function, evaluated at offsets relative to its center.
// Implementations normalize the central amplitude to 1.
type PSF interface {
	// Eval returns the PSF value at offset (dx, dy) from the center
	Eval(dx, dy float64) float64
}

// Creates a PSF variant from its numeric parameters
type Factory func(params []float64) (PSF, error)

// Registry of named PSF varieties. Owned by the caller, not process-wide;
// the set of varieties is fixed per application.
type Registry struct {
	factories map[string]Factory
}

// Creates an empty PSF registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Creates a registry with the standard varieties declared
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Declare(DoubleGaussianName, NewDoubleGaussianPSF)
	return r
}

// Declares a factory for the named variety
func (r *Registry) Declare(name string, factory Factory) error {
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("PSF variety %q is already declared", name)
	}
	r.factories[name] = factory
	return nil
}

// Returns the factory for the named variety
func (r *Registry) Lookup(name string) (Factory, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown PSF variety %q", name)
	}
	return factory, nil
}

// Creates a PSF of the named variety with the given parameters
func (r *Registry) Create(name string, params ...float64) (PSF, error) {
	factory, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(params)
}

// Returns all declared variety names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
