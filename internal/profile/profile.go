// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package profile

import (
	"maps"
	"slices"
)

// Profile is one execution context. It is treated as immutable once handed to the engine.
type Profile struct {
	Name        string            `yaml:"name" json:"name"`
	Tier        string            `yaml:"tier,omitempty" json:"tier,omitempty"`
	Region      string            `yaml:"region,omitempty" json:"region,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	p.Env = maps.Clone(p.Env)
	return p
}

// Registry resolves profile names to metadata.
type Registry interface {
	// Lookup returns the profile called name.
	Lookup(name string) (Profile, bool)
	// Names lists every registered profile, in registration order.
	Names() []string
}

// StaticRegistry is an in-memory Registry.
type StaticRegistry struct {
	order    []string
	profiles map[string]Profile
}

var _ Registry = (*StaticRegistry)(nil)

// NewStaticRegistry builds a registry from profiles. Later duplicates replace earlier ones;
// use Validate to reject them instead.
func NewStaticRegistry(profiles ...Profile) *StaticRegistry {
	r := &StaticRegistry{
		order:    make([]string, 0, len(profiles)),
		profiles: make(map[string]Profile, len(profiles)),
	}

	for _, p := range profiles {
		if _, ok := r.profiles[p.Name]; !ok {
			r.order = append(r.order, p.Name)
		}

		r.profiles[p.Name] = p.Clone()
	}

	return r
}

// Lookup implements Registry.
func (r *StaticRegistry) Lookup(name string) (Profile, bool) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, false
	}

	return p.Clone(), true
}

// Names implements Registry.
func (r *StaticRegistry) Names() []string {
	return slices.Clone(r.order)
}

// Profiles returns every profile in registration order.
func (r *StaticRegistry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.profiles[n].Clone())
	}

	return out
}

// Resolve maps names to profiles. Unknown names become bare profiles with no metadata,
// which the partitioner places in the lowest tier.
func Resolve(reg Registry, names []string) []Profile {
	out := make([]Profile, 0, len(names))

	for _, n := range names {
		if reg != nil {
			if p, ok := reg.Lookup(n); ok {
				out = append(out, p)
				continue
			}
		}

		out = append(out, Profile{Name: n})
	}

	return out
}

// All returns every profile known to reg.
func All(reg Registry) []Profile {
	if reg == nil {
		return nil
	}

	return Resolve(reg, reg.Names())
}
