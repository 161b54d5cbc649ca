// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
	"strings"

	"github.com/matt-FFFFFF/fanrun/internal/profile"
)

// TierOther collects profiles whose tier tag is absent or not recognised. It always runs last.
const TierOther = "other"

// DefaultTierOrder is used when a Partitioner is built without an order.
var DefaultTierOrder = []string{profile.TierDev}

// Tier is a group of profiles that run concurrently.
type Tier struct {
	Name     string
	Profiles []profile.Profile
}

// Names returns the profile names of the tier in order.
func (t Tier) Names() []string {
	out := make([]string, len(t.Profiles))
	for i, p := range t.Profiles {
		out[i] = p.Name
	}

	return out
}

// Partitioner splits profiles into ordered tiers by their tier tag.
type Partitioner struct {
	order []string
}

// NewPartitioner recognises the given tags, highest priority first. Tags are
// matched case-insensitively. With no tags, DefaultTierOrder applies.
func NewPartitioner(order ...string) *Partitioner {
	if len(order) == 0 {
		order = DefaultTierOrder
	}

	p := &Partitioner{order: make([]string, 0, len(order))}

	for _, tag := range order {
		tag = normaliseTier(tag)
		if tag == "" || tag == TierOther || slices.Contains(p.order, tag) {
			continue
		}

		p.order = append(p.order, tag)
	}

	return p
}

// Order returns the recognised tags followed by TierOther.
func (p *Partitioner) Order() []string {
	return append(slices.Clone(p.order), TierOther)
}

// TierOf returns the tier a profile is placed in.
func (p *Partitioner) TierOf(pr profile.Profile) string {
	tag := normaliseTier(pr.Tier)
	if slices.Contains(p.order, tag) {
		return tag
	}

	return TierOther
}

// Partition groups profiles by tier, in priority order. Every profile lands in
// exactly one tier, input order is kept within a tier and empty tiers are omitted.
func (p *Partitioner) Partition(profiles []profile.Profile) []Tier {
	buckets := make(map[string][]profile.Profile, len(p.order)+1)

	for _, pr := range profiles {
		name := p.TierOf(pr)
		buckets[name] = append(buckets[name], pr)
	}

	tiers := make([]Tier, 0, len(buckets))

	for _, name := range p.Order() {
		if members := buckets[name]; len(members) > 0 {
			tiers = append(tiers, Tier{Name: name, Profiles: members})
		}
	}

	return tiers
}

func normaliseTier(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
