// Package model defines the static model catalog: per-model pricing,
// capabilities and quality tiers. The catalog is loaded once at startup and
// never mutated, so it is safe to share across goroutines without locking.
package model

import "sort"

// QualityTier orders models by capability/cost class.
type QualityTier int

const (
	TierEconomy QualityTier = iota
	TierStandard
	TierPremium
)

// String returns the tier name.
func (t QualityTier) String() string {
	switch t {
	case TierEconomy:
		return "economy"
	case TierStandard:
		return "standard"
	case TierPremium:
		return "premium"
	}
	return "unknown"
}

// Capability is a model feature flag.
type Capability string

const (
	CapVision          Capability = "vision"
	CapFunctionCalling Capability = "function_calling"
	CapStreaming       Capability = "streaming"
)

// Profile is a static catalog entry for one model. Rates are USD per 1K tokens.
type Profile struct {
	ID             string
	InputCostPerK  float64
	OutputCostPerK float64
	ContextWindow  int
	Capabilities   []Capability
	Tier           QualityTier
}

// Has reports whether the profile carries the given capability.
func (p Profile) Has(c Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// BlendedRate is the combined per-1K rate used to compare model cost.
func (p Profile) BlendedRate() float64 {
	return p.InputCostPerK + p.OutputCostPerK
}

// Catalog is an immutable set of model profiles.
type Catalog struct {
	profiles map[string]Profile
	ordered  []Profile // ascending by blended rate, ties broken by ID
}

// NewCatalog builds a catalog from the given profiles.
func NewCatalog(profiles []Profile) *Catalog {
	c := &Catalog{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		c.profiles[p.ID] = p
	}
	c.ordered = append(c.ordered, profiles...)
	sort.Slice(c.ordered, func(i, j int) bool {
		a, b := c.ordered[i], c.ordered[j]
		if a.BlendedRate() != b.BlendedRate() {
			return a.BlendedRate() < b.BlendedRate()
		}
		return a.ID < b.ID
	})
	return c
}

// Lookup returns the profile for the given model ID.
func (c *Catalog) Lookup(id string) (Profile, bool) {
	p, ok := c.profiles[id]
	return p, ok
}

// Profiles returns all profiles in ascending cost order.
func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// CheapestAtTier returns the cheapest profile at exactly the given tier.
func (c *Catalog) CheapestAtTier(tier QualityTier) (Profile, bool) {
	for _, p := range c.ordered {
		if p.Tier == tier {
			return p, true
		}
	}
	return Profile{}, false
}

// hasAll reports whether cand carries every capability of p. Stepping
// between models must never drop a capability the caller may rely on, so
// all tier and cost moves are filtered through this.
func hasAll(cand, p Profile) bool {
	for _, c := range p.Capabilities {
		if !cand.Has(c) {
			return false
		}
	}
	return true
}

// PromoteOne returns the cheapest capability-compatible profile one quality
// tier above the given model, or the model itself when already at the top
// (or unknown).
func (c *Catalog) PromoteOne(id string) Profile {
	p, ok := c.profiles[id]
	if !ok {
		return p
	}
	if p.Tier >= TierPremium {
		return p
	}
	for _, cand := range c.ordered {
		if cand.Tier == p.Tier+1 && hasAll(cand, p) {
			return cand
		}
	}
	return p
}

// DemoteOne returns the cheapest capability-compatible profile one quality
// tier below the given model, or the model itself when already at the
// bottom (or unknown).
func (c *Catalog) DemoteOne(id string) Profile {
	p, ok := c.profiles[id]
	if !ok {
		return p
	}
	if p.Tier <= TierEconomy {
		return p
	}
	for _, cand := range c.ordered {
		if cand.Tier == p.Tier-1 && hasAll(cand, p) {
			return cand
		}
	}
	return p
}

// NextCheaper returns the most expensive capability-compatible profile
// strictly cheaper than the given model by blended rate.
func (c *Catalog) NextCheaper(id string) (Profile, bool) {
	p, ok := c.profiles[id]
	if !ok {
		return Profile{}, false
	}
	for i := len(c.ordered) - 1; i >= 0; i-- {
		cand := c.ordered[i]
		if cand.ID != p.ID && cand.BlendedRate() < p.BlendedRate() && hasAll(cand, p) {
			return cand, true
		}
	}
	return Profile{}, false
}

// NextHigherQuality returns the cheapest profile with a strictly higher
// quality tier than the given model.
func (c *Catalog) NextHigherQuality(id string) (Profile, bool) {
	p, ok := c.profiles[id]
	if !ok {
		return Profile{}, false
	}
	for _, cand := range c.ordered {
		if cand.Tier > p.Tier {
			return cand, true
		}
	}
	return Profile{}, false
}

// CheapestWithCapability returns the cheapest profile carrying the given
// capability at a tier no lower than min.
func (c *Catalog) CheapestWithCapability(cap Capability, min QualityTier) (Profile, bool) {
	for _, p := range c.ordered {
		if p.Tier >= min && p.Has(cap) {
			return p, true
		}
	}
	// Relax the tier floor before giving up.
	for _, p := range c.ordered {
		if p.Has(cap) {
			return p, true
		}
	}
	return Profile{}, false
}
