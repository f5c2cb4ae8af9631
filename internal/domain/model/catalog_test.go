package model_test

import (
	"testing"

	"github.com/lexorahq/aigate/internal/domain/model"
)

func TestProfilesSortedByBlendedRate(t *testing.T) {
	c := model.DefaultCatalog()

	profiles := c.Profiles()
	if len(profiles) != 5 {
		t.Fatalf("profiles = %d, want 5", len(profiles))
	}
	for i := 1; i < len(profiles); i++ {
		if profiles[i-1].BlendedRate() > profiles[i].BlendedRate() {
			t.Errorf("profiles not sorted: %s (%v) before %s (%v)",
				profiles[i-1].ID, profiles[i-1].BlendedRate(),
				profiles[i].ID, profiles[i].BlendedRate())
		}
	}
}

func TestLookup(t *testing.T) {
	c := model.DefaultCatalog()

	if _, ok := c.Lookup("openai/gpt-4o"); !ok {
		t.Error("gpt-4o missing from default catalog")
	}
	if _, ok := c.Lookup("no/such-model"); ok {
		t.Error("unknown model reported present")
	}
	if _, ok := c.Lookup(model.SafeDefault); !ok {
		t.Error("safe default must always be in the catalog")
	}
}

func TestPromoteDemotePreserveCapabilities(t *testing.T) {
	c := model.DefaultCatalog()

	// gpt-4o has vision; a demotion must land on a vision model too.
	down := c.DemoteOne("openai/gpt-4o")
	if down.ID != "openai/gpt-4o-mini" {
		t.Errorf("DemoteOne(gpt-4o) = %s, want gpt-4o-mini", down.ID)
	}
	if !down.Has(model.CapVision) {
		t.Error("demotion dropped the vision capability")
	}

	up := c.PromoteOne("openai/gpt-4o-mini")
	if up.Tier != model.TierStandard {
		t.Errorf("PromoteOne(gpt-4o-mini) landed on tier %v, want standard", up.Tier)
	}
}

func TestPromoteDemoteAtLadderEnds(t *testing.T) {
	c := model.DefaultCatalog()

	if up := c.PromoteOne("anthropic/claude-sonnet-4"); up.ID != "anthropic/claude-sonnet-4" {
		t.Errorf("promoting a premium model returned %s, want itself", up.ID)
	}
	if down := c.DemoteOne("openai/gpt-4o-mini"); down.ID != "openai/gpt-4o-mini" {
		t.Errorf("demoting an economy model returned %s, want itself", down.ID)
	}
}

func TestNextCheaperSkipsIncompatibleModels(t *testing.T) {
	c := model.DefaultCatalog()

	// gpt-4o-mini is the cheapest chat model; the only cheaper entry is the
	// embedding model, which lacks its capabilities.
	if _, found := c.NextCheaper("openai/gpt-4o-mini"); found {
		t.Error("NextCheaper crossed into a capability-incompatible model")
	}

	cheaper, found := c.NextCheaper("openai/gpt-4o")
	if !found {
		t.Fatal("gpt-4o should have a cheaper compatible neighbor")
	}
	if cheaper.ID != "openai/gpt-4o-mini" {
		t.Errorf("NextCheaper(gpt-4o) = %s, want gpt-4o-mini", cheaper.ID)
	}
}

func TestCheapestWithCapability(t *testing.T) {
	c := model.DefaultCatalog()

	p, found := c.CheapestWithCapability(model.CapVision, model.TierEconomy)
	if !found || p.ID != "openai/gpt-4o-mini" {
		t.Errorf("cheapest vision model = %v, want gpt-4o-mini", p.ID)
	}

	p, found = c.CheapestWithCapability(model.CapVision, model.TierPremium)
	if !found || p.Tier != model.TierPremium {
		t.Errorf("cheapest premium vision model = %v (tier %v)", p.ID, p.Tier)
	}
}
