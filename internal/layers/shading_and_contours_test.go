package layers

import (
	"math"
	"testing"
)

func TestCountryPrecedenceCoversEveryFallbackCountry(t *testing.T) {
	named := make(map[string]bool)
	for _, cc := range countryPrecedence {
		named[cc.country] = true
	}

	for _, country := range fallbackCountries {
		if !named[country] {
			t.Fatalf("fallback country %q has no precedence entry", country)
		}
	}
}

func TestCountryPrecedenceCutsAreKnownCountries(t *testing.T) {
	named := make(map[string]bool)
	for _, cc := range countryPrecedence {
		named[cc.country] = true
	}

	for _, cc := range countryPrecedence {
		for _, cut := range cc.cuts {
			if !named[cut] {
				t.Fatalf("country %q cuts back unknown country %q", cc.country, cut)
			}
		}
	}
}

func TestFadeAlphaDecreasesWithZoom(t *testing.T) {
	fadeAt := func(zoom int) float64 {
		return math.Min(1.0, 1.0-math.Log(float64(zoom)-7.0)/5.0)
	}

	low := fadeAt(8)
	high := fadeAt(14)

	if high >= low {
		t.Fatalf("expected fade alpha to decrease as zoom increases, got zoom8=%v zoom14=%v", low, high)
	}
	if low > 1.0 {
		t.Fatalf("expected fade alpha capped at 1.0, got %v", low)
	}
}
