package hillshade

import "testing"

func TestDatasetPathLookup(t *testing.T) {
	path, ok := datasetPath("sk")
	if !ok || path == "" {
		t.Fatalf("expected sk dataset path to resolve, got %q ok=%v", path, ok)
	}

	if _, ok := datasetPath("xx"); ok {
		t.Fatalf("expected unknown country code to fail lookup")
	}

	fallback, ok := datasetPath("_")
	if !ok || fallback != "final.tif" {
		t.Fatalf("expected fallback dataset path 'final.tif', got %q", fallback)
	}
}

func TestDatasetCacheGetUnknownCountry(t *testing.T) {
	c := NewDatasetCache("/nonexistent")

	if _, err := c.Get("zz"); err == nil {
		t.Fatalf("expected error for unknown country code")
	}
}

func TestDatasetCacheEvictUnusedEmptyIsNoop(t *testing.T) {
	c := NewDatasetCache("/nonexistent")
	c.EvictUnused()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache to remain empty")
	}
}
