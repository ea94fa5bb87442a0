package svgicon

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16">
<rect width="16" height="16" fill="#ff0000"/>
</svg>`

func TestCacheGetParsesAndCaches(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "dot.svg"), []byte(sampleSVG), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := New(dir)

	icon, err := c.Get("dot.svg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if icon.Width != 16 || icon.Height != 16 {
		t.Fatalf("unexpected icon size: %+v", icon)
	}

	again, err := c.Get("dot.svg")
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}

	if again != icon {
		t.Fatalf("expected cached icon to be the same pointer")
	}
}

func TestCacheSetBaseClears(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "dot.svg"), []byte(sampleSVG), 0o644)

	c := New(dir)
	if _, err := c.Get("dot.svg"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	c.SetBase(dir)

	if len(c.svgs) != 0 {
		t.Fatalf("expected SetBase to clear cached icons")
	}
}

func TestCacheGetMissingFile(t *testing.T) {
	c := New(t.TempDir())

	if _, err := c.Get("missing.svg"); err == nil {
		t.Fatalf("expected error for missing icon file")
	}
}
