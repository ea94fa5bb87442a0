package mask

import (
	"image"
	"image/color"
	"testing"
)

func checkNoiseVariation(t *testing.T, noise *image.Gray) {
	width := noise.Bounds().Dx()
	height := noise.Bounds().Dy()
	firstPixel := noise.GrayAt(0, 0).Y
	foundDifferent := false
	for y := 0; y < height && !foundDifferent; y++ {
		for x := 0; x < width && !foundDifferent; x++ {
			if noise.GrayAt(x, y).Y != firstPixel {
				foundDifferent = true
			}
		}
	}
	if !foundDifferent {
		t.Error("noise should have variation, but all pixels are the same")
	}
}

func checkNoiseDeterminism(t *testing.T, noise1, noise2 *image.Gray) {
	pixel1 := noise1.GrayAt(100, 100).Y
	pixel2 := noise2.GrayAt(100, 100).Y
	if pixel1 != pixel2 {
		t.Errorf("same seed should produce same noise: %d != %d", pixel1, pixel2)
	}
}

func checkNoiseDifference(t *testing.T, noise1, noise2 *image.Gray) {
	width := noise1.Bounds().Dx()
	height := noise1.Bounds().Dy()
	differentCount := 0
	sampleCount := 0
	for y := 0; y < height; y += 10 {
		for x := 0; x < width; x += 10 {
			sampleCount++
			if noise1.GrayAt(x, y).Y != noise2.GrayAt(x, y).Y {
				differentCount++
			}
		}
	}
	// At least 80% of sampled pixels should be different
	if float64(differentCount)/float64(sampleCount) < 0.8 {
		t.Errorf("different seeds should produce mostly different noise, only %d/%d pixels different", differentCount, sampleCount)
	}
}

// TestGeneratePerlinNoise tests generating tileable Perlin noise
func TestGeneratePerlinNoise(t *testing.T) {
	width := 256
	height := 256
	scale := 50.0

	noise := GeneratePerlinNoise(width, height, scale, 42)

	bounds := noise.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		t.Errorf("noise dimensions %dx%d != expected %dx%d", bounds.Dx(), bounds.Dy(), width, height)
	}

	checkNoiseVariation(t, noise)

	noise2 := GeneratePerlinNoise(width, height, scale, 42)
	checkNoiseDeterminism(t, noise, noise2)

	noise3 := GeneratePerlinNoise(width, height, scale, 99)
	checkNoiseDifference(t, noise, noise3)
}

// TestGeneratePerlinNoiseWithOffsetAlignment ensures offsets align noise across tiles
func TestGeneratePerlinNoiseWithOffsetAlignment(t *testing.T) {
	width := 256
	height := 256
	scale := 40.0
	seed := int64(2024)

	ref := GeneratePerlinNoiseWithOffset(width*2, height, scale, seed, 0, 0)
	left := GeneratePerlinNoiseWithOffset(width, height, scale, seed, 0, 0)
	right := GeneratePerlinNoiseWithOffset(width, height, scale, seed, width, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if left.GrayAt(x, y).Y != ref.GrayAt(x, y).Y {
				t.Fatalf("left tile mismatch at (%d,%d): %d != %d", x, y,
					left.GrayAt(x, y).Y, ref.GrayAt(x, y).Y)
			}
			if right.GrayAt(x, y).Y != ref.GrayAt(x+width, y).Y {
				t.Fatalf("right tile mismatch at (%d,%d): %d != %d", x, y,
					right.GrayAt(x, y).Y, ref.GrayAt(x+width, y).Y)
			}
		}
	}
}

// TestGeneratePerlinNoiseWithOffsetVerticalAlignment ensures vertical seams are seamless
func TestGeneratePerlinNoiseWithOffsetVerticalAlignment(t *testing.T) {
	width := 256
	height := 256
	scale := 40.0
	seed := int64(2025)

	ref := GeneratePerlinNoiseWithOffset(width, height*2, scale, seed, 0, 0)
	top := GeneratePerlinNoiseWithOffset(width, height, scale, seed, 0, 0)
	bottom := GeneratePerlinNoiseWithOffset(width, height, scale, seed, 0, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if top.GrayAt(x, y).Y != ref.GrayAt(x, y).Y {
				t.Fatalf("top tile mismatch at (%d,%d): %d != %d", x, y,
					top.GrayAt(x, y).Y, ref.GrayAt(x, y).Y)
			}
			if bottom.GrayAt(x, y).Y != ref.GrayAt(x, y+height).Y {
				t.Fatalf("bottom tile mismatch at (%d,%d): %d != %d", x, y,
					bottom.GrayAt(x, y).Y, ref.GrayAt(x, y+height).Y)
			}
		}
	}
}

// TestApplyNoiseToMask tests overlaying noise on a blurred mask
func TestApplyNoiseToMask(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			gray := uint8(float64(x) / 100.0 * 255.0)
			mask.SetGray(x, y, color.Gray{Y: gray})
		}
	}

	noise := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if (x+y)%2 == 0 {
				noise.SetGray(x, y, color.Gray{Y: 200})
			} else {
				noise.SetGray(x, y, color.Gray{Y: 100})
			}
		}
	}

	result := ApplyNoiseToMask(mask, noise, 0.5)

	if result.Bounds() != mask.Bounds() {
		t.Errorf("result bounds %v != mask bounds %v", result.Bounds(), mask.Bounds())
	}

	leftPixel := result.GrayAt(10, 50)
	if leftPixel.Y > 100 {
		t.Errorf("left pixel should stay dark (<100), got %d", leftPixel.Y)
	}

	rightPixel1 := result.GrayAt(95, 50)
	rightPixel2 := result.GrayAt(96, 50)
	if rightPixel1.Y == rightPixel2.Y {
		t.Error("noise should create variation in bright areas")
	}

	middleOriginal := mask.GrayAt(50, 50).Y
	middleResult := result.GrayAt(50, 50).Y
	if middleOriginal == middleResult {
		t.Error("noise should modify the mask values")
	}
}
