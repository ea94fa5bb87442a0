package hillshade

import (
	"image"
	"math"

	"github.com/airbusgeo/godal"
)

// GeoTransform is the affine pixel-to-geographic mapping reported by a
// geotiff dataset: origin + per-pixel width/height along each axis.
type GeoTransform struct {
	XOff, XWidth float64
	YOff, YWidth float64
}

// Window describes the geographic area (in the dataset's own projected
// units, EPSG:3857 meters here) and logical pixel size a render wants
// painted from a hillshading dataset.
type Window struct {
	MinX, MinY, MaxX, MaxY float64 // bbox in dataset projection units
	WidthPx, HeightPx      int     // logical (unscaled) output size
	RasterScale            float64 // device pixel ratio (1.0, 2.0, 3.0, ...)
}

// ReadRGBA extracts the geographic window from dataset, Lanczos-resamples it
// to the requested scaled pixel size, interprets the raw bands according to
// band count (1=gray+implicit-alpha, 2=gray+alpha, 3=RGB, 4=RGBA), and
// returns a premultiplied image.RGBA (matching gg's and composite.Stack's
// in-memory convention) plus whether any non-nodata pixel was found.
// hasData == false lets the caller skip RecordUse and skip painting an
// empty window.
func ReadRGBA(ds *godal.Dataset, gt GeoTransform, win Window) (*image.RGBA, bool, error) {
	pixelMinXf := (win.MinX - gt.XOff) / gt.XWidth
	pixelMaxXf := (win.MaxX - gt.XOff) / gt.XWidth

	pixelMinX := int(math.Floor(pixelMinXf))
	pixelMaxX := int(math.Ceil(pixelMaxXf))

	y0 := (win.MinY - gt.YOff) / gt.YWidth
	y1 := (win.MaxY - gt.YOff) / gt.YWidth
	pixelMinYf, pixelMaxYf := math.Min(y0, y1), math.Max(y0, y1)

	pixelMinY := int(math.Floor(pixelMinYf))
	pixelMaxY := int(math.Ceil(pixelMaxYf))

	windowWidthPx := pixelMaxX - pixelMinX
	windowHeightPx := pixelMaxY - pixelMinY

	scaledWidthPx := int(float64(win.WidthPx) * win.RasterScale)
	scaledHeightPx := int(float64(win.HeightPx) * win.RasterScale)

	scaleX := float64(scaledWidthPx) / math.Max(math.Abs(pixelMaxXf-pixelMinXf), 1e-6)
	scaleY := float64(scaledHeightPx) / math.Max(math.Abs(pixelMaxYf-pixelMinYf), 1e-6)

	bufferedW := maxInt(int(math.Ceil(scaleX*float64(windowWidthPx))), 1)
	bufferedH := maxInt(int(math.Ceil(scaleY*float64(windowHeightPx))), 1)

	rgba := make([]byte, bufferedW*bufferedH*4)

	structure := ds.Structure()
	rasterW, rasterH := structure.SizeX, structure.SizeY

	clampedX := clampInt(pixelMinX, 0, rasterW)
	clampedY := clampInt(pixelMinY, 0, rasterH)

	clampedSrcW := maxInt(minInt(pixelMinX+windowWidthPx, rasterW)-clampedX, 0)
	clampedSrcH := maxInt(minInt(pixelMinY+windowHeightPx, rasterH)-clampedY, 0)

	if clampedSrcW == 0 || clampedSrcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, scaledWidthPx, scaledHeightPx)), false, nil
	}

	resampledW := int(math.Ceil(float64(bufferedW) * (float64(clampedSrcW) / float64(windowWidthPx))))
	resampledH := int(math.Ceil(float64(bufferedH) * (float64(clampedSrcH) / float64(windowHeightPx))))

	offsetX := maxInt(int(math.Floor(float64(clampedX-pixelMinX)/float64(windowWidthPx)*float64(bufferedW))), 0)
	offsetY := maxInt(int(math.Floor(float64(clampedY-pixelMinY)/float64(windowHeightPx)*float64(bufferedH))), 0)

	copyW := minInt(resampledW, bufferedW-offsetX)
	copyH := minInt(resampledH, bufferedH-offsetY)

	bands := ds.Bands()
	hasData := false

	bandBuf := make([]byte, resampledW*resampledH)

	for bandIdx, band := range bands {
		noData, hasNoData := band.NoData()

		if clampedSrcW > 0 && clampedSrcH > 0 && resampledW > 0 && resampledH > 0 {
			if err := band.Read(clampedX, clampedY, bandBuf, resampledW, resampledH,
				godal.Resampling(godal.Lanczos)); err != nil {
				return nil, false, err
			}
		}

		for y := 0; y < copyH; y++ {
			for x := 0; x < copyW; x++ {
				dataIdx := y*resampledW + x
				rgbaIdx := ((y+offsetY)*bufferedW + (x + offsetX)) * 4

				value := bandBuf[dataIdx]
				isNoData := hasNoData && byte(noData) == value

				if !isNoData {
					hasData = true
				}

				switch {
				case len(bands) == 1:
					rgba[rgbaIdx] = value
					rgba[rgbaIdx+1] = value
					rgba[rgbaIdx+2] = value
					if isNoData {
						rgba[rgbaIdx+3] = 0
					} else {
						rgba[rgbaIdx+3] = 255
					}
				case len(bands) == 2 && bandIdx == 0:
					rgba[rgbaIdx] = value
					rgba[rgbaIdx+1] = value
					rgba[rgbaIdx+2] = value
				case len(bands) == 2:
					rgba[rgbaIdx+3] = value
				case len(bands) == 3:
					if bandIdx == 0 {
						rgba[rgbaIdx+3] = 255
					}
					rgba[rgbaIdx+bandIdx] = value
				case len(bands) == 4:
					rgba[rgbaIdx+bandIdx] = value
				}
			}
		}
	}

	fracX := pixelMinXf - float64(pixelMinX)
	fracY := pixelMinYf - float64(pixelMinY)

	cropXBase := offsetX + maxInt(int(math.Round(fracX*scaleX)), 0)
	cropYBase := offsetY + maxInt(int(math.Round(fracY*scaleY)), 0)

	cropX := minInt(cropXBase, maxInt(bufferedW-scaledWidthPx, 0))
	cropY := minInt(cropYBase, maxInt(bufferedH-scaledHeightPx, 0))

	cropW := minInt(scaledWidthPx, maxInt(bufferedW-cropX, 0))
	cropH := minInt(scaledHeightPx, maxInt(bufferedH-cropY, 0))

	out := image.NewRGBA(image.Rect(0, 0, scaledWidthPx, scaledHeightPx))

	if cropW > 0 && cropH > 0 && cropX < bufferedW && cropY < bufferedH {
		for y := 0; y < cropH; y++ {
			srcOff := ((y+cropY)*bufferedW + cropX) * 4
			dstOff := y * scaledWidthPx * 4

			maxCopy := minInt((bufferedW-cropX)*4, cropW*4)
			srcEnd := minInt(srcOff+maxCopy, len(rgba))
			dstEnd := dstOff + (srcEnd - srcOff)

			if srcEnd > srcOff && dstEnd > dstOff {
				copy(out.Pix[dstOff:dstEnd], rgba[srcOff:srcEnd])
			}
		}
	}

	premultiply(out.Pix)

	return out, hasData, nil
}

// premultiply scales each pixel's RGB channels by its own alpha in place,
// converting the straight-alpha bytes assembled above into the premultiplied
// form image.RGBA (and gg, and cairo's ARGB32) store.
func premultiply(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		alpha := float64(pix[i+3]) / 255.0

		pix[i] = uint8(float64(pix[i]) * alpha)
		pix[i+1] = uint8(float64(pix[i+1]) * alpha)
		pix[i+2] = uint8(float64(pix[i+2]) * alpha)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	return maxInt(lo, minInt(v, hi))
}
