package layers

import (
	"image/color"

	"github.com/fogleman/gg"
)

// Named fill colors used by the area-fill layers (landuse, water, buildings,
// protected areas). A representative subset of the original's colors.rs
// palette; values are approximations of the original stylesheet rather than
// exact color-for-color ports, since the original palette constants
// themselves weren't part of the retrieved source.
var (
	colorNone             = color.RGBA{}
	colorGrassy           = color.RGBA{R: 0xcd, G: 0xeb, B: 0xb0, A: 0xff}
	colorForest           = color.RGBA{R: 0xad, G: 0xd1, B: 0x9e, A: 0xff}
	colorFarmland         = color.RGBA{R: 0xee, G: 0xef, B: 0xaf, A: 0xff}
	colorFarmyard         = color.RGBA{R: 0xf5, G: 0xdc, B: 0xba, A: 0xff}
	colorResidential      = color.RGBA{R: 0xe0, G: 0xdf, B: 0xdf, A: 0xff}
	colorCommercial       = color.RGBA{R: 0xf2, G: 0xda, B: 0xd9, A: 0xff}
	colorIndustrial       = color.RGBA{R: 0xe8, G: 0xda, B: 0xe8, A: 0xff}
	colorParking          = color.RGBA{R: 0xee, G: 0xee, B: 0xcc, A: 0xff}
	colorParkingStroke    = color.RGBA{R: 0xaa, G: 0xaa, B: 0x88, A: 0xff}
	colorPitch            = color.RGBA{R: 0xaa, G: 0xe0, B: 0xcb, A: 0xff}
	colorPitchStroke      = color.RGBA{R: 0x66, G: 0xb0, B: 0x99, A: 0xff}
	colorOrchard          = color.RGBA{R: 0xae, G: 0xdf, B: 0xa0, A: 0xff}
	colorGlacier          = color.RGBA{R: 0xdd, G: 0xec, B: 0xec, A: 0xff}
	colorScree            = color.RGBA{R: 0xe5, G: 0xe0, B: 0xd8, A: 0xff}
	colorHeath            = color.RGBA{R: 0xd6, G: 0xd9, B: 0xa0, A: 0xff}
	colorScrub            = color.RGBA{R: 0xc8, G: 0xd7, B: 0xab, A: 0xff}
	colorBeach            = color.RGBA{R: 0xf5, G: 0xe9, B: 0xc6, A: 0xff}
	colorBrownfield       = color.RGBA{R: 0xc7, G: 0xc7, B: 0xb4, A: 0xff}
	colorDam              = color.RGBA{R: 0xb5, G: 0xb3, B: 0xb3, A: 0xff}
	colorAllotments       = color.RGBA{R: 0xc9, G: 0xe4, B: 0xbd, A: 0xff}
	colorHospital         = color.RGBA{R: 0xf0, G: 0xe0, B: 0xe0, A: 0xff}
	colorCollege          = color.RGBA{R: 0xe6, G: 0xe0, B: 0xd4, A: 0xff}
	colorLandfill         = color.RGBA{R: 0xb5, G: 0xa6, B: 0x7a, A: 0xff}
	colorRecreationGround = color.RGBA{R: 0xc9, G: 0xe4, B: 0xbd, A: 0xff}
	colorSilo             = color.RGBA{R: 0xc6, G: 0xc0, B: 0xbf, A: 0xff}
	colorSiloStroke       = color.RGBA{R: 0x8a, G: 0x84, B: 0x83, A: 0xff}

	colorWater  = color.RGBA{R: 0xae, G: 0xd5, B: 0xf1, A: 0xff}
	colorBridge = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	colorSea    = color.RGBA{R: 0xae, G: 0xd5, B: 0xf1, A: 0xff}

	colorBuilding       = color.RGBA{R: 0xd9, G: 0xd0, B: 0xc9, A: 0xff}
	colorBuildingStroke = color.RGBA{R: 0xb3, G: 0x9d, B: 0x8c, A: 0xff}

	colorProtectedArea       = color.RGBA{R: 0xb4, G: 0xe1, B: 0xb0, A: 0x60}
	colorProtectedAreaStroke = color.RGBA{R: 0x5a, G: 0x9c, B: 0x56, A: 0xff}

	colorWaterLabel     = color.RGBA{R: 0x2f, G: 0x5c, B: 0x8a, A: 0xff}
	colorWaterLabelHalo = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func setColor(gc *gg.Context, c color.Color) {
	gc.SetColor(c)
}
