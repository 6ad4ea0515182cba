package imageproc

import (
	"image"
	"image/color"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/disintegration/imaging"
)

// applyFilters runs the independent filter toggles. Grayscale first, sepia
// second: with both set the sepia remap supersedes the grayscale result.
func applyFilters(img image.Image, f *model.FilterSpec) image.Image {
	if f.Grayscale {
		img = imaging.Grayscale(img)
	}
	if f.Sepia {
		img = sepia(img)
	}
	return img
}

// sepia applies the standard luma-weighted sepia matrix:
//
//	r' = 0.393r + 0.769g + 0.189b
//	g' = 0.349r + 0.686g + 0.168b
//	b' = 0.272r + 0.534g + 0.131b
//
// clamped to 255. Alpha is untouched.
func sepia(img image.Image) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r := float64(c.R)
		g := float64(c.G)
		b := float64(c.B)

		return color.NRGBA{
			R: clamp8(0.393*r + 0.769*g + 0.189*b),
			G: clamp8(0.349*r + 0.686*g + 0.168*b),
			B: clamp8(0.272*r + 0.534*g + 0.131*b),
			A: c.A,
		}
	})
}

func clamp8(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v + 0.5)
}
