package effects

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// gradientBlurKernel is the smoothing used for the fade target; heavy on
// purpose so the bottom of the region is fully unreadable.
const gradientBlurKernel = 99

// gaussianRegion smooths the region with a Gaussian kernel of the given
// (odd) size.
func gaussianRegion(src *image.NRGBA, kernel int) *image.NRGBA {
	return imaging.Clone(blur.Gaussian(src, float64(kernel)/2))
}

// pixelateRegion downscales the region to ceil(w/block) x ceil(h/block)
// with linear interpolation, then scales back up with nearest-neighbor,
// producing the classic blocky censor. Block size 1 is an identity.
func pixelateRegion(src *image.NRGBA, block int) *image.NRGBA {
	if block <= 1 {
		return imaging.Clone(src)
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tw := (w + block - 1) / block
	th := (h + block - 1) / block

	small := imaging.Resize(src, tw, th, imaging.Linear)
	return imaging.Resize(small, w, h, imaging.NearestNeighbor)
}

// gradientFadeRegion blends the region into a heavily blurred copy using a
// vertical linear gradient: untouched at the top row, fully blurred at the
// bottom row.
func gradientFadeRegion(src *image.NRGBA) *image.NRGBA {
	blurred := gaussianRegion(src, gradientBlurKernel)

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		weight := 1.0
		if h > 1 {
			weight = float64(y) / float64(h-1)
		}
		for x := 0; x < w; x++ {
			o := src.NRGBAAt(x+src.Bounds().Min.X, y+src.Bounds().Min.Y)
			f := blurred.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: blendChannel(o.R, f.R, weight),
				G: blendChannel(o.G, f.G, weight),
				B: blendChannel(o.B, f.B, weight),
				A: 255,
			})
		}
	}
	return out
}

// mosaicRegion replaces each tile of the region with its mean color.
// Averaging happens in linear RGB; averaging gamma-encoded values darkens
// high-contrast tiles noticeably.
func mosaicRegion(src *image.NRGBA, tile int) *image.NRGBA {
	if tile < 1 {
		tile = 1
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := imaging.Clone(src)

	for ty := 0; ty < h; ty += tile {
		for tx := 0; tx < w; tx += tile {
			out = paintTileMean(src, out, tx, ty, tile)
		}
	}
	return out
}

func paintTileMean(src, dst *image.NRGBA, tx, ty, tile int) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	endX, endY := tx+tile, ty+tile
	if endX > w {
		endX = w
	}
	if endY > h {
		endY = h
	}

	var sumR, sumG, sumB float64
	count := 0
	for y := ty; y < endY; y++ {
		for x := tx; x < endX; x++ {
			px := src.NRGBAAt(x+src.Bounds().Min.X, y+src.Bounds().Min.Y)
			c := colorful.Color{
				R: float64(px.R) / 255,
				G: float64(px.G) / 255,
				B: float64(px.B) / 255,
			}
			lr, lg, lb := c.LinearRgb()
			sumR += lr
			sumG += lg
			sumB += lb
			count++
		}
	}
	if count == 0 {
		return dst
	}

	mean := colorful.LinearRgb(sumR/float64(count), sumG/float64(count), sumB/float64(count)).Clamped()
	r, g, b := mean.RGB255()
	fill := color.NRGBA{R: r, G: g, B: b, A: 255}
	for y := ty; y < endY; y++ {
		for x := tx; x < endX; x++ {
			dst.SetNRGBA(x+dst.Bounds().Min.X, y+dst.Bounds().Min.Y, fill)
		}
	}
	return dst
}

// frostedGlassRegion applies blur, a mild brightness boost, then an
// edge-enhancement pass, approximating light through textured glass.
func frostedGlassRegion(src *image.NRGBA, kernel int) *image.NRGBA {
	blurred := gaussianRegion(src, kernel)
	brightened := adjust.Brightness(blurred, 0.1)
	return imaging.Clone(effect.Sharpen(brightened))
}
