package effects

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Oil paint kernel parameters. The dedicated kernel quantizes each
// neighborhood into intensity bins and paints the pixel with the mean color
// of the dominant bin, which produces the flat, brushy patches of the
// classic oil-painting filter.
const (
	oilRadius = 4
	oilLevels = 20
)

// Bilateral fallback parameters, matching the common d=9,
// sigmaColor=sigmaSpace=75 smoothing; applied twice for a comparable
// flattening of texture.
const (
	bilateralRadius     = 4
	bilateralSigmaColor = 75.0
	bilateralSigmaSpace = 75.0
	bilateralPasses     = 2
)

// oilPaintDedicated is the primary oil paint branch.
func oilPaintDedicated(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	var (
		binCount [oilLevels]int
		binR     [oilLevels]int
		binG     [oilLevels]int
		binB     [oilLevels]int
	)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for i := 0; i < oilLevels; i++ {
				binCount[i], binR[i], binG[i], binB[i] = 0, 0, 0, 0
			}

			for ky := -oilRadius; ky <= oilRadius; ky++ {
				for kx := -oilRadius; kx <= oilRadius; kx++ {
					px := clampCoord(x+kx, 0, w-1)
					py := clampCoord(y+ky, 0, h-1)
					c := src.NRGBAAt(px+b.Min.X, py+b.Min.Y)

					intensity := (int(c.R) + int(c.G) + int(c.B)) / 3
					bin := intensity * oilLevels / 256
					binCount[bin]++
					binR[bin] += int(c.R)
					binG[bin] += int(c.G)
					binB[bin] += int(c.B)
				}
			}

			best := 0
			for i := 1; i < oilLevels; i++ {
				if binCount[i] > binCount[best] {
					best = i
				}
			}
			n := binCount[best]
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(binR[best] / n),
				G: uint8(binG[best] / n),
				B: uint8(binB[best] / n),
				A: 255,
			})
		}
	}
	return out
}

// oilPaintBilateral is the fallback branch: repeated edge-preserving
// smoothing that flattens texture while keeping strong edges, a visually
// similar substitute for the dedicated kernel.
func oilPaintBilateral(src *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(src)
	for i := 0; i < bilateralPasses; i++ {
		out = bilateralPass(out)
	}
	return out
}

func bilateralPass(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	// Spatial weights depend only on the offset; precompute them.
	size := 2*bilateralRadius + 1
	spatial := make([]float64, size*size)
	for ky := -bilateralRadius; ky <= bilateralRadius; ky++ {
		for kx := -bilateralRadius; kx <= bilateralRadius; kx++ {
			d2 := float64(kx*kx + ky*ky)
			spatial[(ky+bilateralRadius)*size+(kx+bilateralRadius)] =
				math.Exp(-d2 / (2 * bilateralSigmaSpace * bilateralSigmaSpace))
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := src.NRGBAAt(x+b.Min.X, y+b.Min.Y)

			var sumR, sumG, sumB, sumW float64
			for ky := -bilateralRadius; ky <= bilateralRadius; ky++ {
				for kx := -bilateralRadius; kx <= bilateralRadius; kx++ {
					px := clampCoord(x+kx, 0, w-1)
					py := clampCoord(y+ky, 0, h-1)
					c := src.NRGBAAt(px+b.Min.X, py+b.Min.Y)

					dr := float64(int(c.R) - int(center.R))
					dg := float64(int(c.G) - int(center.G))
					db := float64(int(c.B) - int(center.B))
					colorDist2 := dr*dr + dg*dg + db*db

					weight := spatial[(ky+bilateralRadius)*size+(kx+bilateralRadius)] *
						math.Exp(-colorDist2/(2*bilateralSigmaColor*bilateralSigmaColor))

					sumR += weight * float64(c.R)
					sumG += weight * float64(c.G)
					sumB += weight * float64(c.B)
					sumW += weight
				}
			}

			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(sumR/sumW + 0.5),
				G: uint8(sumG/sumW + 0.5),
				B: uint8(sumB/sumW + 0.5),
				A: 255,
			})
		}
	}
	return out
}

func clampCoord(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
