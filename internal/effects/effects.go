// Package effects implements the per-region pixel transforms applied to
// detected regions, plus the opacity compositing that blends an effect's
// output back into the original pixels.
//
// Every transform is pure with respect to the source image: Apply reads the
// region, computes a new buffer of the same size, and returns it. Writing
// the result back into a working copy is the caller's job.
//
// # Coordinate System
//
// Boxes are 0-based relative to the image's visible area; images whose
// Bounds() do not start at the origin are handled by offsetting internally.
package effects

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/region"
)

// Kind enumerates the available visual effects.
type Kind int

const (
	Blur Kind = iota
	Pixelate
	BlackBar
	GradientFade
	Mosaic
	FrostedGlass
	OilPaint
)

var kindNames = map[Kind]string{
	Blur:         "blur",
	Pixelate:     "pixelate",
	BlackBar:     "black_bar",
	GradientFade: "gradient",
	Mosaic:       "mosaic",
	FrostedGlass: "glass",
	OilPaint:     "oil_paint",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves an effect name as used in presets and on the command
// line.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown effect %q", name)
}

// Params carries the effect parameters shared across kinds. Each kind reads
// only the fields it needs; Opacity applies to all of them.
type Params struct {
	// BlurStrength is the Gaussian kernel size for Blur and FrostedGlass.
	// Even values are bumped to the next odd value.
	BlurStrength int

	// PixelSize is the Pixelate block edge, floored at 1.
	PixelSize int

	// TileSize is the Mosaic tile edge, floored at 1.
	TileSize int

	// Opacity blends the effect with the original region: 0 leaves the
	// region untouched, 100 replaces it entirely.
	Opacity int
}

// DefaultParams returns the parameter defaults.
func DefaultParams() Params {
	return Params{BlurStrength: 51, PixelSize: 15, TileSize: 10, Opacity: 100}
}

// ErrInvalidRegion indicates a box that is empty or extends past the image.
var ErrInvalidRegion = errors.New("invalid effect region")

// Engine applies effects to image regions.
//
// The oil paint strategy is fixed at construction (see WithOilPaintFallback)
// and logged once, so callers can tell which branch produced their output.
type Engine struct {
	oilPaint     func(*image.NRGBA) *image.NRGBA
	oilPaintName string
	log          *logrus.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithOilPaintFallback selects the bilateral-style edge-preserving smoother
// instead of the dedicated oil-paint kernel. The fallback is deterministic
// and visually similar; it exists for hosts where the dedicated kernel is
// too expensive for interactive previews.
func WithOilPaintFallback() Option {
	return func(e *Engine) {
		e.oilPaint = oilPaintBilateral
		e.oilPaintName = "bilateral"
	}
}

// NewEngine creates an effect engine.
func NewEngine(log *logrus.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Engine{
		oilPaint:     oilPaintDedicated,
		oilPaintName: "dedicated",
		log:          log.WithField("component", "effects"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log.WithField("branch", e.oilPaintName).Debug("oil paint strategy selected")
	return e
}

// OilPaintBranch reports which oil paint strategy the engine was built
// with: "dedicated" or "bilateral".
func (e *Engine) OilPaintBranch() string {
	return e.oilPaintName
}

// Apply computes the effect over the boxed region of img and returns a
// buffer of exactly the box's dimensions, already composited with the
// original pixels according to p.Opacity. The source image is never
// mutated.
func (e *Engine) Apply(img image.Image, box region.Box, kind Kind, p Params) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidRegion, "nil image")
	}
	bounds := img.Bounds()
	if box.Empty() || !box.Within(bounds.Dx(), bounds.Dy()) {
		return nil, errors.Wrapf(ErrInvalidRegion, "box %+v in %dx%d image",
			box, bounds.Dx(), bounds.Dy())
	}

	src := imaging.Crop(img, box.Rect().Add(bounds.Min))

	var effected *image.NRGBA
	switch kind {
	case Blur:
		effected = gaussianRegion(src, oddKernel(p.BlurStrength))
	case Pixelate:
		effected = pixelateRegion(src, p.PixelSize)
	case BlackBar:
		effected = fillRegion(src, color.NRGBA{A: 255})
	case GradientFade:
		effected = gradientFadeRegion(src)
	case Mosaic:
		effected = mosaicRegion(src, p.TileSize)
	case FrostedGlass:
		effected = frostedGlassRegion(src, oddKernel(p.BlurStrength))
	case OilPaint:
		effected = e.oilPaint(src)
	default:
		return nil, errors.Errorf("unknown effect kind %d", kind)
	}

	return Composite(src, effected, p.Opacity), nil
}

// Composite alpha-blends the effected region with the original:
// out = α·effected + (1-α)·original with α = opacity/100. Full opacity
// short-circuits to the effected buffer; zero opacity returns a copy of the
// original.
func Composite(original, effected *image.NRGBA, opacity int) *image.NRGBA {
	if opacity >= 100 {
		return effected
	}
	if opacity <= 0 {
		return imaging.Clone(original)
	}

	alpha := float64(opacity) / 100.0
	out := imaging.Clone(original)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := out.NRGBAAt(x, y)
			f := effected.NRGBAAt(x-b.Min.X+effected.Bounds().Min.X, y-b.Min.Y+effected.Bounds().Min.Y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: blendChannel(o.R, f.R, alpha),
				G: blendChannel(o.G, f.G, alpha),
				B: blendChannel(o.B, f.B, alpha),
				A: 255,
			})
		}
	}
	return out
}

func blendChannel(orig, eff uint8, alpha float64) uint8 {
	v := alpha*float64(eff) + (1-alpha)*float64(orig)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// oddKernel normalizes a blur strength: floored at 3, bumped to odd.
func oddKernel(strength int) int {
	if strength < 3 {
		strength = 3
	}
	if strength%2 == 0 {
		strength++
	}
	return strength
}

// fillRegion returns a solid-color buffer of the region's size.
func fillRegion(src *image.NRGBA, c color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return out
}
