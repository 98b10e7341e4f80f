// Package region defines the rectangular pixel regions shared by the
// detection and effect layers.
//
// All coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. A Box uses the {x, y, width, height}
// convention of the detectors that produce them; conversion to the standard
// library's half-open image.Rectangle is provided for consumers that iterate
// pixels.
package region

import "image"

// Box is a rectangular pixel area identified for effect application.
//
// A Box is immutable once produced by a detector: all methods return a new
// value. Detectors guarantee that returned boxes satisfy
// 0 <= X, 0 <= Y, X+Width <= image width and Y+Height <= image height,
// but make no promises about overlap or ordering.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromRect converts an image.Rectangle into a Box.
func FromRect(r image.Rectangle) Box {
	return Box{
		X:      r.Min.X,
		Y:      r.Min.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
	}
}

// Rect returns the half-open image.Rectangle covering the box.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Pad grows the box by n pixels on every side. The result may extend past
// image bounds; follow with ClampTo.
func (b Box) Pad(n int) Box {
	return Box{
		X:      b.X - n,
		Y:      b.Y - n,
		Width:  b.Width + 2*n,
		Height: b.Height + 2*n,
	}
}

// ClampTo constrains the box to an image of the given dimensions.
// A box entirely outside the image clamps to an empty box.
func (b Box) ClampTo(width, height int) Box {
	r := b.Rect().Intersect(image.Rect(0, 0, width, height))
	if r.Empty() {
		return Box{}
	}
	return FromRect(r)
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return FromRect(b.Rect().Union(o.Rect()))
}

// Within reports whether the box lies fully inside an image of the given
// dimensions.
func (b Box) Within(width, height int) bool {
	return b.X >= 0 && b.Y >= 0 &&
		b.X+b.Width <= width && b.Y+b.Height <= height
}

// CenterY returns the vertical center of the box. Used by the phrase
// grouper to decide whether two words sit on the same text line.
func (b Box) CenterY() int {
	return b.Y + b.Height/2
}
