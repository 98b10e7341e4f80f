// Package pipeline wires detection, effects, and history into the single
// redaction operation the CLI and batch engine drive: find regions, apply
// the chosen effect to each, and record the pre-edit state for undo.
package pipeline

import (
	"context"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/detect"
	"github.com/dotscramble/redact/internal/effects"
	"github.com/dotscramble/redact/internal/history"
	"github.com/dotscramble/redact/internal/region"
)

// Detector finds regions in an image for a detection mode.
type Detector interface {
	Detect(img image.Image, mode detect.Mode) ([]region.Box, error)
}

// Processor runs the redaction pipeline over a single image at a time.
type Processor struct {
	detector Detector
	engine   *effects.Engine
	hist     *history.History
	log      *logrus.Entry
}

// New creates a processor. A nil history disables undo tracking, which is
// what the batch engine wants.
func New(detector Detector, engine *effects.Engine, hist *history.History, log *logrus.Logger) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		detector: detector,
		engine:   engine,
		hist:     hist,
		log:      log.WithField("component", "pipeline"),
	}
}

// Redact detects regions in img per mode and applies the effect to each.
// It returns the redacted image and the number of regions processed. Zero
// regions is a success: the returned image is an untouched copy.
//
// The context is checked between regions so long multi-region edits can be
// cancelled.
func (p *Processor) Redact(ctx context.Context, img image.Image, mode detect.Mode,
	kind effects.Kind, params effects.Params) (*image.NRGBA, int, error) {

	boxes, err := p.detector.Detect(img, mode)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "detecting %s regions", mode.Kind)
	}

	working := imaging.Clone(img)
	if len(boxes) == 0 {
		p.log.WithField("mode", mode.Kind.String()).Debug("no regions found")
		return working, 0, nil
	}

	// History copies the state in; no defensive clone needed here.
	if p.hist != nil {
		p.hist.SaveState(img)
	}

	for i, box := range boxes {
		if err := ctx.Err(); err != nil {
			return nil, i, err
		}
		patch, err := p.engine.Apply(working, box, kind, params)
		if err != nil {
			return nil, i, errors.Wrapf(err, "applying %s to region %d", kind, i)
		}
		draw.Draw(working, box.Rect(), patch, image.Point{}, draw.Src)
	}

	p.log.WithFields(logrus.Fields{
		"mode":    mode.Kind.String(),
		"effect":  kind.String(),
		"regions": len(boxes),
	}).Info("redaction applied")
	return working, len(boxes), nil
}

// Undo restores the previous image state. current is the image being
// displayed now; it becomes redoable. Returns false when no state exists.
func (p *Processor) Undo(current image.Image) (image.Image, bool) {
	if p.hist == nil {
		return nil, false
	}
	return p.hist.Undo(current)
}

// Redo re-applies an undone state. Returns false when no state exists.
func (p *Processor) Redo(current image.Image) (image.Image, bool) {
	if p.hist == nil {
		return nil, false
	}
	return p.hist.Redo(current)
}

// ResetHistory clears the undo and redo stacks, typically on image load.
func (p *Processor) ResetHistory() {
	if p.hist != nil {
		p.hist.Clear()
	}
}
