package detect

import (
	"image"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/ocr"
	"github.com/dotscramble/redact/internal/region"
)

// Free text regions smaller than this are OCR noise (stray punctuation,
// speckles recognized as words) and are skipped.
const minTextRegionSize = 10

// detectFreeText returns a box for every OCR word above the confidence
// floor, with no phrase filtering.
func (d *Detector) detectFreeText(img image.Image, opts ocr.MatchOptions) ([]region.Box, error) {
	words, err := d.runOCR(img, ocr.SegAuto)
	if err != nil {
		return nil, err
	}

	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = ocr.DefaultConfidenceThreshold
	}

	bounds := img.Bounds()
	var boxes []region.Box
	for _, w := range words {
		if w.Confidence <= threshold {
			continue
		}
		if w.Box.Width <= minTextRegionSize || w.Box.Height <= minTextRegionSize {
			continue
		}
		b := w.Box.ClampTo(bounds.Dx(), bounds.Dy())
		if !b.Empty() {
			boxes = append(boxes, b)
		}
	}

	d.log.WithField("regions", len(boxes)).Debug("free text detection complete")
	return boxes, nil
}

// detectPhrase finds every occurrence of a target word or phrase.
//
// An empty result with a nil error means the phrase was not found, which is
// distinct from an OCR failure; that surfaces as ErrEngineUnavailable.
func (d *Detector) detectPhrase(img image.Image, phrase string, opts ocr.MatchOptions) ([]region.Box, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, ErrEmptyPhrase
	}

	words, err := d.runOCR(img, ocr.SegSingleBlock)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	boxes := ocr.FindPhrase(words, phrase, opts, bounds.Dx(), bounds.Dy())

	d.log.WithFields(logrus.Fields{
		"phrase":  phrase,
		"regions": len(boxes),
	}).Debug("targeted text detection complete")
	return boxes, nil
}

func (d *Detector) runOCR(img image.Image, seg ocr.Segmentation) ([]ocr.Word, error) {
	if d.cfg.OCR == nil || !d.cfg.OCR.Available() {
		return nil, errors.Wrap(ErrEngineUnavailable, "OCR engine not installed")
	}
	words, err := d.cfg.OCR.Words(img, seg)
	if err != nil {
		return nil, errors.Wrapf(ErrEngineUnavailable, "OCR failed: %v", err)
	}
	return words, nil
}
