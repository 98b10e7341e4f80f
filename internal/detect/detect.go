// Package detect turns a detection mode into a list of candidate regions.
//
// It is the dispatch layer between the caller's mode selection and the
// heterogeneous detectors behind it: Haar cascade classifiers (face, eye,
// body), a contour heuristic (license plates), the OpenCV QR detector, the
// OCR engine (free text and targeted phrases), caller-supplied boxes, and
// the trivial full-frame detector.
//
// No detector guarantees that returned boxes are disjoint or sorted;
// downstream consumers must tolerate overlap. A detector that finds nothing
// returns an empty slice and no error; zero regions is a valid outcome.
package detect

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/ocr"
	"github.com/dotscramble/redact/internal/region"
)

// Detection error taxonomy. Wrapped errors preserve these sentinels for
// errors.Is classification.
var (
	// ErrInvalidImage indicates a nil or empty input image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrEngineUnavailable indicates a missing detector dependency
	// (cascade file, OCR engine). Detection degrades to this typed error
	// rather than crashing the pipeline.
	ErrEngineUnavailable = errors.New("detection engine unavailable")

	// ErrEmptyPhrase indicates a targeted text search with no phrase.
	ErrEmptyPhrase = errors.New("empty target phrase")
)

// Kind enumerates the detection strategies.
type Kind int

const (
	KindFace Kind = iota
	KindEye
	KindBody
	KindLicensePlate
	KindQRCode
	KindFreeText
	KindTargetedText
	KindManual
	KindFullFrame
)

var kindNames = map[Kind]string{
	KindFace:         "face",
	KindEye:          "eye",
	KindBody:         "body",
	KindLicensePlate: "license_plate",
	KindQRCode:       "qr",
	KindFreeText:     "text",
	KindTargetedText: "targeted_text",
	KindManual:       "manual",
	KindFullFrame:    "full_frame",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a detection mode name as used in presets and on the
// command line.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown detection mode %q", name)
}

// Mode is a detection mode together with the data its kind needs:
// TargetedText carries the phrase (and match options), Manual carries the
// caller-drawn boxes. Use the constructors; a zero Mode is face detection.
type Mode struct {
	Kind   Kind
	Phrase string
	Match  ocr.MatchOptions
	Boxes  []region.Box
}

// Face detects human faces with a Haar cascade.
func Face() Mode { return Mode{Kind: KindFace} }

// Eyes detects eyes with a Haar cascade.
func Eyes() Mode { return Mode{Kind: KindEye} }

// Bodies detects full bodies with a Haar cascade.
func Bodies() Mode { return Mode{Kind: KindBody} }

// LicensePlates detects plate-shaped contours. This is a heuristic, not a
// learned detector; false positives are expected and are the caller's
// problem.
func LicensePlates() Mode { return Mode{Kind: KindLicensePlate} }

// QRCodes detects QR codes.
func QRCodes() Mode { return Mode{Kind: KindQRCode} }

// FreeText detects every OCR word region above the confidence floor.
func FreeText() Mode { return Mode{Kind: KindFreeText} }

// TargetedText searches for a specific word or phrase with default match
// options.
func TargetedText(phrase string) Mode {
	return Mode{Kind: KindTargetedText, Phrase: phrase}
}

// TargetedTextWithOptions searches for a phrase with explicit match options.
func TargetedTextWithOptions(phrase string, opts ocr.MatchOptions) Mode {
	return Mode{Kind: KindTargetedText, Phrase: phrase, Match: opts}
}

// Manual passes caller-supplied boxes through unchanged (clamped to the
// image).
func Manual(boxes []region.Box) Mode {
	return Mode{Kind: KindManual, Boxes: boxes}
}

// FullFrame selects the whole image as a single region.
func FullFrame() Mode { return Mode{Kind: KindFullFrame} }

// WordSource is the OCR collaborator consumed by the text detectors.
// *ocr.Client satisfies it; tests substitute fixed word lists.
type WordSource interface {
	Words(img image.Image, seg ocr.Segmentation) ([]ocr.Word, error)
	Available() bool
}

// Config carries detector construction parameters.
type Config struct {
	// CascadeDir is the directory holding the Haar cascade XML files.
	CascadeDir string

	// OCR is the word source for text detection. Nil means the OCR
	// collaborator is unavailable and text modes degrade to
	// ErrEngineUnavailable.
	OCR WordSource
}

// Detector produces candidate regions for a detection mode.
//
// Detectors share collaborator state (classifier files, the OCR engine) and
// are not guaranteed reentrant; callers must not invoke Detect concurrently
// on one Detector.
type Detector struct {
	cfg Config
	log *logrus.Entry
}

// New creates a Detector.
func New(cfg Config, log *logrus.Logger) *Detector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Detector{
		cfg: cfg,
		log: log.WithField("component", "detect"),
	}
}

// Detect runs the detector selected by mode over img and returns the
// candidate boxes, each within the image bounds.
func (d *Detector) Detect(img image.Image, mode Mode) ([]region.Box, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidImage
	}

	d.log.WithFields(logrus.Fields{
		"mode":   mode.Kind.String(),
		"width":  width,
		"height": height,
	}).Debug("running detection")

	switch mode.Kind {
	case KindFace, KindEye, KindBody:
		return d.detectCascade(img, mode.Kind)
	case KindLicensePlate:
		return d.detectLicensePlates(img)
	case KindQRCode:
		return d.detectQRCodes(img)
	case KindFreeText:
		return d.detectFreeText(img, mode.Match)
	case KindTargetedText:
		return d.detectPhrase(img, mode.Phrase, mode.Match)
	case KindManual:
		return clampAll(mode.Boxes, width, height), nil
	case KindFullFrame:
		return []region.Box{{X: 0, Y: 0, Width: width, Height: height}}, nil
	default:
		return nil, errors.Errorf("unknown detection kind %d", mode.Kind)
	}
}

// clampAll constrains caller-supplied boxes to the image, dropping any that
// end up empty.
func clampAll(boxes []region.Box, width, height int) []region.Box {
	out := make([]region.Box, 0, len(boxes))
	for _, b := range boxes {
		c := b.ClampTo(width, height)
		if !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}
