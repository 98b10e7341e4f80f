// Package ocr wraps the Tesseract OCR engine (via gosseract/v2) and
// implements the word matching and phrase grouping used for targeted text
// redaction.
//
// # Prerequisites
//
// Tesseract must be installed on the system together with the language data
// for the configured language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Absence of the engine is a degraded state, not a crash: Client.Available
// reports it, and callers surface it as a typed "engine unavailable" error.
//
// # Word-Level Results
//
// Extraction uses Tesseract's RIL_WORD iterator level. Each word carries its
// text, its bounding box in image coordinates, and a confidence score from
// 0 to 100. Empty words are filtered out.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/dotscramble/redact/internal/region"
)

// Word is a single OCR-recognized word with its location and confidence.
type Word struct {
	// Text is the recognized word, whitespace-trimmed.
	Text string `json:"text"`

	// Box is the bounding box around the word in image coordinates.
	Box region.Box `json:"box"`

	// Confidence is the OCR confidence score (0 to 100).
	Confidence int `json:"confidence"`
}

// Segmentation selects the Tesseract page segmentation mode for a run.
type Segmentation int

const (
	// SegAuto lets Tesseract pick the page layout. Used for free text
	// detection over arbitrary images.
	SegAuto Segmentation = iota

	// SegSingleBlock assumes a uniform block of text. Targeted phrase
	// search uses this; it recovers more words from screenshots.
	SegSingleBlock
)

func (s Segmentation) pageSegMode() gosseract.PageSegMode {
	if s == SegSingleBlock {
		return gosseract.PSM_SINGLE_BLOCK
	}
	return gosseract.PSM_AUTO
}

// Client extracts words from images using Tesseract.
//
// A Client is cheap; the Tesseract native client is created and closed per
// call, which keeps calls independent and avoids holding native memory
// between detections.
type Client struct {
	language string
}

// DefaultLanguage is the Tesseract language code used when none is given.
const DefaultLanguage = "eng"

// NewClient creates an OCR client for the given Tesseract language code
// (e.g. "eng"). An empty language defaults to English.
func NewClient(language string) *Client {
	if language == "" {
		language = DefaultLanguage
	}
	return &Client{language: language}
}

// Available reports whether the Tesseract engine can be reached.
func (c *Client) Available() bool {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version() != ""
}

// Words runs OCR over img and returns every recognized word with its
// bounding box and confidence.
//
// OCR accuracy improves on grayscale input, so the image is converted
// before recognition; box coordinates are unaffected.
func (c *Client) Words(img image.Image, seg Segmentation) ([]Word, error) {
	gray := imaging.Grayscale(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(c.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(seg.pageSegMode()); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{
			Text:       text,
			Box:        region.FromRect(box.Box),
			Confidence: int(box.Confidence),
		})
	}

	return words, nil
}
