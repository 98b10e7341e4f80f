package detect

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/ocr"
	"github.com/dotscramble/redact/internal/region"
)

// fakeWords is a canned OCR collaborator.
type fakeWords struct {
	words []ocr.Word
	err   error
	down  bool
}

func (f *fakeWords) Words(_ image.Image, _ ocr.Segmentation) ([]ocr.Word, error) {
	return f.words, f.err
}

func (f *fakeWords) Available() bool { return !f.down }

func newTestDetector(src WordSource) *Detector {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(Config{CascadeDir: "testdata/cascades", OCR: src}, log)
}

func testImage(w, h int) image.Image {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func TestDetect_NilImage(t *testing.T) {
	d := newTestDetector(nil)

	if _, err := d.Detect(nil, FullFrame()); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("nil image: got %v, want ErrInvalidImage", err)
	}
	if _, err := d.Detect(testImage(0, 0), FullFrame()); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("empty image: got %v, want ErrInvalidImage", err)
	}
}

func TestDetect_FullFrame(t *testing.T) {
	d := newTestDetector(nil)

	boxes, err := d.Detect(testImage(640, 480), FullFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(boxes))
	}
	want := region.Box{X: 0, Y: 0, Width: 640, Height: 480}
	if boxes[0] != want {
		t.Errorf("got %+v, want %+v", boxes[0], want)
	}
}

func TestDetect_ManualClampsBoxes(t *testing.T) {
	d := newTestDetector(nil)

	boxes, err := d.Detect(testImage(100, 100), Manual([]region.Box{
		{X: 10, Y: 10, Width: 20, Height: 20},
		{X: 90, Y: 90, Width: 50, Height: 50}, // extends past the image
		{X: 300, Y: 300, Width: 10, Height: 10}, // entirely outside
	}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(boxes) != 2 {
		t.Fatalf("got %d boxes, want 2 (outside box dropped)", len(boxes))
	}
	for _, b := range boxes {
		if !b.Within(100, 100) {
			t.Errorf("box %+v escapes image bounds", b)
		}
	}
}

func TestDetect_CascadeFileMissing(t *testing.T) {
	d := newTestDetector(nil)

	for _, mode := range []Mode{Face(), Eyes(), Bodies()} {
		_, err := d.Detect(testImage(64, 64), mode)
		if !errors.Is(err, ErrEngineUnavailable) {
			t.Errorf("%s with no cascade dir: got %v, want ErrEngineUnavailable",
				mode.Kind, err)
		}
	}
}

func TestDetect_TargetedTextEmptyPhrase(t *testing.T) {
	d := newTestDetector(&fakeWords{})

	for _, phrase := range []string{"", "   "} {
		_, err := d.Detect(testImage(64, 64), TargetedText(phrase))
		if !errors.Is(err, ErrEmptyPhrase) {
			t.Errorf("phrase %q: got %v, want ErrEmptyPhrase", phrase, err)
		}
	}
}

func TestDetect_TargetedTextOCRUnavailable(t *testing.T) {
	tests := []struct {
		name string
		src  WordSource
	}{
		{"no collaborator", nil},
		{"engine down", &fakeWords{down: true}},
		{"engine errors", &fakeWords{err: errors.New("tesseract exploded")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(tt.src)
			_, err := d.Detect(testImage(64, 64), TargetedText("secret"))
			if !errors.Is(err, ErrEngineUnavailable) {
				t.Errorf("got %v, want ErrEngineUnavailable", err)
			}
		})
	}
}

func TestDetect_TargetedTextNotFoundIsNotAnError(t *testing.T) {
	d := newTestDetector(&fakeWords{words: []ocr.Word{
		{Text: "hello", Box: region.Box{X: 10, Y: 10, Width: 50, Height: 20}, Confidence: 90},
	}})

	boxes, err := d.Detect(testImage(200, 100), TargetedText("goodbye"))
	if err != nil {
		t.Fatalf("not-found must not be an error, got %v", err)
	}
	if len(boxes) != 0 {
		t.Errorf("got %v, want no boxes", boxes)
	}
}

func TestDetect_TargetedTextFindsPhrase(t *testing.T) {
	d := newTestDetector(&fakeWords{words: []ocr.Word{
		{Text: "Remind", Box: region.Box{X: 10, Y: 10, Width: 50, Height: 20}, Confidence: 90},
		{Text: "Me", Box: region.Box{X: 65, Y: 10, Width: 30, Height: 20}, Confidence: 88},
	}})

	boxes, err := d.Detect(testImage(200, 100), TargetedText("Remind Me"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want 1 grouped phrase box", len(boxes))
	}
	if !boxes[0].Within(200, 100) {
		t.Errorf("box %+v escapes image bounds", boxes[0])
	}
}

func TestDetect_FreeTextFiltersNoiseAndConfidence(t *testing.T) {
	d := newTestDetector(&fakeWords{words: []ocr.Word{
		{Text: "visible", Box: region.Box{X: 10, Y: 10, Width: 60, Height: 20}, Confidence: 80},
		{Text: "faint", Box: region.Box{X: 10, Y: 40, Width: 60, Height: 20}, Confidence: 20},
		{Text: ".", Box: region.Box{X: 10, Y: 70, Width: 4, Height: 4}, Confidence: 95},
	}})

	boxes, err := d.Detect(testImage(200, 100), FreeText())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want 1 (low confidence and noise dropped)", len(boxes))
	}
	if boxes[0].Y != 10 {
		t.Errorf("kept the wrong word: %+v", boxes[0])
	}
}

func TestKindString(t *testing.T) {
	if KindFace.String() != "face" || KindTargetedText.String() != "targeted_text" {
		t.Error("kind names out of sync")
	}
	if Kind(99).String() != "unknown" {
		t.Error("unknown kind should stringify as unknown")
	}
}
