package pipeline

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/detect"
	"github.com/dotscramble/redact/internal/effects"
	"github.com/dotscramble/redact/internal/history"
	"github.com/dotscramble/redact/internal/region"
)

// fakeDetector returns canned boxes or a canned error.
type fakeDetector struct {
	boxes []region.Box
	err   error
}

func (f *fakeDetector) Detect(_ image.Image, _ detect.Mode) ([]region.Box, error) {
	return f.boxes, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestProcessor(d Detector, hist *history.History) *Processor {
	return New(d, effects.NewEngine(quietLogger()), hist, quietLogger())
}

func grayImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}
	return img
}

func TestRedact_AppliesEffectInsideBoxOnly(t *testing.T) {
	d := &fakeDetector{boxes: []region.Box{{X: 10, Y: 10, Width: 20, Height: 20}}}
	p := newTestProcessor(d, nil)
	src := grayImage(60, 60)

	out, n, err := p.Redact(context.Background(), src, detect.FullFrame(),
		effects.BlackBar, effects.DefaultParams())
	if err != nil {
		t.Fatalf("Redact failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d regions, want 1", n)
	}

	if c := out.NRGBAAt(15, 15); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("inside box: got %v, want black", c)
	}
	if c := out.NRGBAAt(5, 5); c != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("outside box: got %v, want untouched gray", c)
	}
	if c := src.NRGBAAt(15, 15); c != (color.NRGBA{128, 128, 128, 255}) {
		t.Error("Redact mutated the source image")
	}
}

func TestRedact_ZeroRegionsIsSuccess(t *testing.T) {
	hist := history.New(history.DefaultLimit)
	p := newTestProcessor(&fakeDetector{}, hist)

	out, n, err := p.Redact(context.Background(), grayImage(30, 30),
		detect.Face(), effects.Blur, effects.DefaultParams())
	if err != nil {
		t.Fatalf("zero regions must not be an error, got %v", err)
	}
	if n != 0 || out == nil {
		t.Errorf("got n=%d out=%v, want 0 regions and a copied image", n, out)
	}
	if hist.CanUndo() {
		t.Error("no-op redaction must not record an undo state")
	}
}

func TestRedact_DetectorErrorPropagates(t *testing.T) {
	sentinel := errors.New("cascade missing")
	p := newTestProcessor(&fakeDetector{err: sentinel}, nil)

	_, _, err := p.Redact(context.Background(), grayImage(30, 30),
		detect.Face(), effects.Blur, effects.DefaultParams())
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want wrapped detector error", err)
	}
}

func TestRedact_Cancellation(t *testing.T) {
	d := &fakeDetector{boxes: []region.Box{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 10, Y: 0, Width: 10, Height: 10},
	}}
	p := newTestProcessor(d, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Redact(ctx, grayImage(30, 30), detect.FullFrame(),
		effects.BlackBar, effects.DefaultParams())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestUndoRedoThroughProcessor(t *testing.T) {
	d := &fakeDetector{boxes: []region.Box{{X: 0, Y: 0, Width: 30, Height: 30}}}
	hist := history.New(history.DefaultLimit)
	p := newTestProcessor(d, hist)
	src := grayImage(30, 30)

	redacted, _, err := p.Redact(context.Background(), src, detect.FullFrame(),
		effects.BlackBar, effects.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	prev, ok := p.Undo(redacted)
	if !ok {
		t.Fatal("expected an undoable state")
	}
	if c := prev.(*image.NRGBA).NRGBAAt(5, 5); c != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("undo: got %v, want the pre-edit gray", c)
	}

	again, ok := p.Redo(prev)
	if !ok {
		t.Fatal("expected a redoable state")
	}
	if c := again.(*image.NRGBA).NRGBAAt(5, 5); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("redo: got %v, want the redacted black", c)
	}
}

func TestUndoWithoutHistory(t *testing.T) {
	p := newTestProcessor(&fakeDetector{}, nil)
	if _, ok := p.Undo(grayImage(10, 10)); ok {
		t.Error("processor without history must not undo")
	}
}
