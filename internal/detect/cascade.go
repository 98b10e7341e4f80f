package detect

import (
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/dotscramble/redact/internal/region"
)

// Haar cascade files shipped with OpenCV. The detector loads them from
// Config.CascadeDir; a missing file degrades to ErrEngineUnavailable.
var cascadeFiles = map[Kind]string{
	KindFace: "haarcascade_frontalface_default.xml",
	KindEye:  "haarcascade_eye.xml",
	KindBody: "haarcascade_fullbody.xml",
}

type cascadeParams struct {
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
}

// Per-kind detection parameters. Bodies use fewer neighbors: full-body
// detections are sparse and the stricter setting misses them.
var cascadeParamsByKind = map[Kind]cascadeParams{
	KindFace: {scaleFactor: 1.1, minNeighbors: 5, minSize: image.Pt(30, 30)},
	KindEye:  {scaleFactor: 1.1, minNeighbors: 5, minSize: image.Pt(20, 20)},
	KindBody: {scaleFactor: 1.1, minNeighbors: 3, minSize: image.Pt(50, 100)},
}

// detectCascade runs the Haar cascade for kind over a grayscale copy of img
// and returns whatever boxes the classifier yields, clamped but otherwise
// unfiltered.
func (d *Detector) detectCascade(img image.Image, kind Kind) ([]region.Box, error) {
	file, ok := cascadeFiles[kind]
	if !ok {
		return nil, errors.Errorf("kind %s has no cascade", kind)
	}
	path := filepath.Join(d.cfg.CascadeDir, file)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(ErrEngineUnavailable, "cascade file %s", path)
	}

	classifier := gocv.NewCascadeClassifier()
	defer classifier.Close()
	if !classifier.Load(path) {
		return nil, errors.Wrapf(ErrEngineUnavailable, "failed to load cascade %s", path)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray); err != nil {
		return nil, errors.Wrap(err, "grayscale conversion failed")
	}

	p := cascadeParamsByKind[kind]
	rects := classifier.DetectMultiScaleWithParams(
		gray, p.scaleFactor, p.minNeighbors, 0, p.minSize, image.Point{})

	bounds := img.Bounds()
	boxes := make([]region.Box, 0, len(rects))
	for _, r := range rects {
		b := region.FromRect(r).ClampTo(bounds.Dx(), bounds.Dy())
		if !b.Empty() {
			boxes = append(boxes, b)
		}
	}

	d.log.WithField("mode", kind.String()).WithField("regions", len(boxes)).
		Debug("cascade detection complete")
	return boxes, nil
}
