package detect

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/dotscramble/redact/internal/region"
)

// detectQRCodes locates QR codes and returns the bounding box of each
// detected quad. Decoding the payload is deliberately skipped: the point
// is to redact the code, not to read it.
func (d *Detector) detectQRCodes(img image.Image) ([]region.Box, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	defer mat.Close()

	detector := gocv.NewQRCodeDetector()
	defer detector.Close()

	points := gocv.NewMat()
	defer points.Close()

	if !detector.DetectMulti(mat, &points) || points.Empty() {
		return nil, nil
	}

	// points holds one row per code, four corner points per row.
	bounds := img.Bounds()
	boxes := make([]region.Box, 0, points.Rows())
	for r := 0; r < points.Rows(); r++ {
		minX, minY := bounds.Dx(), bounds.Dy()
		maxX, maxY := 0, 0
		for c := 0; c < points.Cols(); c++ {
			v := points.GetVecfAt(r, c)
			if len(v) < 2 {
				continue
			}
			x, y := int(v[0]), int(v[1])
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		}
		b := region.FromRect(image.Rect(minX, minY, maxX, maxY)).
			ClampTo(bounds.Dx(), bounds.Dy())
		if !b.Empty() {
			boxes = append(boxes, b)
		}
	}

	d.log.WithField("regions", len(boxes)).Debug("QR detection complete")
	return boxes, nil
}
