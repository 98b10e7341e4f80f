package detect

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/dotscramble/redact/internal/region"
)

// License plate geometry filter. Plates are wide and short; candidate
// contour rectangles outside this envelope are discarded.
const (
	plateMinAspect = 2.0
	plateMaxAspect = 5.0
	plateMinWidth  = 80
	plateMinHeight = 20
)

// detectLicensePlates finds plate-shaped rectangles by contour analysis:
// grayscale, 5x5 Gaussian smoothing, Canny edges, then bounding rectangles
// of the extracted contours filtered by aspect ratio and minimum size.
func (d *Detector) detectLicensePlates(img image.Image) ([]region.Box, error) {
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

	blurred := gocv.NewMat()
	defer blurred.Close()
	if err := gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault); err != nil {
		return nil, errors.Wrap(err, "smoothing failed")
	}

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(blurred, &edges, 50, 150); err != nil {
		return nil, errors.Wrap(err, "edge detection failed")
	}

	contours := gocv.FindContours(edges, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := img.Bounds()
	var boxes []region.Box
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		w, h := rect.Dx(), rect.Dy()
		if h == 0 {
			continue
		}
		aspect := float64(w) / float64(h)
		if aspect < plateMinAspect || aspect > plateMaxAspect {
			continue
		}
		if w <= plateMinWidth || h <= plateMinHeight {
			continue
		}
		b := region.FromRect(rect).ClampTo(bounds.Dx(), bounds.Dy())
		if !b.Empty() {
			boxes = append(boxes, b)
		}
	}

	d.log.WithField("regions", len(boxes)).Debug("license plate detection complete")
	return boxes, nil
}
