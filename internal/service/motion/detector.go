package motion

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"motiondetector/internal/config"

	"gocv.io/x/gocv"
)

// ErrSizeMismatch is returned when two frames of different geometry are compared.
var ErrSizeMismatch = errors.New("frames differ in size")

// RegionColor is the outline color of detected regions (BGR order is handled by gocv).
var RegionColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}

// Region is the bounding rectangle of one contour of changed pixels.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	Area   float64 // contour area, not Width*Height
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Detector finds regions of change between two consecutive frames.
type Detector struct {
	threshold        int
	minArea          float64
	blurSize         int
	dilateIterations int
	kernel           gocv.Mat
}

// NewDetector creates a detector from the detection settings of cfg.
// Close must be called to release the dilation kernel.
func NewDetector(cfg *config.Config) *Detector {
	return &Detector{
		threshold:        cfg.ThresholdValue,
		minArea:          cfg.MinArea,
		blurSize:         cfg.BlurSize,
		dilateIterations: cfg.DilateIterations,
		kernel:           gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// MinArea returns the smallest contour area reported as motion.
func (d *Detector) MinArea() float64 {
	return d.minArea
}

// Preprocess converts frame to grayscale and smooths it. The caller owns the returned Mat.
func (d *Detector) Preprocess(frame gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()

	var err error
	switch frame.Channels() {
	case 1:
		frame.CopyTo(&gray)
	case 4:
		err = gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray)
	default:
		err = gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	}
	if err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("failed to convert image to grayscale: %w", err)
	}

	gocv.GaussianBlur(gray, &gray, image.Pt(d.blurSize, d.blurSize), 0, 0, gocv.BorderDefault)
	return gray, nil
}

// Mask returns the binarized and dilated difference of two preprocessed frames.
// A pixel is set when its absolute difference is at least the threshold.
// The caller owns the returned Mat.
func (d *Detector) Mask(previous, current gocv.Mat) (gocv.Mat, error) {
	if previous.Rows() != current.Rows() || previous.Cols() != current.Cols() {
		return gocv.NewMat(), ErrSizeMismatch
	}

	mask := gocv.NewMat()
	if err := gocv.AbsDiff(previous, current, &mask); err != nil {
		mask.Close()
		return gocv.NewMat(), fmt.Errorf("failed to compute absolute difference: %w", err)
	}

	// ThresholdBinary keeps values strictly above thresh.
	gocv.Threshold(mask, &mask, float32(d.threshold-1), 255, gocv.ThresholdBinary)

	for i := 0; i < d.dilateIterations; i++ {
		gocv.Dilate(mask, &mask, d.kernel)
	}

	return mask, nil
}

// Detect returns every region of change between previous and current whose
// contour area reaches the minimum area.
func (d *Detector) Detect(previous, current gocv.Mat) ([]Region, error) {
	mask, err := d.Mask(previous, current)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		area := gocv.ContourArea(contour)
		if area < d.minArea {
			continue
		}

		rect := gocv.BoundingRect(contour)
		regions = append(regions, Region{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
			Area:   area,
		})
	}

	return regions, nil
}

// Close releases the dilation kernel.
func (d *Detector) Close() error {
	return d.kernel.Close()
}

// DrawRegions outlines every region on img.
func DrawRegions(img *gocv.Mat, regions []Region, c color.RGBA, thickness int) error {
	for _, region := range regions {
		if err := gocv.Rectangle(img, region.Rect(), c, thickness); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}
	}
	return nil
}
