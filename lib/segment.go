package lib

import (
	"image/color"

	"gocv.io/x/gocv"
)

var black = color.RGBA{0, 0, 0, 0}

// Segmenter turns a BGRA frame into one binary mask per cone color.
type Segmenter struct {
	Config SegmenterConfig
}

// NewSegmenter creates a segmenter with the given configuration
func NewSegmenter(config SegmenterConfig) *Segmenter {
	return &Segmenter{Config: config}
}

// Segment returns the yellow and blue masks for frame. The frame itself is
// not modified. Both masks have the frame's size and must be closed by the
// caller.
func (s *Segmenter) Segment(frame gocv.Mat) (yellow, blue gocv.Mat) {
	bgr := gocv.NewMat()
	defer bgr.Close()
	if frame.Channels() == 4 {
		gocv.CvtColor(frame, &bgr, gocv.ColorBGRAToBGR)
	} else {
		frame.CopyTo(&bgr)
	}

	// Black out the vehicle body and the background so they never match
	for _, box := range s.Config.Blackout {
		gocv.Rectangle(&bgr, box.Rect(), black, -1)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	return unionMask(hsv, s.Config.Yellow), unionMask(hsv, s.Config.Blue)
}

// unionMask ORs together the inRange masks of every range.
func unionMask(hsv gocv.Mat, ranges []HSVRange) gocv.Mat {
	mask := gocv.NewMatWithSize(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	mask.SetTo(gocv.NewScalar(0, 0, 0, 0))

	part := gocv.NewMat()
	defer part.Close()
	for _, r := range ranges {
		lower, upper := r.Scalars()
		gocv.InRangeWithScalar(hsv, lower, upper, &part)
		gocv.BitwiseOr(mask, part, &mask)
	}
	return mask
}
