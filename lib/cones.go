package lib

import (
	"image"

	"gocv.io/x/gocv"
)

// ConeRegion is the axis-aligned bounding box of one contour.
type ConeRegion struct {
	Rect image.Rectangle
}

// Area returns the bounding box area in pixels
func (r ConeRegion) Area() int {
	return r.Rect.Dx() * r.Rect.Dy()
}

// X returns the left edge of the region
func (r ConeRegion) X() int {
	return r.Rect.Min.X
}

// ConeObservation summarizes one color's cones in one frame.
type ConeObservation struct {
	Confirmed    int          // Regions above the confirmed area threshold
	Largest      ConeRegion   // Largest candidate, valid only if HasCandidate
	HasCandidate bool         // At least one region above the candidate threshold
	Candidates   []ConeRegion // Every candidate region, in contour order
}

// ConeDetector reduces a color mask to a ConeObservation
type ConeDetector struct {
	Config DetectorConfig
}

// NewConeDetector creates a detector with the given thresholds
func NewConeDetector(config DetectorConfig) *ConeDetector {
	return &ConeDetector{Config: config}
}

// Detect extracts the external contours of mask and classifies them.
func (d *ConeDetector) Detect(mask gocv.Mat) ConeObservation {
	return d.Observe(Regions(mask))
}

// Observe classifies regions by area. Regions at or below the candidate
// threshold are dropped. Ties for the largest candidate go to the first one.
func (d *ConeDetector) Observe(regions []ConeRegion) ConeObservation {
	var obs ConeObservation
	for _, r := range regions {
		area := r.Area()
		if area <= d.Config.CandidateArea {
			continue
		}
		obs.Candidates = append(obs.Candidates, r)
		if !obs.HasCandidate || area > obs.Largest.Area() {
			obs.Largest = r
			obs.HasCandidate = true
		}
		if area > d.Config.ConfirmedArea {
			obs.Confirmed++
		}
	}
	return obs
}

// Regions returns the bounding boxes of the external contours of mask in
// contour enumeration order. Nested contours are not reported.
func Regions(mask gocv.Mat) []ConeRegion {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]ConeRegion, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		regions = append(regions, ConeRegion{Rect: gocv.BoundingRect(contours.At(i))})
	}
	return regions
}
